// Package idhash derives record ids deterministically from their content so
// every replica of the replayed block stream assigns identical ids.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// OrderID computes a deterministic order id using SHA256.
// Formula: SHA256(pair_id|account|block_height|tx_index|op_index|seq)
// seq distinguishes multiple orders created by one operation, such as the
// book legs of a hybrid trade. Returns hex-encoded hash (64 characters).
func OrderID(pairID, account string, blockHeight, txIndex, opIndex int64, seq int) string {
	data := fmt.Sprintf("%s|%s|%d|%d|%d|%d", pairID, account, blockHeight, txIndex, opIndex, seq)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// TradeID computes a deterministic trade id using SHA256.
// Formula: SHA256(pair_id|maker_order_id|taker_order_id|seq)
// seq is the match index within the taker's matching pass, so one taker
// filling the same maker twice in distinct passes stays distinguishable.
func TradeID(pairID, makerOrderID, takerOrderID string, seq int) string {
	data := fmt.Sprintf("%s|%s|%s|%d", pairID, makerOrderID, takerOrderID, seq)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
