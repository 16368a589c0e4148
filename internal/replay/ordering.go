package replay

import "sort"

// SortOperations orders operations by
// (block_height ASC, tx_index ASC, op_index ASC, type ASC).
// The sort is stable so equal keys preserve arrival order, and the type
// tie-breaker keeps exact duplicates deterministic across replicas.
func SortOperations(ops []*Operation) {
	sort.SliceStable(ops, func(i, j int) bool {
		return compareOperations(ops[i], ops[j]) < 0
	})
}

// compareOperations returns:
//   - negative if a < b
//   - zero if a == b
//   - positive if a > b
//
// Order: (block_height ASC, tx_index ASC, op_index ASC, type ASC)
func compareOperations(a, b *Operation) int {
	if a.BlockHeight != b.BlockHeight {
		if a.BlockHeight < b.BlockHeight {
			return -1
		}
		return 1
	}
	if a.TxIndex != b.TxIndex {
		if a.TxIndex < b.TxIndex {
			return -1
		}
		return 1
	}
	if a.OpIndex != b.OpIndex {
		if a.OpIndex < b.OpIndex {
			return -1
		}
		return 1
	}
	if a.Type != b.Type {
		if a.Type < b.Type {
			return -1
		}
		return 1
	}
	return 0
}
