package replay

import "errors"

// ErrMalformedOperation is returned when an operation's payload does not
// match its declared type. Malformed streams halt replay rather than
// desynchronize replicas.
var ErrMalformedOperation = errors.New("malformed operation")
