package duplex

import "errors"

// ErrNotConnected is returned by Send when no live connection exists.
var ErrNotConnected = errors.New("duplex: not connected")
