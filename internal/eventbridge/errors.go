package eventbridge

import "errors"

// ErrClosed is returned by Publish once Close has completed.
var ErrClosed = errors.New("eventbridge: publisher closed")
