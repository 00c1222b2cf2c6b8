package sink

import "errors"

// ErrDelivery wraps every webhook delivery failure. It is logged, never returned to job callers.
var ErrDelivery = errors.New("result delivery failed")
