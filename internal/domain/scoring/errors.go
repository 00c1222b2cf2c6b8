package scoring

import "errors"

// ErrNoAnalyses is returned when a portfolio is built from zero agents.
var ErrNoAnalyses = errors.New("no agent analyses")
