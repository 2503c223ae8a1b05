package ledger

import (
	"sync/atomic"

	"github.com/rs/zerolog"
)

var logger atomic.Pointer[zerolog.Logger]

func init() {
	nop := zerolog.Nop()
	logger.Store(&nop)
}

// SetLogger sets the logger used for account-level anomalies such as a
// duplicate add or a missing remove.
func SetLogger(l zerolog.Logger) {
	l = l.With().Str("component", "ledger").Logger()
	logger.Store(&l)
}

func log() *zerolog.Logger { return logger.Load() }
