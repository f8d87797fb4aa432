// logging.go - injectable diagnostic logging sink

package audiofx

import charmlog "github.com/charmbracelet/log"

// Logger receives diagnostic events from effects; the effects report
// rejected parameter updates to it at warn level. A nil Logger on EffectBase disables logging entirely, so
// effects never need to check for a host that doesn't care.
type Logger interface {
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)
}

// charmLogger adapts *charmlog.Logger to the Logger interface.
type charmLogger struct {
	l *charmlog.Logger
}

// NewLogger wraps a charmbracelet/log logger for use as an effect's
// diagnostic sink.
func NewLogger(l *charmlog.Logger) Logger {
	return &charmLogger{l: l}
}

// NewDefaultLogger returns a Logger writing to the charmbracelet/log
// package-level default logger.
func NewDefaultLogger() Logger {
	return &charmLogger{l: charmlog.Default()}
}

func (c *charmLogger) Debugf(format string, args ...any) {
	c.l.Debugf(format, args...)
}

func (c *charmLogger) Warnf(format string, args ...any) {
	c.l.Warnf(format, args...)
}
