package app

import (
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DebugMessage is one recoverable problem a window ran into: a missing
// font, a dropped CSS rule, an ambiguous key, a panicking callback.
type DebugMessage struct {
	Time    time.Time
	Level   zapcore.Level
	Source  string
	Message string
}

func (m DebugMessage) String() string {
	return fmt.Sprintf("%s %s [%s] %s", m.Time.Format(time.TimeOnly), m.Level.CapitalString(), m.Source, m.Message)
}

// Ledger keeps the most recent debug messages of a window for overlays
// and tools.
type Ledger struct {
	mu   sync.Mutex
	max  int
	msgs []DebugMessage
}

// NewLedger returns a ledger holding at most max messages; max <= 0
// means 256.
func NewLedger(max int) *Ledger {
	if max <= 0 {
		max = 256
	}
	return &Ledger{max: max}
}

// Add appends m, dropping the oldest message when full.
func (l *Ledger) Add(m DebugMessage) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.msgs) == l.max {
		copy(l.msgs, l.msgs[1:])
		l.msgs = l.msgs[:len(l.msgs)-1]
	}
	l.msgs = append(l.msgs, m)
}

// Messages returns a copy of the ledger, oldest first.
func (l *Ledger) Messages() []DebugMessage {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]DebugMessage(nil), l.msgs...)
}

func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.msgs)
}

func (l *Ledger) Clear() {
	l.mu.Lock()
	l.msgs = l.msgs[:0]
	l.mu.Unlock()
}

// ledgerCore is a zap core that writes warnings and errors into a ledger,
// fields rendered after the message.
type ledgerCore struct {
	ledger *Ledger
	fields []zapcore.Field
}

func (c *ledgerCore) Enabled(l zapcore.Level) bool { return l >= zapcore.WarnLevel }

func (c *ledgerCore) With(fields []zapcore.Field) zapcore.Core {
	return &ledgerCore{ledger: c.ledger, fields: append(slices.Clip(c.fields), fields...)}
}

func (c *ledgerCore) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(e.Level) {
		return ce.AddCore(e, c)
	}
	return ce
}

func (c *ledgerCore) Write(e zapcore.Entry, fields []zapcore.Field) error {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range append(slices.Clip(c.fields), fields...) {
		f.AddTo(enc)
	}
	msg := e.Message
	for _, k := range slices.Sorted(maps.Keys(enc.Fields)) {
		msg += fmt.Sprintf(" %s=%v", k, enc.Fields[k])
	}
	c.ledger.Add(DebugMessage{Time: e.Time, Level: e.Level, Source: e.LoggerName, Message: msg})
	return nil
}

func (c *ledgerCore) Sync() error { return nil }

// Attach returns a child of log whose warnings and errors also land in
// the ledger.
func (l *Ledger) Attach(log *zap.Logger) *zap.Logger {
	return log.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, &ledgerCore{ledger: l})
	}))
}
