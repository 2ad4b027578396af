package logger

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

const humanTimeLayout = "2006/01/02 15:04:05"

// NewHumanTextHandler returns a slog handler producing entries like the
// standard log package: an optional timestamp, the level, the message and
// key=value attributes.
func NewHumanTextHandler(w io.Writer, opts *slog.HandlerOptions,
	logTime bool,
) *HumanTextHandler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	self := &HumanTextHandler{
		logTime: logTime,
		w:       w,
		b:       new(bytes.Buffer),
		opts:    *opts,
		mu:      new(sync.Mutex),
	}
	return self.init()
}

type HumanTextHandler struct {
	logTime bool
	w       io.Writer

	b    *bytes.Buffer
	h    slog.Handler
	opts slog.HandlerOptions

	mu *sync.Mutex
}

var _ slog.Handler = (*HumanTextHandler)(nil)

func (self *HumanTextHandler) init() *HumanTextHandler {
	opts := self.opts
	opts.ReplaceAttr = self.replace
	self.h = slog.NewTextHandler(self.b, &opts)
	return self
}

// replace drops the attrs rendered by the human prefix and delegates the
// rest to the configured ReplaceAttr.
func (self *HumanTextHandler) replace(groups []string, a slog.Attr) slog.Attr {
	if len(groups) == 0 {
		switch a.Key {
		case slog.TimeKey, slog.LevelKey, slog.MessageKey:
			return slog.Attr{}
		}
	}
	if self.opts.ReplaceAttr != nil {
		return self.opts.ReplaceAttr(groups, a)
	}
	return a
}

func (self *HumanTextHandler) Enabled(ctx context.Context, level slog.Level,
) bool {
	return self.h.Enabled(ctx, level)
}

func (self *HumanTextHandler) Handle(ctx context.Context, r slog.Record) error {
	self.mu.Lock()
	defer func() {
		self.b.Reset()
		self.mu.Unlock()
	}()

	if self.logTime && !r.Time.IsZero() {
		self.b.WriteString(r.Time.Format(humanTimeLayout))
		self.b.WriteByte(' ')
	}
	self.b.WriteString(r.Level.String())
	self.b.WriteByte(' ')
	self.b.WriteString(r.Message)
	self.b.WriteByte(' ')

	if err := self.h.Handle(ctx, r); err != nil {
		return fmt.Errorf("logger: failed slog handler: %w", err)
	}

	// Discard trailing '\n' added by slog.TextHandler, and the trailing ' '
	// of the prefix when the record has no attrs.
	b := bytes.TrimRight(self.b.Bytes(), " \n")
	self.b.Truncate(len(b))

	self.b.WriteByte('\n')
	if _, err := self.b.WriteTo(self.w); err != nil {
		return fmt.Errorf("logger: failed write formatted entry: %w", err)
	}
	return nil
}

func (self *HumanTextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h := *self
	h.h = self.h.WithAttrs(attrs)
	return &h
}

func (self *HumanTextHandler) WithGroup(name string) slog.Handler {
	h := *self
	h.h = self.h.WithGroup(name)
	return &h
}
