// Package logger builds the zap logger used by every valhalla component.
//
// Lines are written as "[LEVEL] text", one line per message line. Once a
// token is registered it is masked in every message. A Commenter can be
// attached so that warnings and errors are mirrored to the merge request
// created for the release.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultCommentLimit is the number of mirrored comments allowed per run.
const DefaultCommentLimit = 50

// Commenter posts a comment to a merge request.
type Commenter interface {
	AddComment(comment string) error
}

// Logger wraps a SugaredLogger together with the per-run mirroring state.
type Logger struct {
	*zap.SugaredLogger
	state *state
}

// Option configures a Logger.
type Option func(*state)

// WithToken masks token in every logged message.
func WithToken(token string) Option {
	return func(s *state) { s.token = token }
}

// WithCommentLimit overrides the mirrored comment ceiling.
func WithCommentLimit(n int) Option {
	return func(s *state) { s.limit = n }
}

// WithExit sets the function invoked when the comment ceiling is exceeded.
func WithExit(exit func(code int)) Option {
	return func(s *state) { s.exit = exit }
}

// New creates a Logger writing to w at the given level
// (debug, info, warn, error).
func New(w io.Writer, level string, opts ...Option) (*Logger, error) {
	lvl := zapcore.InfoLevel
	if level != "" {
		parsed, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("parsing log level %q: %w", level, err)
		}
		lvl = parsed
	}

	s := &state{limit: DefaultCommentLimit, exit: os.Exit}
	for _, opt := range opts {
		opt(s)
	}

	inner := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig()), zapcore.AddSync(w), lvl)
	core := &mirrorCore{Core: inner, state: s}

	return &Logger{SugaredLogger: zap.New(core).Sugar(), state: s}, nil
}

// Nop returns a Logger that discards everything. Intended for tests.
func Nop() *Logger {
	s := &state{limit: DefaultCommentLimit, exit: func(int) {}}
	return &Logger{SugaredLogger: zap.NewNop().Sugar(), state: s}
}

// SetToken registers the secret to mask from now on.
func (l *Logger) SetToken(token string) {
	l.state.mu.Lock()
	defer l.state.mu.Unlock()
	l.state.token = token
}

// SetCommenter attaches the merge request that warnings and errors are
// mirrored to. Passing nil detaches it.
func (l *Logger) SetCommenter(c Commenter) {
	l.state.mu.Lock()
	defer l.state.mu.Unlock()
	l.state.commenter = c
}

// Comments returns how many comments were mirrored so far.
func (l *Logger) Comments() int {
	l.state.mu.Lock()
	defer l.state.mu.Unlock()
	return l.state.comments
}

// Mask replaces every occurrence of the registered token in msg.
func (l *Logger) Mask(msg string) string {
	l.state.mu.Lock()
	defer l.state.mu.Unlock()
	return l.state.mask(msg)
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		LevelKey:         "level",
		MessageKey:       "msg",
		EncodeLevel:      bracketLevelEncoder,
		ConsoleSeparator: " ",
	}
}

func bracketLevelEncoder(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + l.CapitalString() + "]")
}

type state struct {
	mu        sync.Mutex
	token     string
	commenter Commenter
	comments  int
	posting   bool
	limit     int
	exit      func(code int)
}

func (s *state) mask(msg string) string {
	if s.token == "" {
		return msg
	}
	return strings.ReplaceAll(msg, s.token, strings.Repeat("*", len(s.token)))
}
