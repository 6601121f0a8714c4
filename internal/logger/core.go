package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap/zapcore"
)

// commentLineBreak forces a hard line break in markdown comment renderers.
const commentLineBreak = "  \n"

// mirrorCore masks the token, splits multi-line messages and mirrors
// warnings and errors to the attached Commenter. Mirroring ignores the
// console level, so WARN reaches the merge request even when only ERROR
// is printed.
type mirrorCore struct {
	zapcore.Core
	state *state
}

func (c *mirrorCore) With(fields []zapcore.Field) zapcore.Core {
	return &mirrorCore{Core: c.Core.With(fields), state: c.state}
}

func (c *mirrorCore) Enabled(lvl zapcore.Level) bool {
	return lvl >= zapcore.WarnLevel || c.Core.Enabled(lvl)
}

func (c *mirrorCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *mirrorCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	s := c.state

	s.mu.Lock()
	msg := s.mask(ent.Message)
	var commenter Commenter
	if ent.Level >= zapcore.WarnLevel && s.commenter != nil && !s.posting {
		commenter = s.commenter
		s.comments++
		s.posting = true
	}
	count, limit, exit := s.comments, s.limit, s.exit
	s.mu.Unlock()

	if err := c.writeLines(ent, msg, fields); err != nil {
		return err
	}
	if commenter == nil {
		return nil
	}

	defer func() {
		s.mu.Lock()
		s.posting = false
		s.mu.Unlock()
	}()

	if count > limit {
		final := fmt.Sprintf("Too many warnings and errors, the limit of %d merge request comments was reached. Valhalla stops here!", limit)
		_ = c.writeLines(zapcore.Entry{Level: zapcore.ErrorLevel, Time: ent.Time}, final, nil)
		exit(1)
		return nil
	}

	comment := strings.Join(strings.Split(msg, "\n"), commentLineBreak)
	if err := commenter.AddComment(comment); err != nil {
		s.mu.Lock()
		warning := s.mask(fmt.Sprintf("Could not add comment to merge request: %v", err))
		s.mu.Unlock()
		_ = c.writeLines(zapcore.Entry{Level: zapcore.WarnLevel, Time: ent.Time}, warning, nil)
	}
	return nil
}

func (c *mirrorCore) writeLines(ent zapcore.Entry, msg string, fields []zapcore.Field) error {
	if !c.Core.Enabled(ent.Level) {
		return nil
	}
	for _, line := range strings.Split(msg, "\n") {
		ent.Message = line
		if err := c.Core.Write(ent, fields); err != nil {
			return err
		}
	}
	return nil
}
