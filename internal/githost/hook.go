package githost

import "go.uber.org/zap"

// MergeRequestHook posts comments to a created merge request. A hook
// without a comment function belongs to a merge request that was not
// created and ignores comments.
type MergeRequestHook struct {
	// ID is the merge request number, empty if none was created.
	ID      string
	log     *zap.SugaredLogger
	comment func(text string) error
}

// NewMergeRequestHook creates a hook for merge request id.
func NewMergeRequestHook(log *zap.SugaredLogger, id string, comment func(text string) error) *MergeRequestHook {
	return &MergeRequestHook{ID: id, log: log, comment: comment}
}

// Skip returns a hook that ignores comments.
func Skip(log *zap.SugaredLogger) *MergeRequestHook {
	return &MergeRequestHook{log: log}
}

// Created reports whether a merge request exists behind the hook.
func (h *MergeRequestHook) Created() bool {
	return h.ID != ""
}

// AddComment posts text, or does nothing for a skipped hook.
func (h *MergeRequestHook) AddComment(text string) error {
	if h.comment == nil {
		h.log.Debugf("No merge request to comment on, skipping: %s", text)
		return nil
	}
	return h.comment(text)
}
