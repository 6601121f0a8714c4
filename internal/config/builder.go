package config

import (
	"fmt"

	"go.uber.org/zap"
)

// MissingKeyError is returned when a required key is absent.
type MissingKeyError struct {
	Key string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("Missing required %s in valhalla.yml!", e.Key)
}

// build turns a raw document into a Config, applying defaults and
// checking required keys.
func build(log *zap.SugaredLogger, raw *rawConfig) (*Config, error) {
	cfg := &Config{
		Extends:   raw.Extends,
		GitHost:   deref(raw.GitHost, ""),
		Variables: raw.Variables,
	}
	if cfg.Variables == nil {
		cfg.Variables = map[string]string{}
	}
	if raw.Version != nil {
		cfg.Version.FromCommand = deref(raw.Version.FromCommand, "")
	}

	var err error
	if cfg.CommitBefore, err = buildCommit(log, "commit_before_release", raw.CommitBefore, DefaultCommitBeforeMsg); err != nil {
		return nil, err
	}
	if cfg.CommitAfter, err = buildCommit(log, "commit_after_release", raw.CommitAfter, DefaultCommitAfterMsg); err != nil {
		return nil, err
	}
	if cfg.Release, err = buildRelease(raw.Release); err != nil {
		return nil, err
	}
	if raw.Tag != nil {
		cfg.Tag.Name = deref(raw.Tag.Name, "")
	}
	cfg.MergeRequest = buildMergeRequest(log, raw.MergeRequest)

	return cfg, nil
}

func buildCommit(log *zap.SugaredLogger, key string, raw *rawCommit, defaultMsg string) (CommitConfig, error) {
	if raw == nil {
		log.Infof("%s not found in valhalla.yml, it is disabled", key)
		return CommitConfig{Msg: defaultMsg}, nil
	}
	if raw.Enabled == nil {
		return CommitConfig{}, &MissingKeyError{Key: key + ".enabled"}
	}

	return CommitConfig{
		Enabled:  boolValue(log, raw.Enabled, false),
		Username: deref(raw.Username, ""),
		Email:    deref(raw.Email, ""),
		Msg:      deref(raw.Msg, defaultMsg),
		Before:   raw.Before,
	}, nil
}

func buildRelease(raw *rawRelease) (ReleaseConfig, error) {
	var rc ReleaseConfig
	if raw == nil {
		return rc, nil
	}

	rc.Name = deref(raw.Name, "")
	rc.Milestones = raw.Milestones
	if raw.Description != nil {
		rc.DescriptionFromCommand = deref(raw.Description.FromCommand, "")
	}
	if raw.Assets == nil {
		return rc, nil
	}

	for i, link := range raw.Assets.Links {
		if link.Name == nil {
			return rc, &MissingKeyError{Key: fmt.Sprintf("release.assets.links[%d].name", i)}
		}
		if link.URL == nil {
			return rc, &MissingKeyError{Key: fmt.Sprintf("release.assets.links[%d].url", i)}
		}
		rc.Links = append(rc.Links, LinkConfig{
			Name:     *link.Name,
			URL:      *link.URL,
			LinkType: deref(link.LinkType, DefaultLinkType),
		})
	}
	rc.Files = raw.Assets.Files
	return rc, nil
}

func buildMergeRequest(log *zap.SugaredLogger, raw *rawMergeRequest) MergeRequestConfig {
	mr := MergeRequestConfig{
		Enabled:     true,
		Title:       DefaultMergeRequestTitle,
		Description: DefaultMergeRequestDescription,
		Reviewers:   []string{},
	}
	if raw == nil {
		return mr
	}

	mr.Enabled = boolValue(log, raw.Enabled, true)
	mr.TargetBranch = deref(raw.TargetBranch, "")
	mr.Title = deref(raw.Title, DefaultMergeRequestTitle)
	mr.Description = deref(raw.Description, DefaultMergeRequestDescription)
	if raw.Reviewers != nil {
		mr.Reviewers = raw.Reviewers
	}
	return mr
}

func boolValue(log *zap.SugaredLogger, b *Bool, fallback bool) bool {
	if b == nil {
		return fallback
	}
	if !b.Valid {
		log.Warnf("Could not parse boolean value for input: %s using False instead", b.Raw)
		return false
	}
	return b.Value
}

func deref(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}
