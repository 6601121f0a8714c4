// Package resolver substitutes {PLACEHOLDER} tokens in configured strings.
//
// Substitution order is fixed: predefined variables first, then custom
// variables from valhalla.yml, then process environment variables.
// Placeholders that match nothing are left untouched.
package resolver

import (
	"errors"
	"os"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// ErrNotInitialized is returned by Resolve when Init was never called.
// The message keeps the wording users already search for.
var ErrNotInitialized = errors.New("There was no init_str_resolver(...) call in the code, so resolving strings does not work! " +
	"There is a bug in valhalla, please report it here: https://github.com/logchange/valhalla/issues")

var (
	majorPattern = regexp.MustCompile(`^(\d+)`)
	minorPattern = regexp.MustCompile(`^\d+\.(\d+)`)
	patchPattern = regexp.MustCompile(`^\d+\.\d+\.(\d+)`)
	slugCleaner  = regexp.MustCompile(`[^a-zA-Z0-9]+`)
)

// Resolver holds the substitution state of one run.
type Resolver struct {
	log     *zap.SugaredLogger
	environ func() []string

	initialized bool
	token       string
	author      string

	version string
	major   string
	minor   string
	patch   string
	slug    string

	custom map[string]string
}

// New creates a Resolver that reads environment variables from os.Environ.
func New(log *zap.SugaredLogger) *Resolver {
	return &Resolver{
		log:     log,
		environ: os.Environ,
		custom:  make(map[string]string),
	}
}

// Init sets the base identity variables. It must be called before Resolve.
func (r *Resolver) Init(token, author string) {
	r.token = token
	r.author = author
	r.initialized = true
}

// SetVersion stores the version and derives MAJOR, MINOR, PATCH and SLUG.
// A component that cannot be derived is logged and left empty.
func (r *Resolver) SetVersion(version string) {
	r.version = version
	r.major = r.component("VERSION_MAJOR", majorPattern, version)
	r.minor = r.component("VERSION_MINOR", minorPattern, version)
	r.patch = r.component("VERSION_PATCH", patchPattern, version)
	r.slug = Slug(version)
}

// SetCustomVariables merges variables into the custom variable table.
// Later registrations overwrite earlier ones with the same name.
func (r *Resolver) SetCustomVariables(vars map[string]string) {
	for name, value := range vars {
		r.log.Infof("Adding custom variable %s with value: %s", name, value)
		r.custom[name] = value
	}
}

// Version returns the version currently stored.
func (r *Resolver) Version() string {
	return r.version
}

// Resolve substitutes every known placeholder in s.
func (r *Resolver) Resolve(s string) (string, error) {
	if !r.initialized {
		r.log.Error(ErrNotInitialized.Error())
		return "", ErrNotInitialized
	}

	for _, v := range r.predefined() {
		s = strings.ReplaceAll(s, "{"+v.name+"}", v.value)
	}
	names := make([]string, 0, len(r.custom))
	for name := range r.custom {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		s = strings.ReplaceAll(s, "{"+name+"}", r.custom[name])
	}
	for _, kv := range r.environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			continue
		}
		s = strings.ReplaceAll(s, "{"+name+"}", value)
	}

	r.log.Infof("String resolving output: %s", s)
	return s, nil
}

// ResolveAll resolves every string in ss, keeping order.
func (r *Resolver) ResolveAll(ss []string) ([]string, error) {
	out := make([]string, 0, len(ss))
	for _, s := range ss {
		resolved, err := r.Resolve(s)
		if err != nil {
			return nil, err
		}
		out = append(out, resolved)
	}
	return out, nil
}

// Slug lower-cases version and folds every run of non-alphanumeric
// characters into a single '-', trimming '-' at both ends.
func Slug(version string) string {
	slug := slugCleaner.ReplaceAllString(version, "-")
	return strings.Trim(strings.ToLower(slug), "-")
}

type variable struct {
	name  string
	value string
}

func (r *Resolver) predefined() []variable {
	return []variable{
		{"VERSION", r.version},
		{"VERSION_MAJOR", r.major},
		{"VERSION_MINOR", r.minor},
		{"VERSION_PATCH", r.patch},
		{"VERSION_SLUG", r.slug},
		{"VALHALLA_TOKEN", r.token},
		{"AUTHOR", r.author},
	}
}

func (r *Resolver) component(name string, pattern *regexp.Regexp, version string) string {
	m := pattern.FindStringSubmatch(version)
	if m == nil {
		r.log.Warnf("Could not extract %s from version %q, {%s} will be empty", name, version, name)
		return ""
	}
	return m[1]
}
