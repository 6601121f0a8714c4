package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ErrTooManyExtends is returned when extends names more than one URL.
var ErrTooManyExtends = errors.New("currently you can extend only from one url")

// Loader reads valhalla.yml files.
type Loader struct {
	log     *zap.SugaredLogger
	client  *http.Client
	resolve func(string) (string, error)
}

// Option configures a Loader.
type Option func(*Loader)

// WithHTTPClient sets the client used to fetch extends URLs. A nil client
// keeps http.DefaultClient.
func WithHTTPClient(c *http.Client) Option {
	return func(l *Loader) {
		if c != nil {
			l.client = c
		}
	}
}

// WithResolve sets the function expanding placeholders in extends URLs.
func WithResolve(fn func(string) (string, error)) Option {
	return func(l *Loader) {
		l.resolve = fn
	}
}

// NewLoader creates a Loader. Without WithResolve extends URLs are used
// verbatim.
func NewLoader(log *zap.SugaredLogger, opts ...Option) *Loader {
	l := &Loader{
		log:     log,
		client:  http.DefaultClient,
		resolve: func(s string) (string, error) { return s, nil },
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads, extends and builds the configuration at path.
func (l *Loader) Load(ctx context.Context, path string) (*Config, error) {
	l.log.Infof("Trying to load config from: %s", path)
	data, err := os.ReadFile(path)
	if err != nil {
		l.log.Errorf("No config found at path: %s error: %v", path, err)
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return l.LoadBytes(ctx, data)
}

// LoadBytes is Load for an already read document.
func (l *Loader) LoadBytes(ctx context.Context, data []byte) (*Config, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if doc == nil {
		doc = map[string]any{}
	}

	merged, err := l.extend(ctx, doc)
	if err != nil {
		return nil, err
	}

	out, err := yaml.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("encoding merged config: %w", err)
	}
	l.log.Infof("Loaded config:\n%s", strings.TrimRight(string(out), "\n"))

	var raw rawConfig
	if err := yaml.Unmarshal(out, &raw); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return build(l.log, &raw)
}

func (l *Loader) extend(ctx context.Context, doc map[string]any) (map[string]any, error) {
	urls, err := extendsURLs(doc["extends"])
	if err != nil {
		return nil, err
	}

	switch len(urls) {
	case 0:
		l.log.Info("There is nothing to extend")
		return doc, nil
	case 1:
		l.log.Info("There is one file to extend")
	default:
		l.log.Error("Currently you can extend only from one url!")
		return nil, ErrTooManyExtends
	}

	data, err := l.fetch(ctx, urls[0])
	if err != nil {
		return nil, err
	}

	var parent map[string]any
	if err := yaml.Unmarshal(data, &parent); err != nil {
		return nil, fmt.Errorf("parsing extended config from %s: %w", urls[0], err)
	}
	return Merge(parent, doc), nil
}

func (l *Loader) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	url, err := l.resolve(rawURL)
	if err != nil {
		return nil, fmt.Errorf("resolving extends url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request for %s: %w", rawURL, err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		l.log.Errorf("Error: Received status code %d from url: %s", resp.StatusCode, rawURL)
		return nil, fmt.Errorf("fetching %s: unexpected status code %d", rawURL, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", rawURL, err)
	}
	l.log.Infof("Loaded from URL:\n%s", strings.TrimRight(string(data), "\n"))
	return data, nil
}

func extendsURLs(v any) ([]string, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{t}, nil
	case []any:
		urls := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("extends entries must be strings, got %T", item)
			}
			urls = append(urls, s)
		}
		return urls, nil
	default:
		return nil, fmt.Errorf("extends must be a list of urls, got %T", v)
	}
}
