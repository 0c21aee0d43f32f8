// Package stream opens the URLs movies ask for: local files and
// http(s) resources, checked against a sandbox, with fetched network
// bodies kept in an expiring cache.
package stream

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	cache "github.com/go-pkgz/expirable-cache/v3"
	"github.com/pkg/errors"
	"github.com/tliron/commonlog"

	"github.com/chazu/kestrel/config"
)

var log = commonlog.GetLogger("kestrel.stream")

// Default cache settings, used when the configuration leaves them out.
const (
	DefaultCacheTTL   = 5 * time.Minute
	DefaultMaxEntries = 64
)

// Provider fetches URLs. It is safe for concurrent use.
type Provider struct {
	sandbox Sandbox
	client  *http.Client
	bodies  cache.Cache[string, []byte]
}

// New creates a Provider. A ttl or maxEntries of zero uses the default.
func New(sb Sandbox, client *http.Client, ttl time.Duration, maxEntries int) *Provider {
	if client == nil {
		client = http.DefaultClient
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Provider{
		sandbox: sb,
		client:  client,
		bodies:  cache.NewCache[string, []byte]().WithTTL(ttl).WithMaxKeys(maxEntries).WithLRU(),
	}
}

// FromConfig creates a Provider from the [sandbox] and [cache] sections.
func FromConfig(c *config.Config) *Provider {
	return New(SandboxFromConfig(c), nil, c.Cache.TTL, c.Cache.MaxEntries)
}

// Sandbox returns the provider's sandbox.
func (p *Provider) Sandbox() Sandbox { return p.sandbox }

// GetStream opens rawURL. Bare paths and file: URLs are read from disk;
// http and https URLs are fetched with a POST when postData is set and a
// GET otherwise. GET bodies are cached.
func (p *Provider) GetStream(ctx context.Context, rawURL string, postData []byte, headers map[string]string) (io.ReadCloser, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing URL %q", rawURL)
	}
	if err := p.sandbox.Allow(u); err != nil {
		log.Warningf("refused %s: %s", rawURL, err)
		return nil, err
	}

	switch u.Scheme {
	case "", "file":
		f, err := os.Open(u.Path)
		if err != nil {
			return nil, errors.Wrapf(err, "opening %s", u.Path)
		}
		return f, nil
	}

	if postData == nil {
		if body, ok := p.bodies.Get(rawURL); ok {
			log.Debugf("cache hit for %s", rawURL)
			return io.NopCloser(bytes.NewReader(body)), nil
		}
	}
	body, err := p.fetch(ctx, rawURL, postData, headers)
	if err != nil {
		return nil, err
	}
	if postData == nil {
		p.bodies.Set(rawURL, body, 0)
	}
	return io.NopCloser(bytes.NewReader(body)), nil
}

func (p *Provider) fetch(ctx context.Context, rawURL string, postData []byte, headers map[string]string) ([]byte, error) {
	method := http.MethodGet
	var reqBody io.Reader
	if postData != nil {
		method = http.MethodPost
		reqBody = bytes.NewReader(postData)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, reqBody)
	if err != nil {
		return nil, errors.Wrapf(err, "building request for %s", rawURL)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "fetching %s", rawURL)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("fetching %s: %s", rawURL, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", rawURL)
	}
	log.Debugf("fetched %s (%d bytes)", rawURL, len(body))
	return body, nil
}

// Invalidate drops a cached body.
func (p *Provider) Invalidate(rawURL string) { p.bodies.Invalidate(rawURL) }

// Purge drops every cached body.
func (p *Provider) Purge() { p.bodies.Purge() }

// CacheLen returns the number of cached bodies.
func (p *Provider) CacheLen() int { return p.bodies.Len() }
