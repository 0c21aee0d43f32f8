package stream

import (
	"net/url"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/chazu/kestrel/config"
)

// ErrDenied is returned for URLs the sandbox rejects.
var ErrDenied = errors.New("access denied by sandbox")

// Sandbox decides which URLs movies may open.
type Sandbox struct {
	// LocalOnly forbids every network URL.
	LocalOnly bool
	// LocalRoots, when set, are the only directories local files may be
	// read from.
	LocalRoots []string
	// Whitelist, when set, lists the only hosts network URLs may name.
	// A entry also matches its subdomains.
	Whitelist []string
	// Blacklist lists hosts that are always refused. It wins over the
	// whitelist.
	Blacklist []string
}

// SandboxFromConfig builds a Sandbox from the [sandbox] section, with
// local roots resolved against the config directory.
func SandboxFromConfig(c *config.Config) Sandbox {
	return Sandbox{
		LocalOnly:  c.Sandbox.LocalOnly,
		LocalRoots: c.LocalRootPaths(),
		Whitelist:  c.Sandbox.Whitelist,
		Blacklist:  c.Sandbox.Blacklist,
	}
}

// AllowHost checks a network host against the lists.
func (s Sandbox) AllowHost(host string) error {
	if s.LocalOnly {
		return errors.Wrapf(ErrDenied, "network access to %s in local-only mode", host)
	}
	host = strings.ToLower(host)
	for _, h := range s.Blacklist {
		if hostMatches(host, h) {
			return errors.Wrapf(ErrDenied, "host %s is blacklisted", host)
		}
	}
	if len(s.Whitelist) == 0 {
		return nil
	}
	for _, h := range s.Whitelist {
		if hostMatches(host, h) {
			return nil
		}
	}
	return errors.Wrapf(ErrDenied, "host %s is not whitelisted", host)
}

func hostMatches(host, pattern string) bool {
	pattern = strings.ToLower(strings.TrimPrefix(pattern, "."))
	return host == pattern || strings.HasSuffix(host, "."+pattern)
}

// AllowPath checks a local file path against the local roots.
func (s Sandbox) AllowPath(path string) error {
	if len(s.LocalRoots) == 0 {
		return nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrapf(err, "resolving %s", path)
	}
	for _, root := range s.LocalRoots {
		rel, err := filepath.Rel(root, abs)
		if err != nil {
			continue
		}
		if rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))) {
			return nil
		}
	}
	return errors.Wrapf(ErrDenied, "%s is outside the local roots", path)
}

// Allow checks a parsed URL.
func (s Sandbox) Allow(u *url.URL) error {
	switch u.Scheme {
	case "", "file":
		return s.AllowPath(u.Path)
	case "http", "https":
		return s.AllowHost(u.Hostname())
	}
	return errors.Wrapf(ErrDenied, "unsupported scheme %q", u.Scheme)
}
