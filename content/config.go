package content

import (
	"strings"
	"time"
)

const (
	defaultTimeout        = 15 * time.Second
	defaultMaxConcurrency = 6
)

// Config identifies the repository that stores the blog and the credential
// used to reach it. It is resolved once at startup and never mutated.
type Config struct {
	Token  string // bearer token with contents read/write scope
	Owner  string // repository owner (user or organization)
	Repo   string // repository name
	Branch string // optional, defaults to the repository's default branch

	APIBaseURL     string        // default https://api.github.com
	Timeout        time.Duration // per request, default 15s
	MaxConcurrency int           // concurrent fetches while listing, default 6
}

func (c *Config) setDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.MaxConcurrency <= 0 {
		c.MaxConcurrency = defaultMaxConcurrency
	}
}

// Validate reports the required settings that are missing.
func (c Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.Token) == "" {
		missing = append(missing, "token")
	}
	if strings.TrimSpace(c.Owner) == "" {
		missing = append(missing, "owner")
	}
	if strings.TrimSpace(c.Repo) == "" {
		missing = append(missing, "repo")
	}
	if len(missing) > 0 {
		return &ConfigError{Missing: missing}
	}
	return nil
}
