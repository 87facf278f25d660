package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/evgsol/tradescope/pkg/catalog"
)

// Config holds the collector configuration. Every field has a working
// default, so an absent or empty config file is fully usable.
type Config struct {
	Communities   []string            `yaml:"communities"`
	ArtistAliases map[string][]string `yaml:"artist_aliases"`
	TradeKeywords []string            `yaml:"trade_keywords"`

	Feed struct {
		AuthURL   string        `yaml:"auth_url"`
		BaseURL   string        `yaml:"base_url"`
		LinkBase  string        `yaml:"link_base"`
		UserAgent string        `yaml:"user_agent"`
		PageSize  int           `yaml:"page_size"`
		Timeout   time.Duration `yaml:"timeout"`
		Throttle  time.Duration `yaml:"throttle"`
	} `yaml:"feed"`

	Serp struct {
		BaseURL string        `yaml:"base_url"`
		Site    string        `yaml:"site"`
		Results int           `yaml:"results"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"serp"`

	Retry struct {
		Attempts int           `yaml:"attempts"`
		Initial  time.Duration `yaml:"initial"`
		MaxDelay time.Duration `yaml:"max_delay"`
	} `yaml:"retry"`
}

// Load reads configuration from a YAML file. Empty path returns defaults.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // file path comes from CLI flag
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		// expand environment variables
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg.setDefaults()
	return &cfg, nil
}

func (c *Config) setDefaults() {
	if len(c.Communities) == 0 {
		c.Communities = catalog.Communities
	}
	if c.ArtistAliases == nil {
		c.ArtistAliases = catalog.ArtistAliases
	}
	if len(c.TradeKeywords) == 0 {
		c.TradeKeywords = catalog.TradeKeywords
	}

	if c.Feed.AuthURL == "" {
		c.Feed.AuthURL = "https://www.reddit.com/api/v1/access_token"
	}
	if c.Feed.BaseURL == "" {
		c.Feed.BaseURL = "https://oauth.reddit.com"
	}
	if c.Feed.LinkBase == "" {
		c.Feed.LinkBase = "https://reddit.com"
	}
	if c.Feed.UserAgent == "" {
		c.Feed.UserAgent = "tradescope/1.0 (kpop trade collector)"
	}
	if c.Feed.PageSize == 0 {
		c.Feed.PageSize = 100
	}
	if c.Feed.Timeout == 0 {
		c.Feed.Timeout = 30 * time.Second
	}
	if c.Feed.Throttle == 0 {
		c.Feed.Throttle = time.Second
	}

	if c.Serp.BaseURL == "" {
		c.Serp.BaseURL = "https://serpapi.com/search"
	}
	if c.Serp.Site == "" {
		c.Serp.Site = "reddit.com"
	}
	if c.Serp.Results == 0 {
		c.Serp.Results = 10
	}
	if c.Serp.Timeout == 0 {
		c.Serp.Timeout = 30 * time.Second
	}

	if c.Retry.Attempts == 0 {
		c.Retry.Attempts = 3
	}
	if c.Retry.Initial == 0 {
		c.Retry.Initial = 2 * time.Second
	}
	if c.Retry.MaxDelay == 0 {
		c.Retry.MaxDelay = 10 * time.Second
	}
}
