package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	Database   DatabaseConfig   `yaml:"database"`
	Schedule   ScheduleConfig   `yaml:"schedule"`
	Fetch      FetchConfig      `yaml:"fetch"`
	Sources    []SourceConfig   `yaml:"sources"`
	Categories []CategoryConfig `yaml:"categories"`
	Priority   []TierConfig     `yaml:"priority"`
	Relevance  RelevanceConfig  `yaml:"relevance"`
	Selection  SelectionConfig  `yaml:"selection"`
	Retention  RetentionConfig  `yaml:"retention"`
	Server     ServerConfig     `yaml:"server"`
}

// DatabaseConfig configures SQLite storage.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ScheduleConfig configures the daemon collection interval.
type ScheduleConfig struct {
	CollectInterval string `yaml:"collect_interval"`
}

// ParseCollectInterval returns the collect interval as time.Duration.
func (s ScheduleConfig) ParseCollectInterval() time.Duration {
	d, err := time.ParseDuration(s.CollectInterval)
	if err != nil {
		return 2 * time.Hour
	}
	return d
}

// FetchConfig configures feed retrieval.
type FetchConfig struct {
	Timeout        string `yaml:"timeout"`         // per-request timeout
	Pace           string `yaml:"pace"`            // minimum delay between endpoint requests
	MaxConcurrency int    `yaml:"max_concurrency"` // sources fetched in parallel
}

// ParseTimeout returns the per-request timeout as time.Duration.
func (f FetchConfig) ParseTimeout() time.Duration {
	d, err := time.ParseDuration(f.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// ParsePace returns the inter-request pacing as time.Duration.
func (f FetchConfig) ParsePace() time.Duration {
	d, err := time.ParseDuration(f.Pace)
	if err != nil {
		return time.Second
	}
	return d
}

// SourceConfig maps a source name to its feed endpoint URLs.
type SourceConfig struct {
	Name  string   `yaml:"name"`
	Feeds []string `yaml:"feeds"`
}

// CategoryConfig is one topic label with its keyword list. Categories are a
// list, not a map: declaration order breaks classification ties.
type CategoryConfig struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// TierConfig is one weighted priority-keyword tier.
type TierConfig struct {
	Name     string   `yaml:"name"`
	Weight   int      `yaml:"weight"`
	Keywords []string `yaml:"keywords"`
}

// RelevanceConfig holds the regional-relevance and exclusion keyword lists.
type RelevanceConfig struct {
	Regional []string `yaml:"regional"`
	Exclude  []string `yaml:"exclude"`
}

// SelectionConfig tunes the story selector.
type SelectionConfig struct {
	WindowHours    int `yaml:"window_hours"`
	StoryCount     int `yaml:"story_count"`
	CandidateLimit int `yaml:"candidate_limit"`
}

// RetentionConfig tunes the purge of old, never-posted articles.
type RetentionConfig struct {
	Days int `yaml:"days"`
}

// ServerConfig configures the HTTP status API.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// Default returns a Config with the stock US-news sources and keyword tables.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "./newsdesk.db"},
		Schedule: ScheduleConfig{CollectInterval: "2h"},
		Fetch: FetchConfig{
			Timeout:        "30s",
			Pace:           "1s",
			MaxConcurrency: 4,
		},
		Sources: []SourceConfig{
			{Name: "CNN", Feeds: []string{
				"http://rss.cnn.com/rss/cnn_topstories.rss",
				"http://rss.cnn.com/rss/cnn_allpolitics.rss",
				"http://rss.cnn.com/rss/money_latest.rss",
			}},
			{Name: "NBC News", Feeds: []string{
				"https://feeds.nbcnews.com/nbcnews/public/news",
				"https://feeds.nbcnews.com/nbcnews/public/politics",
			}},
			{Name: "Fox News", Feeds: []string{
				"https://moxie.foxnews.com/google-publisher/latest.xml",
				"https://moxie.foxnews.com/google-publisher/politics.xml",
			}},
			{Name: "Associated Press", Feeds: []string{
				"https://feeds.apnews.com/rss/apf-topnews",
				"https://feeds.apnews.com/rss/apf-usnews",
			}},
			{Name: "New York Times", Feeds: []string{
				"https://rss.nytimes.com/services/xml/rss/nyt/HomePage.xml",
				"https://rss.nytimes.com/services/xml/rss/nyt/Politics.xml",
			}},
			{Name: "Politico", Feeds: []string{
				"https://www.politico.com/rss/politicopicks.xml",
				"https://www.politico.com/rss/congress.xml",
			}},
		},
		Categories: []CategoryConfig{
			{Name: "Politics", Keywords: []string{
				"president", "congress", "senate", "election", "vote", "bill", "law",
				"politics", "biden", "trump", "governor", "democrat", "republican",
			}},
			{Name: "Economy", Keywords: []string{
				"economy", "inflation", "stock", "market", "fed", "federal reserve",
				"unemployment", "jobs", "gdp", "recession", "trade",
			}},
			{Name: "Technology", Keywords: []string{
				"tech", "technology", "ai", "artificial intelligence", "apple", "google",
				"meta", "tesla", "space", "nasa", "innovation",
			}},
			{Name: "Sports", Keywords: []string{
				"nfl", "nba", "mlb", "nhl", "super bowl", "world series", "olympics",
				"sports", "game", "championship",
			}},
			{Name: "Justice", Keywords: []string{
				"crime", "shooting", "court", "supreme court", "justice", "police",
				"trial", "verdict", "fbi", "investigation",
			}},
			{Name: "International", Keywords: []string{
				"war", "russia", "china", "ukraine", "nato", "military", "conflict",
				"foreign policy", "diplomacy",
			}},
			{Name: "Health", Keywords: []string{
				"health", "covid", "pandemic", "vaccine", "hospital", "medical",
			}},
			{Name: "Environment", Keywords: []string{
				"climate", "weather", "hurricane", "wildfire", "earthquake", "flood",
				"environment", "epa",
			}},
		},
		Priority: []TierConfig{
			{Name: "critical", Weight: 10, Keywords: []string{
				"president", "biden", "trump", "white house", "congress", "senate",
				"supreme court", "election", "vote", "pentagon", "war", "russia",
				"china", "nuclear", "terrorism", "shooting", "bomb", "coup",
			}},
			{Name: "high", Weight: 7, Keywords: []string{
				"economy", "inflation", "federal reserve", "stock market", "unemployment",
				"gas prices", "nato", "military", "fbi", "justice department", "governor",
				"mayor", "law", "bill", "impeach", "investigation",
			}},
			{Name: "medium", Weight: 5, Keywords: []string{
				"sports", "nfl", "nba", "super bowl", "olympics", "technology", "apple",
				"google", "meta", "tesla", "space", "nasa", "health", "covid", "weather",
				"hurricane", "earthquake", "wildfire",
			}},
		},
		Relevance: RelevanceConfig{
			Regional: []string{
				"usa", "u.s.", "united states", "america", "american", "washington", "new york",
				"california", "texas", "florida", "biden", "trump", "congress", "senate", "house",
				"governor", "mayor", "state", "federal", "fbi", "cia", "pentagon", "white house",
			},
			Exclude: []string{
				"kardashian", "celebrity", "hollywood", "gossip", "dating", "relationship",
				"instagram model", "tiktok", "viral video", "meme", "horoscope", "zodiac",
				"quiz", "sponsored", "advertisement",
			},
		},
		Selection: SelectionConfig{
			WindowHours:    24,
			StoryCount:     5,
			CandidateLimit: 50,
		},
		Retention: RetentionConfig{Days: 7},
		Server:    ServerConfig{Port: 8080},
	}
}

// Load reads configuration from a YAML file and applies env var overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides overrides config values with environment variables.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("NEWSDESK_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("NEWSDESK_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
}
