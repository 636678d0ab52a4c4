package model

import "time"

// Config holds all mapleads configuration
type Config struct {
	HTTP       HTTPConfig       `yaml:"http" mapstructure:"http"`
	Browser    BrowserConfig    `yaml:"browser" mapstructure:"browser"`
	Discovery  DiscoveryConfig  `yaml:"discovery" mapstructure:"discovery"`
	Processing ProcessingConfig `yaml:"processing" mapstructure:"processing"`
	Owner      OwnerConfig      `yaml:"owner" mapstructure:"owner"`
	LLM        LLMConfig        `yaml:"llm" mapstructure:"llm"`
	Verify     VerifyConfig     `yaml:"verify" mapstructure:"verify"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// HTTPConfig controls website fetching
type HTTPConfig struct {
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent         string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBytes          int64         `yaml:"max_bytes" mapstructure:"max_bytes"`
	RespectRobots     bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	InsecureTLS       bool          `yaml:"insecure_tls" mapstructure:"insecure_tls"` // Accept broken certificate chains
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"` // Per website domain
	Burst             int           `yaml:"burst" mapstructure:"burst"`
	HTTPProxy         string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy        string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy           string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// BrowserConfig controls the headless browser
type BrowserConfig struct {
	Headless     bool          `yaml:"headless" mapstructure:"headless"`
	ExecPath     string        `yaml:"exec_path,omitempty" mapstructure:"exec_path"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	Language     string        `yaml:"language" mapstructure:"language"`
	ReadyTimeout time.Duration `yaml:"ready_timeout" mapstructure:"ready_timeout"` // How long search anchors may take to appear
	PageTimeout  time.Duration `yaml:"page_timeout" mapstructure:"page_timeout"`   // Per listing page
	Selectors    Selectors     `yaml:"selectors" mapstructure:"selectors"`
}

// Selectors are the target-site CSS selectors. They drift; keep them in config.
type Selectors struct {
	SearchURL      string   `yaml:"search_url" mapstructure:"search_url"` // printf template, %s = escaped query
	ResultsFeed    string   `yaml:"results_feed" mapstructure:"results_feed"`
	ListingLink    string   `yaml:"listing_link" mapstructure:"listing_link"`
	PlaceHeading   string   `yaml:"place_heading" mapstructure:"place_heading"`
	Category       string   `yaml:"category" mapstructure:"category"`
	Address        string   `yaml:"address" mapstructure:"address"`
	Website        string   `yaml:"website" mapstructure:"website"`
	Phone          string   `yaml:"phone" mapstructure:"phone"`
	ConsentButtons []string `yaml:"consent_buttons" mapstructure:"consent_buttons"`
}

// DiscoveryConfig controls the scroll-based collector
type DiscoveryConfig struct {
	SettleInterval  time.Duration `yaml:"settle_interval" mapstructure:"settle_interval"`
	MaxNoProgress   int           `yaml:"max_no_progress" mapstructure:"max_no_progress"`
	MaxIterations   int           `yaml:"max_iterations" mapstructure:"max_iterations"`
	OverfetchFactor int           `yaml:"overfetch_factor" mapstructure:"overfetch_factor"` // Discovery budget = target * factor
	PhaseTemplates  []string      `yaml:"phase_templates" mapstructure:"phase_templates"`   // printf templates: term, area
}

// ProcessingConfig controls batch extraction
type ProcessingConfig struct {
	BatchSize       int `yaml:"batch_size" mapstructure:"batch_size"`
	WebsiteMaxPages int `yaml:"website_max_pages" mapstructure:"website_max_pages"`
}

// OwnerConfig controls the serialized AI owner-resolution queue
type OwnerConfig struct {
	InitialDelay      time.Duration `yaml:"initial_delay" mapstructure:"initial_delay"`
	RetryDelay        time.Duration `yaml:"retry_delay" mapstructure:"retry_delay"`
	RateLimitCooldown time.Duration `yaml:"rate_limit_cooldown" mapstructure:"rate_limit_cooldown"`
	CacheTTL          time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"`
	CacheDir          string        `yaml:"cache_dir,omitempty" mapstructure:"cache_dir"` // Empty = memory only
}

// LLMConfig selects and configures the AI provider
type LLMConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // openai, anthropic, gemini, ollama, "" (disabled)
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL   string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
	WebSearch bool   `yaml:"web_search" mapstructure:"web_search"`
}

// VerifyConfig configures the e-mail verification client
type VerifyConfig struct {
	BaseURL     string        `yaml:"base_url" mapstructure:"base_url"`
	APIKey      string        `yaml:"api_key,omitempty" mapstructure:"api_key"` // Static key; skips docs-page discovery
	DocsURL     string        `yaml:"docs_url" mapstructure:"docs_url"`
	KeySelector string        `yaml:"key_selector" mapstructure:"key_selector"`
	KeyPattern  string        `yaml:"key_pattern" mapstructure:"key_pattern"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MXPrecheck  bool          `yaml:"mx_precheck" mapstructure:"mx_precheck"`
	DNSServer   string        `yaml:"dns_server" mapstructure:"dns_server"`
	Concurrency int           `yaml:"concurrency" mapstructure:"concurrency"`
}

// LogConfig configures the zap logger
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // json or console
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:           15 * time.Second,
			UserAgent:         "Mozilla/5.0 (compatible; mapleads/0.1; +https://github.com/ppiankov/mapleads)",
			MaxBytes:          2_000_000,
			RespectRobots:     true,
			RequestsPerSecond: 1,
			Burst:             2,
		},
		Browser: BrowserConfig{
			Headless:     true,
			UserAgent:    "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
			Language:     "en",
			ReadyTimeout: 30 * time.Second,
			PageTimeout:  30 * time.Second,
			Selectors:    DefaultSelectors(),
		},
		Discovery: DiscoveryConfig{
			SettleInterval:  1500 * time.Millisecond,
			MaxNoProgress:   7,
			MaxIterations:   200,
			OverfetchFactor: 3,
			PhaseTemplates:  []string{"%s in %s", "%s near %s", "best %s in %s"},
		},
		Processing: ProcessingConfig{
			BatchSize:       4,
			WebsiteMaxPages: 4,
		},
		Owner: OwnerConfig{
			InitialDelay:      2 * time.Second,
			RetryDelay:        3 * time.Second,
			RateLimitCooldown: 5 * time.Second,
			CacheTTL:          24 * time.Hour,
		},
		LLM: LLMConfig{
			Provider:  "", // Disabled by default
			Timeout:   60,
			MaxTokens: 300,
			WebSearch: true,
		},
		Verify: VerifyConfig{
			BaseURL:     "", // Verification is disabled until a service is configured
			DocsURL:     "",
			KeySelector: "pre, code",
			KeyPattern:  `[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`,
			Timeout:     20 * time.Second,
			MXPrecheck:  true,
			DNSServer:   "8.8.8.8:53",
			Concurrency: 4,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// DefaultSelectors targets the Google Maps web UI
func DefaultSelectors() Selectors {
	return Selectors{
		SearchURL:    "https://www.google.com/maps/search/%s",
		ResultsFeed:  `div[role="feed"]`,
		ListingLink:  `a.hfpxzc`,
		PlaceHeading: `h1.DUwDvf`,
		Category:     `button.DkEaL`,
		Address:      `button[data-item-id="address"]`,
		Website:      `a[data-item-id="authority"]`,
		Phone:        `button[data-item-id^="phone:tel:"]`,
		ConsentButtons: []string{
			`button[aria-label="Accept all"]`,
			`button[aria-label="Reject all"]`,
			`form[action*="consent"] button`,
		},
	}
}
