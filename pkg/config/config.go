package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultHomeURL    = "https://linux.do/"
	DefaultConnectURL = "https://connect.linux.do/"
)

type Config struct {
	Site     SiteConfig    `yaml:"site"`
	Browser  BrowserConfig `yaml:"browser"`
	Stealth  StealthConfig `yaml:"stealth"`
	Browse   BrowseConfig  `yaml:"browse"`
	Retry    RetryConfig   `yaml:"retry"`
	Logging  LoggingConfig `yaml:"logging"`
	Accounts []Credential  `yaml:"-"`
}

type SiteConfig struct {
	HomeURL    string          `yaml:"home_url"`
	ConnectURL string          `yaml:"connect_url"`
	Selectors  SelectorsConfig `yaml:"selectors"`
}

// SelectorsConfig holds the forum DOM selectors. These follow the Discourse
// markup and are the first thing to update when the site layout changes.
type SelectorsConfig struct {
	LoginButton  string `yaml:"login_button"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	Submit       string `yaml:"submit"`
	CurrentUser  string `yaml:"current_user"`
	TopicLinks   string `yaml:"topic_links"`
	LikeButton   string `yaml:"like_button"`
	ConnectRows  string `yaml:"connect_rows"`
	ConnectCells string `yaml:"connect_cells"`
}

type BrowserConfig struct {
	Headless          bool          `yaml:"headless"`
	Bin               string        `yaml:"bin"`
	NoSandbox         bool          `yaml:"no_sandbox"`
	Stealth           bool          `yaml:"stealth"`
	RandomizeViewport bool          `yaml:"randomize_viewport"`
	LaunchTimeout     time.Duration `yaml:"launch_timeout"`
	ElementTimeout    time.Duration `yaml:"element_timeout"`
}

type StealthConfig struct {
	Timing    TimingConfig    `yaml:"timing"`
	Scrolling ScrollingConfig `yaml:"scrolling"`
	Typing    TypingConfig    `yaml:"typing"`
	Mouse     MouseConfig     `yaml:"mouse"`
}

type TimingConfig struct {
	LoginStepPause time.Duration `yaml:"login_step_pause"`
	LoginSettle    time.Duration `yaml:"login_settle"`
	MinScrollPause time.Duration `yaml:"min_scroll_pause"`
	MaxScrollPause time.Duration `yaml:"max_scroll_pause"`
	MinLikePause   time.Duration `yaml:"min_like_pause"`
	MaxLikePause   time.Duration `yaml:"max_like_pause"`
	MinUserDelay   time.Duration `yaml:"min_user_delay"`
	MaxUserDelay   time.Duration `yaml:"max_user_delay"`
}

type ScrollingConfig struct {
	MinDistance     int           `yaml:"min_distance"`
	MaxDistance     int           `yaml:"max_distance"`
	SmoothScrolling bool          `yaml:"smooth_scrolling"`
	StepDelay       time.Duration `yaml:"step_delay"`
}

type TypingConfig struct {
	Enabled          bool          `yaml:"enabled"`
	MinKeyDelay      time.Duration `yaml:"min_key_delay"`
	MaxKeyDelay      time.Duration `yaml:"max_key_delay"`
	TypoChance       float64       `yaml:"typo_chance"`
	CorrectionDelay  time.Duration `yaml:"correction_delay"`
	ThinkPauseChance float64       `yaml:"think_pause_chance"`
}

// MouseConfig controls the cursor path drawn before each click. Speeds are
// in pixels per second.
type MouseConfig struct {
	Enabled    bool    `yaml:"enabled"`
	MinSpeed   float64 `yaml:"min_speed"`
	MaxSpeed   float64 `yaml:"max_speed"`
	Overshoot  bool    `yaml:"overshoot"`
	Jitter     bool    `yaml:"jitter"`
	Complexity int     `yaml:"complexity"`
}

type BrowseConfig struct {
	MaxScrolls       int     `yaml:"max_scrolls"`
	LikeChance       float64 `yaml:"like_chance"`
	RandomExitChance float64 `yaml:"random_exit_chance"`
}

type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	Delay       time.Duration `yaml:"delay"`
}

type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	OutputFile string `yaml:"output_file"`
}

func DefaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			HomeURL:    DefaultHomeURL,
			ConnectURL: DefaultConnectURL,
			Selectors: SelectorsConfig{
				LoginButton:  ".login-button .d-button-label",
				Username:     "#login-account-name",
				Password:     "#login-account-password",
				Submit:       "#login-button",
				CurrentUser:  "#current-user",
				TopicLinks:   "#list-area .title",
				LikeButton:   `.discourse-reactions-reaction-button[title="点赞此帖子"]`,
				ConnectRows:  "table tr",
				ConnectCells: "td",
			},
		},
		Browser: BrowserConfig{
			Headless:          true,
			Stealth:           true,
			RandomizeViewport: true,
			LaunchTimeout:     30 * time.Second,
			ElementTimeout:    30 * time.Second,
		},
		Stealth: StealthConfig{
			Timing: TimingConfig{
				LoginStepPause: 2 * time.Second,
				LoginSettle:    10 * time.Second,
				MinScrollPause: 2 * time.Second,
				MaxScrollPause: 4 * time.Second,
				MinLikePause:   1 * time.Second,
				MaxLikePause:   2 * time.Second,
				MinUserDelay:   5 * time.Second,
				MaxUserDelay:   10 * time.Second,
			},
			Scrolling: ScrollingConfig{
				MinDistance:     550,
				MaxDistance:     650,
				SmoothScrolling: false,
				StepDelay:       15 * time.Millisecond,
			},
			Typing: TypingConfig{
				Enabled:          false,
				MinKeyDelay:      50 * time.Millisecond,
				MaxKeyDelay:      150 * time.Millisecond,
				TypoChance:       0.02,
				CorrectionDelay:  300 * time.Millisecond,
				ThinkPauseChance: 0.05,
			},
			Mouse: MouseConfig{
				Enabled:    false,
				MinSpeed:   800,
				MaxSpeed:   1600,
				Overshoot:  true,
				Jitter:     true,
				Complexity: 2,
			},
		},
		Browse: BrowseConfig{
			MaxScrolls:       10,
			LikeChance:       0.3,
			RandomExitChance: 0.03,
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			Delay:       1 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds the configuration: defaults, then the optional YAML file, then
// .env and process environment overrides. Accounts are read from the
// environment exactly once here.
func Load(configPath string) (*Config, error) {
	config := DefaultConfig()

	// A missing .env is the common case.
	_ = godotenv.Load(".env")

	if configPath == "" {
		configPath = os.Getenv("CONFIG_PATH")
	}

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		switch ext := filepath.Ext(configPath); ext {
		case ".yaml", ".yml":
			if err := yaml.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse YAML config: %w", err)
			}
		default:
			return nil, fmt.Errorf("unsupported config file format: %s", ext)
		}
	}

	config.applyEnvOverrides(os.LookupEnv)
	config.Accounts = LoadCredentials(os.LookupEnv)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) applyEnvOverrides(lookup LookupFunc) {
	if headless, ok := lookup("BROWSER_HEADLESS"); ok && headless == "false" {
		c.Browser.Headless = false
	}
	if bin, ok := lookup("BROWSER_BIN"); ok && bin != "" {
		c.Browser.Bin = bin
	}
	if level, ok := lookup("LOG_LEVEL"); ok && level != "" {
		c.Logging.Level = level
	}
	if format, ok := lookup("LOG_FORMAT"); ok && format != "" {
		c.Logging.Format = format
	}
	if home, ok := lookup("LINUXDO_HOME_URL"); ok && home != "" {
		c.Site.HomeURL = home
	}
	if connect, ok := lookup("LINUXDO_CONNECT_URL"); ok && connect != "" {
		c.Site.ConnectURL = connect
	}
}

func (c *Config) Validate() error {
	if c.Site.HomeURL == "" {
		return fmt.Errorf("home URL is required")
	}
	if c.Site.ConnectURL == "" {
		return fmt.Errorf("connect URL is required")
	}
	if c.Browse.MaxScrolls < 1 {
		return fmt.Errorf("max scrolls must be at least 1")
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry max attempts must be at least 1")
	}
	if c.Stealth.Scrolling.MinDistance <= 0 || c.Stealth.Scrolling.MaxDistance < c.Stealth.Scrolling.MinDistance {
		return fmt.Errorf("invalid scroll distance range %d-%d",
			c.Stealth.Scrolling.MinDistance, c.Stealth.Scrolling.MaxDistance)
	}
	for name, p := range map[string]float64{
		"like chance":        c.Browse.LikeChance,
		"random exit chance": c.Browse.RandomExitChance,
	} {
		if p < 0 || p > 1 {
			return fmt.Errorf("%s must be within [0, 1], got %v", name, p)
		}
	}
	return nil
}
