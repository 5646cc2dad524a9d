package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultModelsBaseURL = "https://api.openai.com/v1"
	DefaultModel         = "gpt-4o"
	DefaultSpaceKey      = "testmax"
	DefaultEpicJQL       = `"Epic Link" = "%s"`
	DefaultMaxResults    = 50
	DefaultListenAddr    = ":8000"
	DefaultHTTPTimeout   = 30 * time.Second
)

// Config holds all configuration for the application.
// It is built once at start-up and passed by value to each client constructor.
type Config struct {
	Jira        JiraConfig
	Confluence  ConfluenceConfig
	Models      ModelsConfig
	ListenAddr  string
	HTTPTimeout time.Duration
	Verbose     bool
	Quiet       bool
}

// JiraConfig holds the tracker connection settings
type JiraConfig struct {
	BaseURL    string
	Email      string
	APIToken   string
	EpicJQL    string // fmt template receiving the parent key
	MaxResults int
}

// ConfluenceConfig holds the wiki connection settings
type ConfluenceConfig struct {
	BaseURL  string
	Username string
	Password string
	SpaceKey string
}

// ModelsConfig holds the chat-completion API settings
type ModelsConfig struct {
	BaseURL string
	Model   string
	APIKey  string
	Enabled bool
}

// Flags carries the CLI flags that influence configuration
type Flags struct {
	ConfigPath string
	Verbose    bool
	Quiet      bool
}

// fileConfig is the optional YAML configuration file layout
type fileConfig struct {
	Atlassian struct {
		BaseURL string `yaml:"base_url"`
	} `yaml:"atlassian"`
	Jira struct {
		BaseURL    string `yaml:"base_url"`
		Email      string `yaml:"email"`
		APIToken   string `yaml:"api_token"`
		EpicJQL    string `yaml:"epic_jql"`
		MaxResults int    `yaml:"max_results"`
	} `yaml:"jira"`
	Confluence struct {
		BaseURL  string `yaml:"base_url"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		SpaceKey string `yaml:"space_key"`
	} `yaml:"confluence"`
	Models struct {
		BaseURL string `yaml:"base_url"`
		Model   string `yaml:"model"`
		APIKey  string `yaml:"api_key"`
	} `yaml:"models"`
	Server struct {
		ListenAddr  string `yaml:"listen_addr"`
		HTTPTimeout string `yaml:"http_timeout"`
	} `yaml:"server"`
}

// Load creates a Config from an optional YAML file, a .env file and environment variables.
// Environment variables take precedence over the file. Missing credentials are not an error;
// callers report them with Missing.
func Load(flags Flags) (Config, error) {
	// Load environment variables from .env file if it exists
	_ = godotenv.Load()

	var file fileConfig
	if flags.ConfigPath != "" {
		data, err := os.ReadFile(flags.ConfigPath)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &file); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	return fromEnv(file, flags)
}

func fromEnv(file fileConfig, flags Flags) (Config, error) {
	atlassianBase := firstNonEmpty(os.Getenv("ATLASSIAN_BASE_URL"), file.Atlassian.BaseURL)

	cfg := Config{
		Jira: JiraConfig{
			BaseURL:  firstNonEmpty(os.Getenv("JIRA_BASE_URL"), file.Jira.BaseURL, atlassianBase),
			Email:    firstNonEmpty(os.Getenv("JIRA_EMAIL"), os.Getenv("USERNAME"), file.Jira.Email),
			APIToken: firstNonEmpty(os.Getenv("JIRA_API_TOKEN"), os.Getenv("PASSWORD"), file.Jira.APIToken),
			EpicJQL:  firstNonEmpty(os.Getenv("EPIC_JQL"), file.Jira.EpicJQL, DefaultEpicJQL),
		},
		Confluence: ConfluenceConfig{
			BaseURL:  firstNonEmpty(os.Getenv("CONFLUENCE_BASE_URL"), file.Confluence.BaseURL, atlassianBase),
			Username: firstNonEmpty(os.Getenv("CONFLUENCE_USERNAME"), file.Confluence.Username),
			Password: firstNonEmpty(os.Getenv("CONFLUENCE_PASSWORD"), file.Confluence.Password),
			SpaceKey: firstNonEmpty(os.Getenv("CONFLUENCE_SPACE_KEY"), file.Confluence.SpaceKey, DefaultSpaceKey),
		},
		Models: ModelsConfig{
			BaseURL: firstNonEmpty(os.Getenv("OPENAI_BASE_URL"), file.Models.BaseURL, DefaultModelsBaseURL),
			Model:   firstNonEmpty(os.Getenv("OPENAI_MODEL"), file.Models.Model, DefaultModel),
			APIKey:  firstNonEmpty(os.Getenv("OPENAI_API_KEY"), file.Models.APIKey),
		},
		ListenAddr: firstNonEmpty(os.Getenv("LISTEN_ADDR"), file.Server.ListenAddr, DefaultListenAddr),
		Verbose:    flags.Verbose && !flags.Quiet, // verbose is disabled if quiet is set
		Quiet:      flags.Quiet,
	}

	cfg.Jira.BaseURL = strings.TrimRight(cfg.Jira.BaseURL, "/")
	cfg.Confluence.BaseURL = strings.TrimRight(cfg.Confluence.BaseURL, "/")
	cfg.Models.BaseURL = strings.TrimRight(cfg.Models.BaseURL, "/")

	// AI summarization is on whenever a key is available, unless explicitly disabled
	cfg.Models.Enabled = cfg.Models.APIKey != "" && os.Getenv("DISABLE_SUMMARY") == ""

	cfg.Jira.MaxResults = file.Jira.MaxResults
	if raw := os.Getenv("JIRA_MAX_RESULTS"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("JIRA_MAX_RESULTS must be a positive integer, got %q", raw)
		}
		cfg.Jira.MaxResults = n
	}
	if cfg.Jira.MaxResults <= 0 {
		cfg.Jira.MaxResults = DefaultMaxResults
	}

	cfg.HTTPTimeout = DefaultHTTPTimeout
	if raw := firstNonEmpty(os.Getenv("HTTP_TIMEOUT"), file.Server.HTTPTimeout); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("HTTP_TIMEOUT must be a positive duration, got %q", raw)
		}
		cfg.HTTPTimeout = d
	}

	if err := validateEpicJQL(cfg.Jira.EpicJQL); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// validateEpicJQL requires exactly one %s for the parent key; any other percent sign must be written as %%
func validateEpicJQL(template string) error {
	rest := strings.ReplaceAll(template, "%%", "")
	if strings.Count(rest, "%s") != 1 || strings.Count(rest, "%") != 1 {
		return fmt.Errorf("EPIC_JQL must contain exactly one %%s for the epic key (write literal percent signs as %%%%), got %q", template)
	}
	return nil
}

// Missing lists the names of required settings that are not set
func (c Config) Missing() []string {
	var missing []string
	check := func(name, value string) {
		if value == "" {
			missing = append(missing, name)
		}
	}

	check("ATLASSIAN_BASE_URL", c.Jira.BaseURL)
	check("JIRA_EMAIL", c.Jira.Email)
	check("JIRA_API_TOKEN", c.Jira.APIToken)
	check("CONFLUENCE_BASE_URL", c.Confluence.BaseURL)
	check("CONFLUENCE_USERNAME", c.Confluence.Username)
	check("CONFLUENCE_PASSWORD", c.Confluence.Password)
	check("OPENAI_API_KEY", c.Models.APIKey)
	return missing
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
