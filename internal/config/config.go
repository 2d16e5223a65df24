package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	arxivRSSBaseURL = "https://rss.arxiv.org/rss/"

	configPathEnv       = "ARXIV_CONFIG"
	feedURLsEnv         = "ARXIV_RSS_URLS"
	geminiAPIKeyEnv     = "ARXIV_GEMINI_API_KEY"
	geminiModelEnv      = "ARXIV_GEMINI_MODEL"
	geminiPromptFileEnv = "ARXIV_GEMINI_PROMPT_FILE"
	geminiPDFPagesEnv   = "ARXIV_GEMINI_PDF_PAGES"
	smtpHostEnv         = "ARXIV_SMTP_HOST"
	smtpPortEnv         = "ARXIV_SMTP_PORT"
	smtpUsernameEnv     = "ARXIV_SMTP_USERNAME"
	smtpPasswordEnv     = "ARXIV_SMTP_PASSWORD"
	smtpFromEnv         = "ARXIV_SMTP_FROM"
	smtpToEnv           = "ARXIV_SMTP_TO"
	storageFileEnv      = "ARXIV_STORAGE_FILE"
	logLevelEnv         = "ARXIV_LOG_LEVEL"
)

// Config holds high-level settings required across the application.
type Config struct {
	Feeds   FeedConfig    `yaml:"feeds"`
	Gemini  GeminiConfig  `yaml:"gemini"`
	SMTP    SMTPConfig    `yaml:"smtp"`
	Storage StorageConfig `yaml:"storage"`
	Logging LoggingConfig `yaml:"logging"`
}

// FeedConfig lists the arXiv RSS feeds to watch. Entries may be full
// URLs or shorthand category names like "cs.AI".
type FeedConfig struct {
	URLs []string `yaml:"urls"`
}

// ExpandedURLs resolves shorthand category names to full feed URLs.
func (f FeedConfig) ExpandedURLs() []string {
	expanded := make([]string, 0, len(f.URLs))
	for _, u := range f.URLs {
		if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			u = arxivRSSBaseURL + u
		}
		expanded = append(expanded, u)
	}
	return expanded
}

// GeminiConfig defines how to contact the Gemini API.
type GeminiConfig struct {
	APIKey     string `yaml:"apiKey"`
	Model      string `yaml:"model"`
	Prompt     string `yaml:"prompt"`
	PromptFile string `yaml:"promptFile"`
	PDFPages   int    `yaml:"pdfPages"`
}

// SMTPConfig wires all data required to submit notification mail.
type SMTPConfig struct {
	Host     string   `yaml:"host"`
	Port     int      `yaml:"port"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	From     string   `yaml:"from"`
	To       []string `yaml:"to"`
}

// StorageConfig locates the durable notified-ID file.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig controls log verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads YAML configuration (if present) and applies environment
// overrides. A .env file in the working directory is honored first.
func Load() Config {
	_ = godotenv.Load()

	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()

	if len(cfg.Feeds.URLs) == 0 {
		cfg.Feeds.URLs = defaultConfig().Feeds.URLs
	}

	return cfg
}

// Validate checks required settings and resolves the prompt-file
// override. Secrets are never echoed in the returned errors.
func (c *Config) Validate() error {
	if c.Gemini.APIKey == "" {
		return fmt.Errorf("gemini api key is required (%s)", geminiAPIKeyEnv)
	}
	if c.SMTP.Host == "" {
		return fmt.Errorf("smtp host is required (%s)", smtpHostEnv)
	}
	if c.SMTP.Username == "" || c.SMTP.Password == "" {
		return fmt.Errorf("smtp credentials are required (%s, %s)", smtpUsernameEnv, smtpPasswordEnv)
	}
	if c.SMTP.From == "" || !strings.Contains(c.SMTP.From, "@") {
		return fmt.Errorf("smtp from address %q is not a valid address", c.SMTP.From)
	}
	if len(c.SMTP.To) == 0 {
		return fmt.Errorf("at least one smtp recipient is required (%s)", smtpToEnv)
	}
	for _, to := range c.SMTP.To {
		if !strings.Contains(to, "@") {
			return fmt.Errorf("smtp recipient %q is not a valid address", to)
		}
	}
	if c.Gemini.PDFPages <= 0 {
		return fmt.Errorf("gemini pdf pages must be positive, got %d", c.Gemini.PDFPages)
	}

	if c.Gemini.PromptFile != "" {
		raw, err := os.ReadFile(c.Gemini.PromptFile)
		if err != nil {
			return fmt.Errorf("prompt file %s: %w", c.Gemini.PromptFile, err)
		}
		c.Gemini.Prompt = strings.TrimSpace(string(raw))
	}
	if c.Gemini.Prompt == "" {
		c.Gemini.Prompt = defaultConfig().Gemini.Prompt
	}

	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(feedURLsEnv); v != "" {
		c.Feeds.URLs = splitList(v)
	}

	if v := os.Getenv(geminiAPIKeyEnv); v != "" {
		c.Gemini.APIKey = v
	}
	if v := os.Getenv(geminiModelEnv); v != "" {
		c.Gemini.Model = v
	}
	if v := os.Getenv(geminiPromptFileEnv); v != "" {
		c.Gemini.PromptFile = v
	}
	if v := os.Getenv(geminiPDFPagesEnv); v != "" {
		if pages, err := strconv.Atoi(v); err != nil {
			log.Printf("config: invalid %s=%s: %v (keeping %d)", geminiPDFPagesEnv, v, err, c.Gemini.PDFPages)
		} else {
			c.Gemini.PDFPages = pages
		}
	}

	if v := os.Getenv(smtpHostEnv); v != "" {
		c.SMTP.Host = v
	}
	if v := os.Getenv(smtpPortEnv); v != "" {
		if port, err := strconv.Atoi(v); err != nil {
			log.Printf("config: invalid %s=%s: %v (keeping %d)", smtpPortEnv, v, err, c.SMTP.Port)
		} else {
			c.SMTP.Port = port
		}
	}
	if v := os.Getenv(smtpUsernameEnv); v != "" {
		c.SMTP.Username = v
	}
	if v := os.Getenv(smtpPasswordEnv); v != "" {
		c.SMTP.Password = v
	}
	if v := os.Getenv(smtpFromEnv); v != "" {
		c.SMTP.From = v
	}
	if v := os.Getenv(smtpToEnv); v != "" {
		c.SMTP.To = splitList(v)
	}

	if v := os.Getenv(storageFileEnv); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func mergeConfig(base, override Config) Config {
	if len(override.Feeds.URLs) > 0 {
		base.Feeds.URLs = override.Feeds.URLs
	}

	if override.Gemini.APIKey != "" {
		base.Gemini.APIKey = override.Gemini.APIKey
	}
	if override.Gemini.Model != "" {
		base.Gemini.Model = override.Gemini.Model
	}
	if override.Gemini.Prompt != "" {
		base.Gemini.Prompt = override.Gemini.Prompt
	}
	if override.Gemini.PromptFile != "" {
		base.Gemini.PromptFile = override.Gemini.PromptFile
	}
	if override.Gemini.PDFPages > 0 {
		base.Gemini.PDFPages = override.Gemini.PDFPages
	}

	if override.SMTP.Host != "" {
		base.SMTP.Host = override.SMTP.Host
	}
	if override.SMTP.Port > 0 {
		base.SMTP.Port = override.SMTP.Port
	}
	if override.SMTP.Username != "" {
		base.SMTP.Username = override.SMTP.Username
	}
	if override.SMTP.Password != "" {
		base.SMTP.Password = override.SMTP.Password
	}
	if override.SMTP.From != "" {
		base.SMTP.From = override.SMTP.From
	}
	if len(override.SMTP.To) > 0 {
		base.SMTP.To = override.SMTP.To
	}

	if override.Storage.Path != "" {
		base.Storage.Path = override.Storage.Path
	}
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Feeds: FeedConfig{
			URLs: []string{"cs.AI", "cs.CE", "q-fin", "stat.ML", "econ"},
		},
		Gemini: GeminiConfig{
			Model: "gemini-2.5-flash-lite",
			Prompt: "Summarize this research paper concisely. " +
				"Highlight the main contributions, methodology, and key findings. " +
				"Keep it under 200 words.\n\nTitle: {title}",
			PDFPages: 20,
		},
		SMTP: SMTPConfig{
			Port: 587,
		},
		Storage: StorageConfig{
			Path: filepath.Join(xdg.StateHome, "arxivwatch", "notified_papers.json"),
		},
		Logging: LoggingConfig{Level: "info"},
	}
}
