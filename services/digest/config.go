package digest

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"mimiecho/lib/configutil"
	"mimiecho/lib/scrapers/navercafe"
)

const (
	DefaultMaxBatch        = 20
	DefaultMaxContentChars = 8000
	DefaultModel           = "gemini-2.5-flash"
	DefaultStateFile       = "last_processed_id.txt"
)

// Config is the digest run's configuration surface. tunables may come
// from a json5 config file, secrets come from the environment only.
type Config struct {
	CafeName        string `json:"cafe_name"`
	BoardID         string `json:"board_id"`
	MaxBatch        int    `json:"max_batch"`
	MaxContentChars int    `json:"max_content_chars"`
	Model           string `json:"model"`
	NotifyNoPosts   bool   `json:"notify_no_posts"`
	StateFile       string `json:"state_file"`

	NaverCookies string `json:"-"`
	NaverID      string `json:"-"`
	NaverPW      string `json:"-"`
	WebhookUrl   string `json:"-"`
	GeminiAPIKey string `json:"-"`
}

// LoadConfig reads the optional json5 config file, then applies
// environment overrides and validates the result. a missing config file
// is fine as long as the environment provides the required values.
func LoadConfig(path string) (Config, error) {
	cfg, err := configutil.ReadConfig[Config](path)
	if err != nil && !os.IsNotExist(err) {
		return Config{}, err
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.CafeName, "CAFE_URL_NAME")
	setString(&c.BoardID, "CAFE_BOARD_ID")
	setString(&c.Model, "GEMINI_MODEL")
	setString(&c.StateFile, "STATE_FILE")
	setInt(&c.MaxBatch, "MAX_BATCH")
	setInt(&c.MaxContentChars, "MAX_CONTENT_CHARS")
	if v := strings.TrimSpace(os.Getenv("NOTIFY_NO_POSTS")); v != "" {
		c.NotifyNoPosts = v == "1" || strings.EqualFold(v, "true")
	}

	setString(&c.NaverCookies, "NAVER_COOKIES")
	setString(&c.NaverID, "NAVER_ID")
	setString(&c.NaverPW, "NAVER_PW")
	setString(&c.WebhookUrl, "DISCORD_WEBHOOK_URL")
	setString(&c.GeminiAPIKey, "GEMINI_API_KEY")
	if c.GeminiAPIKey == "" {
		setString(&c.GeminiAPIKey, "GOOGLE_API_KEY")
	}
}

func (c *Config) applyDefaults() {
	if c.MaxBatch <= 0 {
		c.MaxBatch = DefaultMaxBatch
	}
	if c.MaxContentChars <= 0 {
		c.MaxContentChars = DefaultMaxContentChars
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.StateFile == "" {
		c.StateFile = DefaultStateFile
	}
}

func (c Config) validate() error {
	var missing []string
	if c.CafeName == "" {
		missing = append(missing, "CAFE_URL_NAME (cafe url name, e.g. daechi2dongchurch)")
	}
	if c.BoardID == "" {
		missing = append(missing, "CAFE_BOARD_ID (numeric board menu id)")
	}
	if c.WebhookUrl == "" {
		missing = append(missing, "DISCORD_WEBHOOK_URL")
	}
	if c.GeminiAPIKey == "" {
		missing = append(missing, "GEMINI_API_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration:\n  %s", strings.Join(missing, "\n  "))
	}
	if c.NaverCookies == "" && (c.NaverID == "" || c.NaverPW == "") {
		return errors.New("auth required: set NAVER_COOKIES (recommended) or both NAVER_ID and NAVER_PW")
	}
	return nil
}

// Credential returns the session credential, preferring cookies over
// the id/password pair.
func (c Config) Credential() navercafe.Credential {
	if c.NaverCookies != "" {
		return navercafe.CookieCredential{Raw: c.NaverCookies}
	}
	return navercafe.PasswordCredential{
		Username: c.NaverID,
		Password: c.NaverPW,
	}
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err == nil {
		*dst = n
	}
}
