package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/xxxsen/common/logger"
)

const (
	defaultPort        = 8080
	defaultMailSubject = "Your OTP Code"
	defaultCleanupSpec = "0 * * * *"
)

var (
	validate = validator.New()
	envRef   = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)
)

type Config struct {
	Port          int              `json:"port" validate:"gte=1,lte=65535"`
	LogConfig     logger.LogConfig `json:"log_config"`
	Store         StoreConfig      `json:"store"`
	Mail          MailConfig       `json:"mail"`
	Cleanup       CleanupConfig    `json:"cleanup"`
	CORSAllowlist []string         `json:"cors_allowlist"`
}

// StoreConfig selects an otp record store; Data is decoded by the backend.
type StoreConfig struct {
	Type string      `json:"type" validate:"oneof=memory postgres mongo redis"`
	Data interface{} `json:"data"`
}

type MailConfig struct {
	Type    string      `json:"type" validate:"oneof=smtp log"`
	From    string      `json:"from" validate:"required"`
	Subject string      `json:"subject"`
	Data    interface{} `json:"data"`
}

// CleanupConfig controls the retention purge. RetentionHours <= 0 disables it.
type CleanupConfig struct {
	Spec           string `json:"spec"`
	RetentionHours int    `json:"retention_hours" validate:"gte=0"`
}

// Load reads a JSON config file. ${VAR} references inside string values are
// expanded from the environment, which is first populated from an optional
// .env file.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Config, error) {
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Store.Data = expandData(cfg.Store.Data)
	cfg.Mail.Data = expandData(cfg.Mail.Data)
	cfg.Mail.From = expandEnv(cfg.Mail.From)
	cfg.Mail.Subject = expandEnv(cfg.Mail.Subject)
	for i, origin := range cfg.CORSAllowlist {
		cfg.CORSAllowlist[i] = expandEnv(origin)
	}
	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	cfg.Store.Type = strings.ToLower(strings.TrimSpace(cfg.Store.Type))
	if cfg.Store.Type == "" {
		cfg.Store.Type = "memory"
	}
	cfg.Mail.Type = strings.ToLower(strings.TrimSpace(cfg.Mail.Type))
	if cfg.Mail.Type == "" {
		cfg.Mail.Type = "smtp"
	}
	cfg.Mail.From = strings.TrimSpace(cfg.Mail.From)
	if cfg.Mail.Subject == "" {
		cfg.Mail.Subject = defaultMailSubject
	}
	if cfg.Cleanup.Spec == "" {
		cfg.Cleanup.Spec = defaultCleanupSpec
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// expandEnv replaces ${VAR} with its environment value. Any other "$" is
// kept as written.
func expandEnv(s string) string {
	return envRef.ReplaceAllStringFunc(s, func(ref string) string {
		return os.Getenv(ref[2 : len(ref)-1])
	})
}

func expandData(v interface{}) interface{} {
	switch val := v.(type) {
	case string:
		return expandEnv(val)
	case map[string]interface{}:
		for k, item := range val {
			val[k] = expandData(item)
		}
		return val
	case []interface{}:
		for i, item := range val {
			val[i] = expandData(item)
		}
		return val
	default:
		return v
	}
}

// DecodeData converts a backend's free-form data section into dst and
// validates it.
func DecodeData(args interface{}, dst interface{}) error {
	if args == nil {
		args = map[string]interface{}{}
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode backend config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode backend config: %w", err)
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("validate backend config: %w", err)
	}
	return nil
}
