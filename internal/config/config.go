package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host string
	Port int
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime string
}

type AuthConfig struct {
	AccessSecret string
}

type ESignConfig struct {
	BaseURL      string
	APIToken     string
	SignBaseURL  string
	Timeout      time.Duration
	SendEmail    bool
	ReplyTo      string
	EmailSubject string
	EmailBody    string
}

type StorageConfig struct {
	PublicDir string
}

type Config struct {
	Environment string
	HTTP        HTTPConfig
	DB          DBConfig
	Auth        AuthConfig
	ESign       ESignConfig
	Storage     StorageConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")
	v.AutomaticEnv()

	_ = v.ReadInConfig()

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host: v.GetString("HTTP_HOST"),
			Port: v.GetInt("HTTP_PORT"),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetString("DB_CONN_MAX_LIFETIME"),
		},
		Auth: AuthConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
		},
		ESign: ESignConfig{
			BaseURL:      v.GetString("ESIGN_BASE_URL"),
			APIToken:     v.GetString("ESIGN_API_TOKEN"),
			SignBaseURL:  v.GetString("ESIGN_SIGN_BASE_URL"),
			Timeout:      v.GetDuration("ESIGN_TIMEOUT"),
			SendEmail:    v.GetBool("ESIGN_SEND_EMAIL"),
			ReplyTo:      v.GetString("ESIGN_REPLY_TO"),
			EmailSubject: v.GetString("ESIGN_EMAIL_SUBJECT"),
			EmailBody:    v.GetString("ESIGN_EMAIL_BODY"),
		},
		Storage: StorageConfig{
			PublicDir: v.GetString("STORAGE_PUBLIC_DIR"),
		},
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 7090
	}
	if cfg.ESign.Timeout == 0 {
		cfg.ESign.Timeout = 30 * time.Second
	}
	if cfg.ESign.SignBaseURL == "" {
		cfg.ESign.SignBaseURL = cfg.ESign.BaseURL
	}
	if !v.IsSet("ESIGN_SEND_EMAIL") {
		cfg.ESign.SendEmail = true
	}
	if cfg.ESign.EmailSubject == "" {
		cfg.ESign.EmailSubject = "Signature requested: {{title}}"
	}
	if cfg.ESign.EmailBody == "" {
		cfg.ESign.EmailBody = "Hello {{name}},\n\nplease review and sign \"{{title}}\"."
	}
	if cfg.Storage.PublicDir == "" {
		cfg.Storage.PublicDir = "./public"
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if cfg.Auth.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.ESign.BaseURL == "" {
		return fmt.Errorf("ESIGN_BASE_URL is required")
	}
	if cfg.ESign.APIToken == "" {
		return fmt.Errorf("ESIGN_API_TOKEN is required")
	}
	return nil
}
