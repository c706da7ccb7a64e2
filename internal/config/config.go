package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	WhatsApp WhatsAppConfig
	Dedup    DedupConfig
	Redis    RedisConfig
}

type ServerConfig struct {
	Address string
}

type WhatsAppConfig struct {
	APIVersion    string
	PhoneNumberID string
	AccessToken   string

	// Sandbox credential pair, preferred over the production pair when
	// complete.
	SandboxPhoneNumberID string
	SandboxAccessToken   string

	VerifyToken    string
	AppSecret      string
	WebhookBaseURL string
}

type DedupConfig struct {
	Window time.Duration
}

type RedisConfig struct {
	Enabled  bool
	Address  string
	Password string
	DB       int
}

func LoadAll() (*Config, error) {
	var errs []error

	window, err := getEnvInt("DEDUP_WINDOW_SECONDS", 30)
	if err != nil {
		errs = append(errs, err)
	}

	redisCfg, err := loadRedisConfig()
	if err != nil {
		errs = append(errs, err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Address: getEnv("SERVER_ADDRESS", ":8080"),
		},
		WhatsApp: WhatsAppConfig{
			APIVersion:           getEnv("WHATSAPP_API_VERSION", "v19.0"),
			PhoneNumberID:        os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
			AccessToken:          os.Getenv("WHATSAPP_ACCESS_TOKEN"),
			SandboxPhoneNumberID: os.Getenv("WHATSAPP_SANDBOX_PHONE_NUMBER_ID"),
			SandboxAccessToken:   os.Getenv("WHATSAPP_SANDBOX_ACCESS_TOKEN"),
			VerifyToken:          getEnv("WHATSAPP_VERIFY_TOKEN", "dev-verify-token"),
			AppSecret:            os.Getenv("WHATSAPP_APP_SECRET"),
			WebhookBaseURL:       os.Getenv("WEBHOOK_BASE_URL"),
		},
		Dedup: DedupConfig{
			Window: time.Duration(window) * time.Second,
		},
		Redis: redisCfg,
	}

	if cfg.Dedup.Window <= 0 {
		errs = append(errs, errors.New("DEDUP_WINDOW_SECONDS must be > 0"))
	}

	if err := joinErrors(errs); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Credentials resolves the ordered credential sources: the sandbox pair wins
// when complete, otherwise the production pair is used. Empty results mean
// nothing is configured.
func (c WhatsAppConfig) Credentials() (phoneNumberID, accessToken string) {
	if c.SandboxPhoneNumberID != "" && c.SandboxAccessToken != "" {
		return c.SandboxPhoneNumberID, c.SandboxAccessToken
	}
	return c.PhoneNumberID, c.AccessToken
}

func loadRedisConfig() (RedisConfig, error) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		return RedisConfig{Enabled: false}, nil
	}

	db, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return RedisConfig{}, err
	}

	return RedisConfig{
		Enabled:  true,
		Address:  addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       db,
	}, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid int for env %s: %s", key, v)
	}
	return i, nil
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}
