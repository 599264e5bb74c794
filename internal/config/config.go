package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// APP
	AppEnv string
	Port   string

	// Database
	DBHost string
	DBPort string
	DBUser string
	DBPass string
	DBName string
	// DatabaseURL overrides the discrete settings when set. A MySQL DSN is
	// accepted too, for sources still hosted on the old MySQL instance.
	DatabaseURL string

	JWTSecret string

	// Admin login
	AdminUsername string
	AdminPassword string

	// CRM (Fxiaoke open API)
	CRMAPIBase       string
	CRMAppID         string
	CRMAppSecret     string
	CRMPermanentCode string
	CRMDryRun        bool
	CRMProgressStep  int
	// Direct-post channel: fixed ERP ingest URL with a static token.
	// When set, the client-credentials exchange is skipped entirely.
	CRMDirectPostURL     string
	CRMDirectPostHeaders map[string]string
	CRMDataCenterID      string
	CRMTenantID          string
	CRMPushToken         string

	// Notification webhooks
	WeComWebhookURL    string
	WeComRobotKey      string
	FeishuWebhookToken string
	FeishuAppID        string
	FeishuAppSecret    string
	FeishuAtUserID     string
	PublicBaseURL      string

	// Sink flush thresholds
	SinkMaxBuffer   int
	SinkMaxInterval time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		// App
		AppEnv: getEnv("APP_ENV", "development"),
		Port:   getEnv("PORT", "5689"),

		// DB
		DBHost:      getEnv("DB_HOST", "127.0.0.1"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBUser:      getEnv("DB_USER", "postgres"),
		DBPass:      getEnv("DB_PASS", "postgres"),
		DBName:      getEnv("DB_NAME", "nhsa_data"),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		// JWT
		JWTSecret: getEnv("JWT_SECRET", "secret123"),

		// Admin login
		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "nhsa-sync-2026"),

		// CRM
		CRMAPIBase:       getEnv("FXCRM_API_BASE", "https://open.fxiaoke.com/cgi"),
		CRMAppID:         getEnv("FXCRM_APP_ID", ""),
		CRMAppSecret:     getEnv("FXCRM_APP_SECRET", ""),
		CRMPermanentCode: getEnv("FXCRM_PERMANENT_CODE", ""),
		CRMDryRun:        getEnv("FXCRM_DRY_RUN", "0") == "1",
		CRMProgressStep:  getEnvInt("FXCRM_PROGRESS_STEP", 100),
		CRMDirectPostURL: getEnv("FXCRM_DIRECT_POST_URL", ""),
		CRMDataCenterID:  getEnv("FXCRM_DC_ID", ""),
		CRMTenantID:      getEnv("FXCRM_TENANT_ID", ""),
		CRMPushToken:     getEnv("FXCRM_TOKEN", ""),

		// Webhooks
		WeComWebhookURL:    getEnv("WECHAT_WEBHOOK_URL", ""),
		WeComRobotKey:      getEnv("WECHAT_ROBOT_KEY", ""),
		FeishuWebhookToken: getEnv("FEISHU_WEBHOOK_TOKEN", ""),
		FeishuAppID:        getEnv("FEISHU_APP_ID", ""),
		FeishuAppSecret:    getEnv("FEISHU_APP_SECRET", ""),
		FeishuAtUserID:     getEnv("FEISHU_AT_USER_ID", ""),
		PublicBaseURL:      getEnv("PUBLIC_BASE_URL", ""),

		// Sink
		SinkMaxBuffer:   getEnvInt("SINK_MAX_BUFFER", 50),
		SinkMaxInterval: time.Duration(getEnvInt("SINK_MAX_INTERVAL_SECONDS", 15)) * time.Second,
	}

	if cfg.PublicBaseURL == "" {
		cfg.PublicBaseURL = "http://localhost:" + cfg.Port
	}

	// Extra headers for the direct-post channel, configured as a JSON object.
	if raw := getEnv("FXCRM_DIRECT_POST_HEADERS", ""); raw != "" {
		headers := map[string]string{}
		if err := json.Unmarshal([]byte(raw), &headers); err != nil {
			return nil, fmt.Errorf("invalid FXCRM_DIRECT_POST_HEADERS: %w", err)
		}
		cfg.CRMDirectPostHeaders = headers
	}

	return cfg, nil
}

// getEnv returns environment variable or default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns int from env or default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
