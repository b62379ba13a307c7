// Package config は環境変数から設定を読み込み、アプリケーション全体で使用する設定を提供します。
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	StorageLocal = "local"
	StorageS3    = "s3"
)

// Config はアプリケーションの設定を保持する構造体です。
type Config struct {
	// サーバー設定
	Port    string // HTTPサーバーのポート番号
	GinMode string // Ginの実行モード (debug, release, test)

	// セッション設定
	SessionSecret      string        // セッションクッキー署名用の秘密鍵
	SessionIdleTimeout time.Duration // 無操作でセッションを失効させるまでの時間
	CSRFEnabled        bool          // フォームのCSRF検証を行うか

	// CORS設定
	CORSAllowedOrigins string // CORS許可オリジン（カンマ区切り、空なら無効）

	// データベース設定
	DBDriver    string // sqlite または postgres
	DatabaseURL string // DSN

	// アップロード設定
	StorageBackend string // local または s3
	UploadDir      string // ローカル保存先ディレクトリ
	MaxUploadSize  int64  // アップロード1件の最大サイズ（バイト）

	// S3設定（StorageBackend=s3 の場合）
	S3Bucket    string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Endpoint  string

	// ログ設定
	LogFile string // セキュリティイベントの追記専用ログ

	// ログイン試行回数の保存先（空ならプロセス内メモリ）
	RedisURL string

	// 外部求人フィード
	ExternalJobsURL      string
	ExternalJobsCategory string
	ExternalJobsLimit    int
	ExternalJobsTimeout  time.Duration
}

// Load は環境変数から設定を読み込みます。
// .env.local ファイルが存在する場合はそこから読み込みます。
func Load() (*Config, error) {
	loadEnvFile()

	config := &Config{
		Port:    getEnv("PORT", "8080"),
		GinMode: getEnv("GIN_MODE", "debug"),

		SessionSecret:      getEnv("SESSION_SECRET", ""),
		SessionIdleTimeout: time.Duration(getEnvAsInt("SESSION_IDLE_MINUTES", 120)) * time.Minute,
		CSRFEnabled:        getEnvAsBool("CSRF_ENABLED", true),

		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", ""),

		DBDriver:    getEnv("DB_DRIVER", DriverSQLite),
		DatabaseURL: getEnv("DATABASE_URL", filepath.Join("instance", "app.db")),

		StorageBackend: getEnv("STORAGE_BACKEND", StorageLocal),
		UploadDir:      getEnv("UPLOAD_DIR", filepath.Join("static", "uploads")),
		MaxUploadSize:  getEnvAsInt64("MAX_UPLOAD_SIZE", 5*1024*1024), // 5MB

		S3Bucket:    getEnv("S3_BUCKET", ""),
		S3Region:    getEnv("S3_REGION", "us-east-1"),
		S3AccessKey: getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey: getEnv("S3_SECRET_KEY", ""),
		S3Endpoint:  getEnv("S3_ENDPOINT", ""),

		LogFile: getEnv("LOG_FILE", filepath.Join("logs", "jobboard.log")),

		RedisURL: getEnv("REDIS_URL", ""),

		ExternalJobsURL:      getEnv("EXTERNAL_JOBS_URL", "https://remotive.com/api/remote-jobs"),
		ExternalJobsCategory: getEnv("EXTERNAL_JOBS_CATEGORY", "software-dev"),
		ExternalJobsLimit:    getEnvAsInt("EXTERNAL_JOBS_LIMIT", 20),
		ExternalJobsTimeout:  getEnvAsDuration("EXTERNAL_JOBS_TIMEOUT", 10*time.Second),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func loadEnvFile() {
	if err := godotenv.Load(".env.local"); err == nil {
		return
	}

	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	parent := filepath.Dir(cwd)
	if parent == "" || parent == cwd {
		return
	}

	_ = godotenv.Load(filepath.Join(parent, ".env.local"))
}

// Validate は設定の妥当性を検証します。
func (c *Config) Validate() error {
	switch c.DBDriver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("DB_DRIVER must be %q or %q, got %q", DriverSQLite, DriverPostgres, c.DBDriver)
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	switch c.StorageBackend {
	case StorageLocal:
		if c.UploadDir == "" {
			return fmt.Errorf("UPLOAD_DIR is required for local storage")
		}
	case StorageS3:
		if c.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required for s3 storage")
		}
	default:
		return fmt.Errorf("STORAGE_BACKEND must be %q or %q, got %q", StorageLocal, StorageS3, c.StorageBackend)
	}

	if c.MaxUploadSize <= 0 {
		return fmt.Errorf("MAX_UPLOAD_SIZE must be positive")
	}

	// ローカル開発ではセッション鍵を省略できる（起動ごとに生成）
	if c.GinMode == "release" {
		if c.SessionSecret == "" {
			return fmt.Errorf("SESSION_SECRET is required in release mode")
		}
		if !c.CSRFEnabled {
			return fmt.Errorf("CSRF_ENABLED cannot be false in release mode")
		}
	}

	return nil
}

// AllowedOrigins は CORS 許可オリジンを配列で返します。
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// getEnv は環境変数を取得し、存在しない場合はデフォルト値を返します。
func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt は環境変数を整数として取得します。
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsInt64 は環境変数を64ビット整数として取得します。
func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool は環境変数を真偽値として取得します。
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration は "10s" 形式の環境変数を time.Duration として取得します。
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
