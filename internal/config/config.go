package config

import (
	"os"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr  string
	PublicURL string

	DBDriver string
	DBDSN    string

	BlobBasePath string // fs blob store root
	RecoveryDir  string // autosave prefix under the blob store

	// Grading service
	APIKey     string
	Model      string
	RubricPath string // empty means the built-in rubric
	FileDelay  time.Duration

	AuthSecret    string // JWT signing
	AdminUser     string
	AdminPassHash string // bcrypt

	CORSOrigins []string
}

func FromEnv() Config {
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	return Config{
		HTTPAddr:      addr,
		PublicURL:     os.Getenv("PUBLIC_URL"),
		DBDriver:      envOr("DB_DRIVER", "sqlite"),
		DBDSN:         envOr("DB_DSN", ""),
		BlobBasePath:  envOr("BLOB_BASE_PATH", "./data"),
		RecoveryDir:   envOr("RECOVERY_DIR", "recovery"),
		APIKey:        os.Getenv("ANTHROPIC_API_KEY"),
		Model:         envOr("GRADING_MODEL", "claude-sonnet-4-20250514"),
		RubricPath:    os.Getenv("RUBRIC_PATH"),
		FileDelay:     envDuration("FILE_DELAY", 2*time.Second),
		AuthSecret:    envOr("AUTH_SECRET", "dev-secret-change-me"),
		AdminUser:     envOr("ADMIN_USER", "teacher"),
		AdminPassHash: envOr("ADMIN_PASS_HASH", "$2y$12$pyZAiWaTfVtM7UElIRStvOC3gNbnp70nmQU4eYopLGBfCJr1DOvji"),
		CORSOrigins:   csvOr("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173"),
	}
}

// Rubric loads the configured rubric file, or returns "" so the caller
// falls back to the built-in criteria.
func (c Config) Rubric() (string, error) {
	if c.RubricPath == "" {
		return "", nil
	}
	b, err := os.ReadFile(c.RubricPath)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envDuration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
