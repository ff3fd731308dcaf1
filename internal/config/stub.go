package config

import (
	"fmt"
	"log/slog"

	"github.com/joho/godotenv"
)

// StubConfig configures cmd/stub-api, a local stand-in for the vendor export API.
type StubConfig struct {
	Addr       string
	Token      string
	FixtureDir string
	// FailFirst makes the first N requests answer 503.
	FailFirst int
	LogLevel  string
}

func LoadStub() (*StubConfig, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}

	failFirst, err := getEnvInt("STUB_FAIL_FIRST", 0)
	if err != nil {
		return nil, err
	}
	if failFirst < 0 {
		return nil, fmt.Errorf("invalid STUB_FAIL_FIRST: must not be negative")
	}

	return &StubConfig{
		Addr:       getEnv("STUB_ADDR", ":8089"),
		Token:      getEnv("MILVUS_API_TOKEN", "dev-token"),
		FixtureDir: getEnv("STUB_FIXTURE_DIR", ""),
		FailFirst:  failFirst,
		LogLevel:   getEnv("LOG_LEVEL", "info"),
	}, nil
}
