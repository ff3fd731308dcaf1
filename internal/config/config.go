package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	// APP_TIMEZONE must resolve in minimal containers without zoneinfo.
	_ "time/tzdata"

	"github.com/cmlabs-hris/hours-report/internal/pkg/hhmm"
	"github.com/cmlabs-hris/hours-report/internal/pkg/validator"
	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Source   SourceConfig
	SMTP     SMTPConfig
	SES      SESConfig
	Mail     MailConfig
	Alert    AlertConfig
	Report   ReportConfig
	Workbook WorkbookConfig
	Storage  StorageConfig
	Database DatabaseConfig
}

// AppConfig holds application configuration
type AppConfig struct {
	Env       string
	LogLevel  string
	LogFormat string
	Timezone  *time.Location
	WorkDir   string
}

// SourceConfig holds the vendor export API configuration
type SourceConfig struct {
	Endpoint   string
	APIToken   string
	Timeout    time.Duration
	MaxRetries int
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

type SESConfig struct {
	Region    string
	AccessKey string
	SecretKey string
}

// MailConfig selects the mail transport and the recipient lists
type MailConfig struct {
	Driver           string
	ReportRecipients []string
	LogRecipients    []string
	Signature        string
}

type AlertConfig struct {
	Driver   string
	WhatsApp WhatsAppConfig
	Discord  DiscordConfig
}

type WhatsAppConfig struct {
	BaseURL       string
	PhoneNumberID string
	AccessToken   string
}

type DiscordConfig struct {
	BotToken string
}

// ReportConfig holds the per-technician rules applied to each day.
// Contacts and Minimums are keyed by technician name as written by the operator;
// callers canonicalize before lookup.
type ReportConfig struct {
	IgnoredTechnicians []string
	MinimumMinutes     int
	Minimums           map[string]int
	Contacts           map[string]string
	CSVSeparator       rune
}

type WorkbookConfig struct {
	BaseDir     string
	LockDriver  string
	LockTimeout time.Duration
}

type StorageConfig struct {
	Type     string
	BasePath string
	Bucket   string
	Region   string
	Prefix   string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

const (
	MailDriverSMTP = "smtp"
	MailDriverSES  = "ses"

	AlertDriverWhatsApp = "whatsapp"
	AlertDriverDiscord  = "discord"
	AlertDriverNone     = "none"

	LockDriverFile     = "file"
	LockDriverPostgres = "postgres"

	StorageTypeNone  = "none"
	StorageTypeLocal = "local"
	StorageTypeS3    = "s3"
)

const defaultMilvusEndpoint = "https://apiintegracao.milvus.com.br/api/relatorio-atendimento/exporta"

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}

	config := &Config{}

	// Application configuration
	tz, err := time.LoadLocation(getEnv("APP_TIMEZONE", "America/Sao_Paulo"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE: %w", err)
	}

	config.App = AppConfig{
		Env:       getEnv("APP_ENV", "production"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
		Timezone:  tz,
		WorkDir:   getEnv("WORK_DIR", os.TempDir()),
	}

	// Vendor API configuration
	sourceTimeout, err := getEnvDuration("MILVUS_API_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	sourceRetries, err := getEnvInt("MILVUS_API_MAX_RETRIES", 3)
	if err != nil {
		return nil, err
	}

	config.Source = SourceConfig{
		Endpoint:   getEnv("MILVUS_API_URL", defaultMilvusEndpoint),
		APIToken:   getEnv("MILVUS_API_TOKEN", ""),
		Timeout:    sourceTimeout,
		MaxRetries: sourceRetries,
	}

	// Mail configuration
	smtpPort, err := getEnvInt("SMTP_PORT", 587)
	if err != nil {
		return nil, err
	}

	config.SMTP = SMTPConfig{
		Host:     getEnv("SMTP_HOST", ""),
		Port:     smtpPort,
		Username: getEnv("SMTP_USERNAME", ""),
		Password: getEnv("SMTP_PASSWORD", ""),
		From:     getEnv("SMTP_FROM", getEnv("SMTP_USERNAME", "")),
		FromName: getEnv("SMTP_FROM_NAME", "Relatório de Horas"),
	}

	config.SES = SESConfig{
		Region:    getEnv("SES_REGION", "us-east-1"),
		AccessKey: getEnv("SES_ACCESS_KEY", ""),
		SecretKey: getEnv("SES_SECRET_KEY", ""),
	}

	config.Mail = MailConfig{
		Driver:           strings.ToLower(getEnv("MAIL_DRIVER", MailDriverSMTP)),
		ReportRecipients: getEnvSlice("REPORT_RECIPIENTS"),
		LogRecipients:    getEnvSlice("LOG_RECIPIENTS"),
		Signature:        getEnv("MAIL_SIGNATURE", "Equipe JDB Tecnologia"),
	}

	// Alert channel configuration
	config.Alert = AlertConfig{
		Driver: strings.ToLower(getEnv("ALERT_DRIVER", AlertDriverWhatsApp)),
		WhatsApp: WhatsAppConfig{
			BaseURL:       getEnv("WHATSAPP_API_URL", "https://graph.facebook.com/v19.0"),
			PhoneNumberID: getEnv("WHATSAPP_PHONE_NUMBER_ID", ""),
			AccessToken:   getEnv("WHATSAPP_ACCESS_TOKEN", ""),
		},
		Discord: DiscordConfig{
			BotToken: getEnv("DISCORD_BOT_TOKEN", ""),
		},
	}

	// Report rules
	minimum, err := parseMinimum(getEnv("EXPECTED_MINIMUM", "04:00"))
	if err != nil {
		return nil, fmt.Errorf("invalid EXPECTED_MINIMUM: %w", err)
	}

	contacts, minimums, err := loadTechnicians()
	if err != nil {
		return nil, err
	}

	separator := []rune(getEnv("REPORT_CSV_SEPARATOR", ";"))
	if len(separator) != 1 {
		return nil, fmt.Errorf("invalid REPORT_CSV_SEPARATOR: must be a single character")
	}

	config.Report = ReportConfig{
		IgnoredTechnicians: getEnvSlice("IGNORED_TECHNICIANS"),
		MinimumMinutes:     minimum,
		Minimums:           minimums,
		Contacts:           contacts,
		CSVSeparator:       separator[0],
	}

	// Workbook configuration
	lockTimeout, err := getEnvDuration("LOCK_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	config.Workbook = WorkbookConfig{
		BaseDir:     getEnv("WORKBOOK_BASE_DIR", "./relatorios"),
		LockDriver:  strings.ToLower(getEnv("LOCK_DRIVER", LockDriverFile)),
		LockTimeout: lockTimeout,
	}

	// Archive storage configuration
	config.Storage = StorageConfig{
		Type:     strings.ToLower(getEnv("STORAGE_TYPE", StorageTypeNone)),
		BasePath: getEnv("STORAGE_BASE_PATH", config.Workbook.BaseDir),
		Bucket:   getEnv("STORAGE_S3_BUCKET", ""),
		Region:   getEnv("STORAGE_S3_REGION", "us-east-1"),
		Prefix:   getEnv("STORAGE_S3_PREFIX", ""),
	}

	// Database configuration (optional, enables run history and postgres locking)
	dbPort, err := getEnvInt("DB_PORT", 5432)
	if err != nil {
		return nil, err
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", ""),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "hours_report"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(c.Source.APIToken) {
		errs = append(errs, validator.ValidationError{Field: "MILVUS_API_TOKEN", Message: "is required"})
	}
	if len(c.Mail.ReportRecipients) == 0 {
		errs = append(errs, validator.ValidationError{Field: "REPORT_RECIPIENTS", Message: "is required"})
	}
	if len(c.Mail.LogRecipients) == 0 {
		errs = append(errs, validator.ValidationError{Field: "LOG_RECIPIENTS", Message: "is required"})
	}
	for _, addr := range append(append([]string{}, c.Mail.ReportRecipients...), c.Mail.LogRecipients...) {
		if !validator.IsValidEmail(addr) {
			errs = append(errs, validator.ValidationError{Field: "recipients", Message: fmt.Sprintf("invalid email address %q", addr)})
		}
	}

	switch c.Mail.Driver {
	case MailDriverSMTP:
		if validator.IsEmpty(c.SMTP.Host) {
			errs = append(errs, validator.ValidationError{Field: "SMTP_HOST", Message: "is required for the smtp mail driver"})
		}
		if validator.IsEmpty(c.SMTP.From) {
			errs = append(errs, validator.ValidationError{Field: "SMTP_FROM", Message: "is required for the smtp mail driver"})
		}
	case MailDriverSES:
		if validator.IsEmpty(c.SMTP.From) {
			errs = append(errs, validator.ValidationError{Field: "SMTP_FROM", Message: "is required as the sender address"})
		}
	default:
		errs = append(errs, validator.ValidationError{Field: "MAIL_DRIVER", Message: "must be smtp or ses"})
	}

	switch c.Alert.Driver {
	case AlertDriverWhatsApp:
		if validator.IsEmpty(c.Alert.WhatsApp.PhoneNumberID) || validator.IsEmpty(c.Alert.WhatsApp.AccessToken) {
			errs = append(errs, validator.ValidationError{Field: "WHATSAPP_PHONE_NUMBER_ID", Message: "phone number id and access token are required for the whatsapp alert driver"})
		}
		for name, phone := range c.Report.Contacts {
			if !validator.IsValidPhoneNumber(phone) {
				errs = append(errs, validator.ValidationError{Field: "contacts", Message: fmt.Sprintf("invalid phone number for %s", name)})
			}
		}
	case AlertDriverDiscord:
		if validator.IsEmpty(c.Alert.Discord.BotToken) {
			errs = append(errs, validator.ValidationError{Field: "DISCORD_BOT_TOKEN", Message: "is required for the discord alert driver"})
		}
	case AlertDriverNone:
	default:
		errs = append(errs, validator.ValidationError{Field: "ALERT_DRIVER", Message: "must be whatsapp, discord or none"})
	}

	switch c.Workbook.LockDriver {
	case LockDriverFile:
	case LockDriverPostgres:
		if !c.DatabaseEnabled() {
			errs = append(errs, validator.ValidationError{Field: "LOCK_DRIVER", Message: "postgres locking requires DB_HOST"})
		}
	default:
		errs = append(errs, validator.ValidationError{Field: "LOCK_DRIVER", Message: "must be file or postgres"})
	}

	switch c.Storage.Type {
	case StorageTypeNone, StorageTypeLocal:
	case StorageTypeS3:
		if validator.IsEmpty(c.Storage.Bucket) {
			errs = append(errs, validator.ValidationError{Field: "STORAGE_S3_BUCKET", Message: "is required for s3 storage"})
		}
	default:
		errs = append(errs, validator.ValidationError{Field: "STORAGE_TYPE", Message: "must be none, local or s3"})
	}

	if c.Report.MinimumMinutes <= 0 {
		errs = append(errs, validator.ValidationError{Field: "EXPECTED_MINIMUM", Message: "must be greater than zero"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// DatabaseEnabled reports whether a PostgreSQL connection was configured
func (c *Config) DatabaseEnabled() bool {
	return c.Database.Host != ""
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// loadTechnicians reads contact handles and per-technician minimums.
// TECHNICIAN_CONTACTS_FILE (yaml) takes precedence over TECHNICIAN_CONTACTS_JSON.
func loadTechnicians() (map[string]string, map[string]int, error) {
	if path := getEnv("TECHNICIAN_CONTACTS_FILE", ""); path != "" {
		tf, err := LoadTechniciansFile(path)
		if err != nil {
			return nil, nil, err
		}
		return tf.Contacts, tf.MinimumMinutes, nil
	}

	contacts := map[string]string{}
	if raw := getEnv("TECHNICIAN_CONTACTS_JSON", ""); raw != "" {
		if err := json.Unmarshal([]byte(raw), &contacts); err != nil {
			return nil, nil, fmt.Errorf("invalid TECHNICIAN_CONTACTS_JSON: %w", err)
		}
	}
	return contacts, map[string]int{}, nil
}

// parseMinimum accepts either "HH:MM" or a plain number of minutes.
func parseMinimum(value string) (int, error) {
	if validator.IsNumeric(value) {
		return strconv.Atoi(value)
	}
	return hhmm.Parse(value)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(env string) []string {
	value := getEnv(env, "")
	if value == "" {
		return []string{}
	}
	var result []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			result = append(result, item)
		}
	}
	return result
}

func getEnvInt(key string, fallback int) (int, error) {
	value := getEnv(key, "")
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := getEnv(key, "")
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
