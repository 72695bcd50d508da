package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// Secrets may come from the environment instead of private.yaml.
const (
	EnvSecretKey         = "PRACTICA_SECRET_KEY"
	EnvPgPassword        = "PRACTICA_PG_PASSWORD"
	EnvAuthServiceAPIKey = "PRACTICA_AUTH_SERVICE_API_KEY"
)

type Config struct {
	Public  Public
	Private Private
}

type Public struct {
	HttpPort      string   `yaml:"http_port"`
	ExternalURL   string   `yaml:"external_url" validate:"required,url"`
	CorsOrigins   []string `yaml:"cors_origins"`
	SecureCookies bool     `yaml:"secure_cookies"`
	TrustProxy    bool     `yaml:"trust_proxy"`
	LogLevel      string   `yaml:"log_level"`
	LogJSON       bool     `yaml:"log_json"`

	// MigrateOnStart applies pending schema migrations before serving.
	MigrateOnStart bool `yaml:"migrate_on_start"`

	TokenTTL         time.Duration `yaml:"token_ttl" validate:"required"`
	PasswordResetTTL time.Duration `yaml:"password_reset_ttl" validate:"required"`
	ExportTokenTTL   time.Duration `yaml:"export_token_ttl" validate:"required"`

	ExportTimezone string   `yaml:"export_timezone" validate:"required"`
	ExportFormats  []string `yaml:"export_formats" validate:"required,min=1,dive,oneof=csv xlsx ods"`

	MediaPath          string   `yaml:"media_path" validate:"required"`
	MaxCVSize          int64    `yaml:"max_cv_size" validate:"required,gt=0"`
	AllowedCVMimeTypes []string `yaml:"allowed_cv_mime_types" validate:"required,min=1"`
	// CVGCInterval of 0 disables the orphaned CV sweep.
	CVGCInterval time.Duration `yaml:"cv_gc_interval" validate:"gte=0"`
	CVGCGrace    time.Duration `yaml:"cv_gc_grace" validate:"gte=0"`

	AuthService AuthService `yaml:"auth_service"`
}

type AuthService struct {
	URL     string        `yaml:"url" validate:"required,url"`
	Timeout time.Duration `yaml:"timeout" validate:"required"`
	// Dialect selects the request vocabulary: "standard" or the directory's "legacy" one.
	Dialect string `yaml:"dialect" validate:"required,oneof=standard legacy"`
}

type Pg struct {
	Host     string `yaml:"host" validate:"required"`
	Port     int    `yaml:"port" validate:"required"`
	User     string `yaml:"user" validate:"required"`
	Password string `yaml:"password"`
	Dbname   string `yaml:"dbname" validate:"required"`
	SSLMode  string `yaml:"sslmode" validate:"omitempty,oneof=disable require verify-ca verify-full"`
}

type Private struct {
	Pg                Pg     `yaml:"pg"`
	SecretKey         string `yaml:"secret_key" validate:"required,min=16"`
	AuthServiceAPIKey string `yaml:"auth_service_api_key"`
}

// Defaults mirror the production deployment; yaml values override them.
func defaultPublic() Public {
	return Public{
		HttpPort:         "8080",
		MigrateOnStart:   true,
		LogLevel:         "info",
		TokenTTL:         7 * 24 * time.Hour,
		PasswordResetTTL: 3 * 24 * time.Hour,
		ExportTokenTTL:   21 * 24 * time.Hour,
		ExportTimezone:   "Europe/Bucharest",
		ExportFormats:    []string{"csv", "xlsx", "ods"},
		MaxCVSize:        10 << 20,
		AllowedCVMimeTypes: []string{
			"application/pdf",
			"application/msword",
			"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
			"application/vnd.oasis.opendocument.text",
			"text/plain",
		},
		CVGCInterval: 24 * time.Hour,
		CVGCGrace:    time.Hour,
		AuthService:  AuthService{Timeout: 10 * time.Second, Dialect: "standard"},
	}
}

// ExportLocation resolves ExportTimezone. Validate already checked it loads.
func (p *Public) ExportLocation() *time.Location {
	loc, err := time.LoadLocation(p.ExportTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		return err
	}
	if _, err := time.LoadLocation(c.Public.ExportTimezone); err != nil {
		return fmt.Errorf("export_timezone: %w", err)
	}
	if c.Public.ExportTokenTTL < c.Public.PasswordResetTTL {
		return fmt.Errorf("export_token_ttl (%s) must not be shorter than password_reset_ttl (%s)", c.Public.ExportTokenTTL, c.Public.PasswordResetTTL)
	}
	return nil
}

func mustLoadPath(configPath string, output interface{}) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		panic("can't read config file " + configPath)
	}

	if err := yaml.Unmarshal(configFile, output); err != nil {
		panic(fmt.Sprintf("can't unmarshal config file %s: %v", configPath, err))
	}
}

// applyEnv lets non-empty environment variables override secrets.
func (p *Private) applyEnv() {
	if v := os.Getenv(EnvSecretKey); v != "" {
		p.SecretKey = v
	}
	if v := os.Getenv(EnvPgPassword); v != "" {
		p.Pg.Password = v
	}
	if v := os.Getenv(EnvAuthServiceAPIKey); v != "" {
		p.AuthServiceAPIKey = v
	}
}

// LoadDotEnv exports the variables of a .env file without overriding ones
// already set. A missing file is not an error.
func LoadDotEnv(file string) error {
	if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", file, err)
	}
	return nil
}

func MustLoad(configFolder string) *Config {
	public := defaultPublic()
	mustLoadPath(path.Join(configFolder, "public.yaml"), &public)

	var private Private
	mustLoadPath(path.Join(configFolder, "private.yaml"), &private)
	private.applyEnv()

	cfg := &Config{Public: public, Private: private}
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("invalid config: %v", err))
	}
	return cfg
}
