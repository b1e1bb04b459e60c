package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Port     string `env:"PORT" envDefault:"8080" validate:"required,numeric"`
	AppEnv   string `env:"APP_ENV" envDefault:"development" validate:"oneof=development production test"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	Store    string `env:"STORE" envDefault:"mongo" validate:"oneof=mongo memory"`

	MongoURI string `env:"MONGODB_URI" validate:"required_unless=Store memory"`
	DBName   string `env:"DB_NAME" envDefault:"linkrite" validate:"required"`

	JWTSecret   string        `env:"JWT_SECRET" validate:"required,min=16"`
	JWTTTL      time.Duration `env:"JWT_TTL" envDefault:"24h" validate:"gt=0"`
	CORSOrigins []string      `env:"CORS_ORIGINS"`

	Firebase FirebaseWeb
	// Exposed to the client only; no payment flow runs server-side.
	StripePublishableKey string `env:"STRIPE_PUBLISHABLE_KEY" validate:"required"`

	FirebaseCredentialsBase64 string `env:"FIREBASE_CREDENTIALS_BASE64"`
	FirebaseCredentialsFile   string `env:"GOOGLE_APPLICATION_CREDENTIALS"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `env:"GOOGLE_REDIRECT_URL" validate:"omitempty,url"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" validate:"gte=0"`

	VAPIDPublicKey  string `env:"VAPID_PUBLIC_KEY"`
	VAPIDPrivateKey string `env:"VAPID_PRIVATE_KEY" validate:"required_with=VAPIDPublicKey"`
	VAPIDSubject    string `env:"VAPID_SUBJECT"`

	SMTPHost string `env:"SMTP_HOST"`
	SMTPPort int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser string `env:"SMTP_USER"`
	SMTPPass string `env:"SMTP_PASS"`
	SMTPFrom string `env:"SMTP_FROM" validate:"required_with=SMTPHost"`

	CloudinaryURL string `env:"CLOUDINARY_URL"`

	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"10" validate:"gt=0"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"20" validate:"gt=0"`
}

// FirebaseWeb is the public Firebase web configuration handed to clients.
type FirebaseWeb struct {
	APIKey            string `env:"FIREBASE_API_KEY" json:"apiKey" validate:"required"`
	AuthDomain        string `env:"FIREBASE_AUTH_DOMAIN" json:"authDomain" validate:"required"`
	ProjectID         string `env:"FIREBASE_PROJECT_ID" json:"projectId" validate:"required"`
	StorageBucket     string `env:"FIREBASE_STORAGE_BUCKET" json:"storageBucket" validate:"required"`
	MessagingSenderID string `env:"FIREBASE_MESSAGING_SENDER_ID" json:"messagingSenderId" validate:"required"`
	AppID             string `env:"FIREBASE_APP_ID" json:"appId" validate:"required"`
}

func (c *Config) IsProduction() bool { return c.AppEnv == "production" }

func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != "" && c.GoogleRedirectURL != ""
}

func (c *Config) FirebaseAdminEnabled() bool {
	return c.FirebaseCredentialsBase64 != "" || c.FirebaseCredentialsFile != ""
}

func (c *Config) PushEnabled() bool { return c.VAPIDPublicKey != "" && c.VAPIDPrivateKey != "" }

func (c *Config) MailEnabled() bool { return c.SMTPHost != "" }

// ValidationError lists every environment variable that failed validation.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "invalid configuration: " + strings.Join(e.Fields, ", ")
}

// Load reads .env if present and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv(env.ToMap(os.Environ()))
}

// FromEnv builds a Config from environ, applies defaults and validates it.
func FromEnv(environ map[string]string) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: environ}); err != nil {
		return nil, parseError(err)
	}
	cfg.CORSOrigins = compact(cfg.CORSOrigins)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseError reports values that could not be converted by env variable name.
func parseError(err error) error {
	errs := []error{err}
	var agg env.AggregateError
	if errors.As(err, &agg) {
		errs = agg.Errors
	}
	fields := make([]string, 0, len(errs))
	for _, e := range errs {
		var pe env.ParseError
		if errors.As(e, &pe) {
			fields = append(fields, fmt.Sprintf("%s (%v)", envKey(pe.Name), pe.Err))
			continue
		}
		fields = append(fields, e.Error())
	}
	return &ValidationError{Fields: fields}
}

func envKey(field string) string {
	if f, ok := reflect.TypeOf(Config{}).FieldByName(field); ok {
		if key := f.Tag.Get("env"); key != "" {
			return key
		}
	}
	return field
}

func compact(list []string) []string {
	var out []string
	for _, s := range list {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Validate checks the struct tags and reports failures by env variable name.
func (c *Config) Validate() error {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("env"); name != "" {
			return name
		}
		return f.Name
	})

	err := v.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
	}
	return &ValidationError{Fields: fields}
}
