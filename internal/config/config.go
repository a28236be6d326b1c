package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration required by the signaling process.
// All values must come from env (or env-file loaded by the process runner).
// No business logic should depend on raw environment variables.
type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Signaling SignalingConfig
	ICE       ICEConfig
}

type AppConfig struct {
	Env  string
	Port int

	// NodeID tags this process's logs and health output.
	NodeID string
}

// DBConfig is optional as a group: Postgres is enabled when Host is set.
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string

	// Accepts: disable, require, verify-ca, verify-full
	SSLMode string
}

// RedisConfig is optional: it makes the per-user connection cap cluster-wide.
type RedisConfig struct {
	Host string
	Port int
}

type AuthConfig struct {
	JWTSecret      string
	JWTIssuer      string
	JWTAudience    string
	AccessTokenTTL time.Duration
}

type SignalingConfig struct {
	// RequestTimeout is how long a call may stay unanswered before it is evicted.
	RequestTimeout time.Duration

	MaxConnectionsPerUser int
	SendBuffer            int

	PingInterval   time.Duration
	AllowedOrigins []string
}

type ICEConfig struct {
	STUNURLs     []string
	TURNURLs     []string
	TURNUsername string
	TURNPassword string
}

const (
	defaultRequestTimeout        = 60 * time.Second
	defaultMaxConnectionsPerUser = 5
	defaultSendBuffer            = 64
	defaultPingInterval          = 25 * time.Second
)

func Load() (Config, error) {
	c := Config{}
	var p parseErrors

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	c.App.Port = p.int(requiredInt("APP_PORT"))
	c.App.NodeID = strings.TrimSpace(os.Getenv("NODE_ID"))

	c.DB.Host = strings.TrimSpace(os.Getenv("DB_HOST"))
	if c.DB.Host != "" {
		c.DB.Port = p.int(requiredInt("DB_PORT"))
	}
	c.DB.User = strings.TrimSpace(os.Getenv("DB_USER"))
	c.DB.Password = os.Getenv("DB_PASSWORD")
	c.DB.Name = strings.TrimSpace(os.Getenv("DB_NAME"))
	c.DB.SSLMode = strings.TrimSpace(os.Getenv("DB_SSLMODE"))

	c.Redis.Host = strings.TrimSpace(os.Getenv("REDIS_HOST"))
	if c.Redis.Host != "" {
		c.Redis.Port = p.int(requiredInt("REDIS_PORT"))
	}

	c.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	c.Auth.JWTIssuer = strings.TrimSpace(os.Getenv("JWT_ISSUER"))
	c.Auth.JWTAudience = strings.TrimSpace(os.Getenv("JWT_AUDIENCE"))
	c.Auth.AccessTokenTTL = p.duration(optionalDuration("JWT_ACCESS_TTL"))

	// Durations and sizes are optional; defaults applied in Validate().
	c.Signaling.RequestTimeout = p.duration(optionalDuration("SIGNAL_REQUEST_TIMEOUT"))
	c.Signaling.MaxConnectionsPerUser = p.int(optionalInt("SIGNAL_MAX_CONNECTIONS_PER_USER"))
	c.Signaling.SendBuffer = p.int(optionalInt("SIGNAL_SEND_BUFFER"))
	c.Signaling.PingInterval = p.duration(optionalDuration("WS_PING_INTERVAL"))
	c.Signaling.AllowedOrigins = splitList(os.Getenv("WS_ALLOWED_ORIGINS"))

	c.ICE.STUNURLs = splitList(os.Getenv("ICE_STUN_URLS"))
	c.ICE.TURNURLs = splitList(os.Getenv("ICE_TURN_URLS"))
	c.ICE.TURNUsername = strings.TrimSpace(os.Getenv("ICE_TURN_USERNAME"))
	c.ICE.TURNPassword = os.Getenv("ICE_TURN_PASSWORD")

	if err := joinErrors(p); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate reports every configuration problem at once and fills in defaults.
func (c *Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if !validPort(c.App.Port) {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}

	if c.PostgresEnabled() {
		if !validPort(c.DB.Port) {
			errs = append(errs, fmt.Errorf("DB_PORT must be a valid port, got %d", c.DB.Port))
		}
		if c.DB.User == "" {
			errs = append(errs, errors.New("DB_USER is required when DB_HOST is set"))
		}
		if c.DB.Name == "" {
			errs = append(errs, errors.New("DB_NAME is required when DB_HOST is set"))
		}
		if c.DB.SSLMode == "" {
			if c.IsProduction() {
				errs = append(errs, errors.New("DB_SSLMODE is required in production"))
			} else {
				// Local-friendly default; production must be explicit.
				c.DB.SSLMode = "disable"
			}
		}
		if c.DB.SSLMode != "" && !isValidSSLMode(c.DB.SSLMode) {
			errs = append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", c.DB.SSLMode))
		}
	}

	if c.RedisEnabled() && !validPort(c.Redis.Port) {
		errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.IsProduction() {
		if c.Auth.JWTIssuer == "" {
			errs = append(errs, errors.New("JWT_ISSUER is required in production"))
		}
		if c.Auth.JWTAudience == "" {
			errs = append(errs, errors.New("JWT_AUDIENCE is required in production"))
		}
		if len(c.Signaling.AllowedOrigins) == 0 {
			errs = append(errs, errors.New("WS_ALLOWED_ORIGINS is required in production"))
		}
	}
	if c.Auth.AccessTokenTTL <= 0 {
		c.Auth.AccessTokenTTL = 12 * time.Hour
	}

	if c.Signaling.RequestTimeout <= 0 {
		c.Signaling.RequestTimeout = defaultRequestTimeout
	}
	if c.Signaling.MaxConnectionsPerUser <= 0 {
		c.Signaling.MaxConnectionsPerUser = defaultMaxConnectionsPerUser
	}
	if c.Signaling.SendBuffer <= 0 {
		c.Signaling.SendBuffer = defaultSendBuffer
	}
	if c.Signaling.PingInterval <= 0 {
		c.Signaling.PingInterval = defaultPingInterval
	}

	if len(c.ICE.TURNURLs) > 0 && (c.ICE.TURNUsername == "" || c.ICE.TURNPassword == "") {
		errs = append(errs, errors.New("ICE_TURN_USERNAME and ICE_TURN_PASSWORD are required when ICE_TURN_URLS is set"))
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

// DevToolsEnabled gates developer-only endpoints such as token issuance.
func (c Config) DevToolsEnabled() bool {
	return c.App.Env == "local" || c.App.Env == "dev"
}

func (c Config) PostgresEnabled() bool { return c.DB.Host != "" }

func (c Config) RedisEnabled() bool { return c.Redis.Host != "" }

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func (c Config) PostgresDSN() string {
	// Avoid logging this string; it contains secrets.
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.DB.SSLMode,
	)
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func requiredInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func optionalInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func optionalDuration(key string) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration, got %q", key, v)
	}
	return d, nil
}

// parseErrors collects env parse failures so Load can report all of them.
type parseErrors []error

func (p *parseErrors) int(n int, err error) int {
	if err != nil {
		*p = append(*p, err)
	}
	return n
}

func (p *parseErrors) duration(d time.Duration, err error) time.Duration {
	if err != nil {
		*p = append(*p, err)
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func validPort(p int) bool { return p > 0 && p <= 65535 }

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func isValidSSLMode(v string) bool {
	switch v {
	case "disable", "require", "verify-ca", "verify-full":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
