package postgres

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

const (
	_applicationName = "fund-tracker"
	_connectTimeout  = 5 * time.Second
	_maxOpenConns    = 8
	_maxIdleConns    = 4
	_connMaxIdleTime = 5 * time.Minute
)

type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	DBName   string
	SSLMode  string
}

func NewConfigFromEnv() *Config {
	return &Config{
		Host:     os.Getenv("POSTGRES_HOST"),
		Port:     os.Getenv("POSTGRES_PORT"),
		Username: os.Getenv("POSTGRES_USERNAME"),
		Password: os.Getenv("POSTGRES_PASSWORD"),
		DBName:   os.Getenv("POSTGRES_DB_NAME"),
		SSLMode:  os.Getenv("POSTGRES_SSL_MODE"),
	}
}

func (c *Config) Setup() *Config {
	const (
		defaultHost     = "localhost"
		defaultPort     = "5432"
		defaultUsername = "postgres"
		defaultPassword = "postgres"
		defaultDBName   = "fund_tracker"
		defaultSSLMode  = "disable"
	)

	c.Host = cmp.Or(c.Host, defaultHost)
	if _, err := strconv.Atoi(c.Port); err != nil {
		c.Port = defaultPort
	}
	c.Username = cmp.Or(c.Username, defaultUsername)
	c.Password = cmp.Or(c.Password, defaultPassword)
	c.DBName = cmp.Or(c.DBName, defaultDBName)
	c.SSLMode = cmp.Or(c.SSLMode, defaultSSLMode)

	return c
}

func (c *Config) dsn(password string) string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s dbname=%s password=%s sslmode=%s application_name=%s connect_timeout=%d",
		c.Host, c.Port, c.Username, c.DBName, password, c.SSLMode,
		_applicationName, int(_connectTimeout.Seconds()),
	)
}

func (c *Config) String() string {
	return c.dsn(c.Password)
}

// Redacted is String with the password masked, for logs.
func (c *Config) Redacted() string {
	return c.dsn("***")
}

func NewDB(ctx context.Context, cfg *Config) (*sqlx.DB, error) {
	ctx, cancel := context.WithTimeout(ctx, _connectTimeout)
	defer cancel()

	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.String())
	if err != nil {
		return nil, fmt.Errorf("%w: can't connect to %s", err, cfg.Redacted())
	}
	db.SetMaxOpenConns(_maxOpenConns)
	db.SetMaxIdleConns(_maxIdleConns)
	db.SetConnMaxIdleTime(_connMaxIdleTime)

	return db, nil
}
