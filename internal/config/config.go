package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Name string `envconfig:"APP_NAME" default:"Hermes"`
		Port int    `envconfig:"PORT" default:"44444"`
	}

	Auth struct {
		Password string `envconfig:"PASSWORD" default:""`
	}

	Clinic struct {
		URL     string        `envconfig:"CLINIC_URL" default:""`
		Token   string        `envconfig:"CLINIC_TOKEN"`
		Timeout time.Duration `envconfig:"CLINIC_TIMEOUT" default:"30s"`
	}

	Centrifugo struct {
		Enabled        bool          `envconfig:"ENABLE_CENTRIFUGO_LISTENER" default:"false"`
		URL            string        `envconfig:"CENTRIFUGO_URL" default:""`
		Channel        string        `envconfig:"CENTRIFUGO_CHANNEL" default:""`
		Secret         string        `envconfig:"CENTRIFUGO_SECRET" default:""`
		ReconnectDelay time.Duration `envconfig:"CENTRIFUGO_RECONNECT_DELAY" default:"1s"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"hermes"`
	}

	Device struct {
		Driver       string        `envconfig:"DEVICE_DRIVER" default:"atolweb"`
		URL          string        `envconfig:"DEVICE_URL" default:"http://127.0.0.1:16732"`
		Timeout      time.Duration `envconfig:"DEVICE_TIMEOUT" default:"60s"`
		PollInterval time.Duration `envconfig:"DEVICE_POLL_INTERVAL" default:"500ms"`
	}

	Session struct {
		Dir string `envconfig:"SESSION_DIR" default:"data/session"`
	}

	Labels struct {
		Printer  string `envconfig:"LABEL_PRINTER" default:""`
		Codepage string `envconfig:"LABEL_CODEPAGE" default:"cp866"`
	}

	Log struct {
		File  string `envconfig:"LOG_FILE" default:""`
		Debug bool   `envconfig:"LOG_DEBUG" default:"false"`
	}

	HTTP struct {
		AllowedOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:""`
		ShutdownAfter  time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}
