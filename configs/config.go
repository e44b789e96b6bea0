package configs

import (
	"github.com/caarlos0/env/v11"
)

type SMTPConfig struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT" envDefault:"587"`
	User     string `env:"SMTP_USER"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"FROM_EMAIL" envDefault:"no-reply@spendkit.dev"`
}

type GeminiConfig struct {
	APIKey string `env:"GEMINI_API_KEY"`
	Model  string `env:"GEMINI_MODEL" envDefault:"gemini-1.5-flash"`
}

type AppConfig struct {
	Host        string `env:"HOST"`
	Port        string `env:"PORT" envDefault:"8081"`
	DatabaseDSN string `env:"DATABASE_DSN"`

	// Endpoint is the externally reachable base URL of this service,
	// used as the target of dispatched background tasks.
	Endpoint  string `env:"SERVICE_ENDPOINT" envDefault:"http://localhost:8081"`
	QueuePath string `env:"TASK_QUEUE_PATH"`

	WebhookSecret string `env:"IDP_WEBHOOK_SECRET"`
	StreamToken   string `env:"IDP_STREAM_TOKEN"`

	SMTP   SMTPConfig
	Gemini GeminiConfig
}

func NewProductionConfig() (*AppConfig, error) {
	cfg, err := env.ParseAs[AppConfig]()
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}
