package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	cloudtasks "cloud.google.com/go/cloudtasks/apiv2"
	"github.com/spendkit/spend_service"
	"github.com/spendkit/spend_service/configs"
	"github.com/spendkit/spend_service/dispatch"
	"github.com/spendkit/spend_service/extract"
	"github.com/spendkit/spend_service/notify"
	"github.com/spendkit/spend_service/pkg/cloud_logging"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func NewDatabase(cfg *configs.AppConfig) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
}

func NewChannel(cfg *configs.AppConfig) notify.Channel {
	if cfg.SMTP.Host == "" {
		return notify.LogChannel{}
	}

	return notify.NewSMTPChannel(&cfg.SMTP)
}

func NewExtractor(cfg *configs.AppConfig) extract.Extractor {
	return extract.NewGeminiExtractor(&cfg.Gemini)
}

func NewDispatcher(cfg *configs.AppConfig) (dispatch.TaskDispatcher, error) {
	// Cloud Tasks needs a queue; without one, execute tasks inline.
	if cfg.QueuePath == "" {
		return dispatch.NewLocalDispatcher(), nil
	}

	client, err := cloudtasks.NewClient(context.Background())
	if err != nil {
		return nil, err
	}

	return dispatch.NewCloudTaskDispatcher(client), nil
}

func withCors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Headers", "Referer, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, Accept, Origin, Cache-Control, X-Requested-With, X-Webhook-Secret")
		w.Header().Set("Access-Control-Allow-Methods", "HEAD,PATCH,OPTIONS,GET,POST,PUT,DELETE")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type App struct {
	Run func() error
}

func NewApp(
	cfg *configs.AppConfig,
	mux *http.ServeMux,
	register spend_service.RegisterHandler,
) *App {
	return &App{
		Run: func() error {
			register()

			listen := fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)
			log.Println("listening on", listen)

			return http.ListenAndServe(
				listen,
				// Use h2c so we can serve HTTP/2 without TLS.
				h2c.NewHandler(
					withCors(mux),
					&http2.Server{}),
			)
		},
	}
}

func main() {
	cloud_logging.SetCloudLoggingDefault()
	app, err := InitializeApp()
	if err != nil {
		panic(err)
	}

	err = app.Run()
	if err != nil {
		panic(err)
	}
}
