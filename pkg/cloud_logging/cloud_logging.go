// Package cloud_logging configures slog for Cloud Logging ingestion:
// JSON lines with severity/message field names the collector expects.
package cloud_logging

import (
	"log/slog"
	"os"
)

func SetCloudLoggingDefault() {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			switch a.Key {
			case slog.LevelKey:
				a.Key = "severity"
				if level, ok := a.Value.Any().(slog.Level); ok && level == slog.LevelWarn {
					a.Value = slog.StringValue("WARNING")
				}
			case slog.MessageKey:
				a.Key = "message"
			case slog.TimeKey:
				a.Key = "timestamp"
			}
			return a
		},
	})

	slog.SetDefault(slog.New(handler))
}
