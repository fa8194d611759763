// internal/logger/logger.go
package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/javajoker/jewelry-backend/internal/config"
)

// Init configures the standard logrus logger. Production defaults to JSON
// output; development to colored text.
func Init(cfg *config.Config) {
	logrus.SetOutput(os.Stdout)
	logrus.SetLevel(parseLevel(cfg.Log.Level))

	format := strings.ToLower(cfg.Log.Format)
	if format == "" {
		format = "text"
		if cfg.IsProduction() {
			format = "json"
		}
	}

	if format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
		return
	}

	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
}

func parseLevel(level string) logrus.Level {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return logrus.InfoLevel
	}
	return parsed
}
