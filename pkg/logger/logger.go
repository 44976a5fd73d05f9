package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

var Logger *logrus.Logger

// InitLogger sets up the process-wide logger. Production output is JSON
// for log aggregation; development output is colored text.
func InitLogger(logLevel string, isDevelopment bool) {
	Logger = logrus.New()
	Logger.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	Logger.SetLevel(level)

	if isDevelopment {
		Logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
	} else {
		Logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	}
}

// GetLogger returns the configured logger, initializing a default one if
// InitLogger has not been called yet.
func GetLogger() *logrus.Logger {
	if Logger == nil {
		InitLogger("info", false)
	}
	return Logger
}
