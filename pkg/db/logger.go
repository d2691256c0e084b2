package db

import (
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm/logger"
)

// NewLogger routes gorm's logging through logrus at a level matching the
// process log level.
func NewLogger(level string) logger.Interface {
	l := logger.Silent
	switch level {
	case "trace", "debug":
		l = logger.Info
	case "info", "warn":
		l = logger.Warn
	case "error":
		l = logger.Error
	}

	return logger.New(logrus.StandardLogger(), logger.Config{
		SlowThreshold:             time.Second,
		LogLevel:                  l,
		IgnoreRecordNotFoundError: true,
	})
}
