package config

import (
	"github.com/sirupsen/logrus" // Structured logging
)

// ConfigureLogging sets the logrus formatter and level for the process
func (c *Config) ConfigureLogging() {
	if c.IsProd {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		logrus.WithField("level", c.LogLevel).Warn("Unknown log level, using info")
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}
