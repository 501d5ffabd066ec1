package config

import (
	"os"

	"github.com/sirupsen/logrus"
)

func NewLogger(c Config) *logrus.Logger {
	logg := logrus.New()
	if c.LogJSON {
		logg.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logg.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logg.SetLevel(level)
	logg.SetOutput(os.Stdout)
	return logg
}

func LogError(logger logrus.FieldLogger, moduleName string, funcName string, context string, data any, err error) {
	fields := logrus.Fields{
		"module":   moduleName,
		"funcName": funcName,
		"context":  context,
	}
	if data != nil {
		fields["data"] = data
	}
	logger.WithFields(fields).Error(err.Error())
}
