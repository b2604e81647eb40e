package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New creates the application logger. Development uses a readable text
// formatter at debug level, every other environment emits JSON at info.
func New(appName, env string) *logrus.Logger {
	return newWithOutput(appName, env, os.Stdout)
}

func newWithOutput(appName, env string, out io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(out)
	if env == "development" {
		log.SetLevel(logrus.DebugLevel)
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		log.SetLevel(logrus.InfoLevel)
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	log.WithFields(logrus.Fields{"app": appName, "env": env}).Debug("logger initialized")
	return log
}

// Discard returns a logger that drops everything, for tests.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
