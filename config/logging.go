package config

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger builds the process logger. Every entry carries the service name
// and environment.
func NewLogger(cfg Config) *logrus.Logger {
	return newLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat, cfg.Env)
}

func newLogger(out io.Writer, level, format, env string) *logrus.Logger {
	log := logrus.New()
	log.Out = out
	if format == "text" {
		log.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	} else {
		log.Formatter = &logrus.JSONFormatter{}
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	log.AddHook(&DefaultFieldsHook{Service: ServiceName, Env: env})
	return log
}

const ServiceName = "attendance-engine"

type DefaultFieldsHook struct {
	Service string
	Env     string
}

func (hook *DefaultFieldsHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (hook *DefaultFieldsHook) Fire(e *logrus.Entry) error {
	e.Data["service"] = hook.Service
	e.Data["env"] = hook.Env
	return nil
}
