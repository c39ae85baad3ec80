package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Logger configures the logger parsers write to.
type Logger struct {
	// Level is a logrus level name like "debug" or "warning".
	Level string
	// Format is "json" or "text".
	Format string
	// Output is "stdout" or "stderr".
	Output string
}

func getLoggerConfig(v *viper.Viper) *Logger {
	return &Logger{
		Level:  v.GetString("logger.level"),
		Format: v.GetString("logger.format"),
		Output: v.GetString("logger.output"),
	}
}

func (c *Logger) level() (logrus.Level, error) {
	lv, err := logrus.ParseLevel(c.Level)
	if err != nil {
		return 0, fmt.Errorf("invalid logger level: %w", err)
	}
	return lv, nil
}

// New creates a logger with the configured level, format, and output.
func (c *Logger) New() (*logrus.Logger, error) {
	lv, err := c.level()
	if err != nil {
		return nil, err
	}
	l := logrus.New()
	l.SetLevel(lv)
	switch strings.ToLower(c.Format) {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		l.SetFormatter(&logrus.TextFormatter{})
	}
	switch strings.ToLower(c.Output) {
	case "stdout":
		l.SetOutput(os.Stdout)
	default:
		l.SetOutput(os.Stderr)
	}
	return l, nil
}
