package config

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggingConfig configures the application log. Level is one of none, debug
// or normal; Mode is append or overwrite.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Destination string `yaml:"destination,omitempty"`
	Mode        string `yaml:"mode,omitempty"`
}

func (conf *LoggingConfig) level() (zapcore.Level, bool) {
	switch conf.Level {
	case "debug":
		return zapcore.DebugLevel, true
	case "normal", "":
		return zapcore.InfoLevel, true
	}
	return zapcore.InfoLevel, false
}

// Prepare returns the program logger. The file core is used whenever a
// destination is set; console output goes to stderr only when requested,
// since the terminal UI owns the screen.
func (conf *LoggingConfig) Prepare(console bool) (*zap.Logger, error) {
	lvl, enabled := conf.level()
	if !enabled {
		return zap.NewNop(), nil
	}

	cores := []zapcore.Core{}
	if console {
		ec := zap.NewDevelopmentEncoderConfig()
		ec.EncodeCaller = nil
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(ec), zapcore.Lock(os.Stderr), lvl))
	}

	if conf.Destination != "" {
		if err := os.MkdirAll(filepath.Dir(conf.Destination), 0o700); err != nil {
			return nil, fmt.Errorf("unable to create log directory: %w", err)
		}
		flags := os.O_CREATE | os.O_WRONLY
		if conf.Mode == "overwrite" {
			flags |= os.O_TRUNC
		} else {
			flags |= os.O_APPEND
		}
		f, err := os.OpenFile(conf.Destination, flags, 0o644)
		if err != nil {
			return nil, fmt.Errorf("unable to access file log destination (%s): %w", conf.Destination, err)
		}
		enc := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		cores = append(cores, zapcore.NewCore(enc, zapcore.Lock(f), lvl))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()).Named("linga-t"), nil
}
