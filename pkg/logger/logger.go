// Package logger constructs zap loggers from a small flag-friendly Config.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	DevMode bool
	Level   zapcore.Level
	Mode    FileMode
	// Path is the destination for log output: stderr, stdout, /dev/null,
	// or a file system path.
	Path string
}

// New creates a zap.Logger that writes to the destination named by
// conf.Path.  An empty path yields a nop logger.
func New(conf Config) (*zap.Logger, error) {
	if conf.Path == "" {
		return zap.NewNop(), nil
	}
	w, err := OpenFile(conf.Path, conf.Mode)
	if err != nil {
		return nil, err
	}
	var encoder zapcore.Encoder
	switch conf.Path {
	case "stderr", "stdout":
		encoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	default:
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	}
	core := zapcore.NewCore(encoder, w, conf.Level)
	var opts []zap.Option
	if conf.DevMode {
		opts = append(opts, zap.Development())
	}
	return zap.New(core, opts...), nil
}
