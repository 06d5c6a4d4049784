package logger

import (
	"context"
	"log"

	"github.com/CE-Thesis-2023/camctl/src/internal/configs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Options struct {
	globalConfigs *configs.LoggerConfigs
}

type Optioner func(o *Options)

func WithGlobalConfigs(c *configs.LoggerConfigs) Optioner {
	return func(o *Options) {
		o.globalConfigs = c
	}
}

func Init(ctx context.Context, options ...Optioner) {
	opts := &Options{
		globalConfigs: &configs.LoggerConfigs{},
	}
	for _, o := range options {
		o(opts)
	}

	zl, err := newZapLogger(opts.globalConfigs)
	if err != nil {
		log.Fatalf("logger.Init: err = %s", err)
		return
	}
	zap.ReplaceGlobals(zl)
}

func newZapLogger(c *configs.LoggerConfigs) (*zap.Logger, error) {
	var zc zap.Config
	switch c.Encoding {
	case "console":
		zc = zap.NewDevelopmentConfig()
	default:
		zc = zap.NewProductionConfig()
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	if len(c.Level) > 0 {
		level, err := zap.ParseAtomicLevel(c.Level)
		if err != nil {
			return nil, err
		}
		zc.Level = level
	}

	return zc.Build()
}

func Logger() *zap.Logger {
	return zap.L()
}

func SDebug(msg string, fields ...zap.Field) {
	zap.L().Debug(msg, fields...)
}

func SInfo(msg string, fields ...zap.Field) {
	zap.L().Info(msg, fields...)
}

func SWarn(msg string, fields ...zap.Field) {
	zap.L().Warn(msg, fields...)
}

func SError(msg string, fields ...zap.Field) {
	zap.L().Error(msg, fields...)
}

func SFatal(msg string, fields ...zap.Field) {
	zap.L().Fatal(msg, fields...)
}

func Close() {
	zap.L().Sync()
}
