package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger - общий логгер приложения. До InitLogger это no-op логгер,
// поэтому пакеты можно использовать в тестах без инициализации.
var Logger = zap.NewNop()

// InitLogger создаёт production (JSON) или development (консоль) логгер.
func InitLogger(production bool) error {
	var config zap.Config

	if production {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	logger, err := config.Build()
	if err != nil {
		return err
	}
	Logger = logger
	return nil
}

// Sync сбрасывает буферы логгера; вызывается при завершении процесса.
func Sync() {
	_ = Logger.Sync()
}
