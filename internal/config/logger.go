package config

import (
	"fmt"

	"go.uber.org/zap"
)

// NewLogger собирает zap-логгер: production пишет JSON, все остальное - development
func NewLogger(mode string) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)

	switch mode {
	case "production":
		logger, err = zap.NewProduction()
	default:
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize zap logger: %w", err)
	}

	return logger, nil
}
