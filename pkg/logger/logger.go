package logger

import (
	"fmt"

	"go.uber.org/zap"
)

// New builds the process-wide zap logger. It is constructed once in
// main and handed to services explicitly; there is no ambient global.
func New() (*zap.Logger, error) {
	l, err := zap.NewProduction()
	if err != nil {
		return nil, fmt.Errorf("error creating new logger: %w", err)
	}
	return l, nil
}
