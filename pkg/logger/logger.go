package logger

import "go.uber.org/zap"

// New builds the production logger used across the service. DEBUG_LOG
// is for local development only.
func New(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
