package observability

import "go.uber.org/zap"

// NewLogger builds the binaries' logger: JSON production output, or the
// human-readable development encoder with debug level when debug is set.
func NewLogger(debug bool, name string) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	return logger.Named(name), nil
}
