package tape

import "log"

// Logger is the logging interface used across the module. Wrap your
// own logger (zap, logrus, slog) to plug it in via the options.
type Logger interface {
	Infof(format string, v ...interface{})
	Warnf(format string, v ...interface{})
	Errorf(format string, v ...interface{})
}

type stdLog struct{}

func (stdLog) Infof(format string, v ...interface{}) {
	log.Printf("INFO "+format, v...)
}

func (stdLog) Warnf(format string, v ...interface{}) {
	log.Printf("WARN "+format, v...)
}

func (stdLog) Errorf(format string, v ...interface{}) {
	log.Printf("ERROR "+format, v...)
}

// DefaultLogger returns a Logger backed by the standard log package.
func DefaultLogger() Logger {
	return stdLog{}
}
