package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog behind the small surface the rest of the codebase uses.
type Logger struct {
	logger zerolog.Logger
}

// Config controls level, format and destination of log output.
type Config struct {
	Level      string
	Format     string // json or console
	OutputPath string // empty means stdout
}

func New(cfg Config) *Logger {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	var out io.Writer = os.Stdout
	if cfg.OutputPath != "" {
		if f, err := os.OpenFile(cfg.OutputPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644); err == nil {
			out = f
		}
	}
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	return &Logger{logger: zerolog.New(out).With().Timestamp().Caller().Logger()}
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

func (l *Logger) Debug(msg string)                      { l.logger.Debug().Msg(msg) }
func (l *Logger) Debugf(format string, v ...interface{}) { l.logger.Debug().Msgf(format, v...) }
func (l *Logger) Info(msg string)                       { l.logger.Info().Msg(msg) }
func (l *Logger) Infof(format string, v ...interface{})  { l.logger.Info().Msgf(format, v...) }
func (l *Logger) Warn(msg string)                       { l.logger.Warn().Msg(msg) }
func (l *Logger) Warnf(format string, v ...interface{})  { l.logger.Warn().Msgf(format, v...) }
func (l *Logger) Error(msg string)                      { l.logger.Error().Msg(msg) }
func (l *Logger) Errorf(format string, v ...interface{}) { l.logger.Error().Msgf(format, v...) }

// ErrorWithErr logs msg at error level with err attached.
func (l *Logger) ErrorWithErr(err error, msg string) { l.logger.Error().Err(err).Msg(msg) }

// Fatal logs and exits.
func (l *Logger) Fatal(msg string) { l.logger.Fatal().Msg(msg) }

// FatalWithErr logs with err attached and exits.
func (l *Logger) FatalWithErr(err error, msg string) { l.logger.Fatal().Err(err).Msg(msg) }

// FieldLogger carries pre-bound structured fields.
type FieldLogger struct {
	logger zerolog.Logger
}

// WithFields binds fields to every event logged through the result.
func (l *Logger) WithFields(fields map[string]interface{}) *FieldLogger {
	ctx := l.logger.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return &FieldLogger{logger: ctx.Logger()}
}

func (l *FieldLogger) Debug(msg string) { l.logger.Debug().Msg(msg) }
func (l *FieldLogger) Info(msg string)  { l.logger.Info().Msg(msg) }
func (l *FieldLogger) Warn(msg string)  { l.logger.Warn().Msg(msg) }
func (l *FieldLogger) Error(msg string) { l.logger.Error().Msg(msg) }

// ErrorWithErr logs msg at error level with err attached.
func (l *FieldLogger) ErrorWithErr(err error, msg string) { l.logger.Error().Err(err).Msg(msg) }
