package logger

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	DefaultFile = "carecircle.log"

	// NoFile disables the rotated JSON file
	NoFile = "-"
)

// Log is the process-wide logger. It discards everything until Initialize
// runs, so packages may log from tests without setup.
var Log = zap.NewNop()

var level = zap.NewAtomicLevel()

// Initialize installs a console logger on stdout and, unless logFile is
// NoFile, a JSON logger rotated by lumberjack. Both share one level.
func Initialize(logLevel string, logFile string) error {
	if logFile == "" {
		logFile = DefaultFile
	}
	level.SetLevel(parseLogLevel(logLevel))

	cores := []zapcore.Core{
		zapcore.NewCore(
			zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
			zapcore.Lock(os.Stdout),
			level,
		),
	}
	if logFile != NoFile {
		encoder := zap.NewProductionEncoderConfig()
		encoder.EncodeTime = zapcore.ISO8601TimeEncoder
		rotated := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    100, // MB
			MaxBackups: 5,
			MaxAge:     7, // days
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoder), zapcore.AddSync(rotated), level))
	}

	Log = zap.New(zapcore.NewTee(cores...),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.Fields(zap.Int("pid", os.Getpid())),
	)
	Log.Debug("Logger ready", zap.Stringer("level", level.Level()), zap.String("file", logFile))
	return nil
}

// SetLevel changes the level of an initialized logger
func SetLevel(logLevel string) {
	level.SetLevel(parseLogLevel(logLevel))
}

// parseLogLevel falls back to info for anything zap does not recognize
func parseLogLevel(s string) zapcore.Level {
	if s == "warning" || s == "WARNING" {
		return zapcore.WarnLevel
	}
	lvl, err := zapcore.ParseLevel(s)
	if err != nil || lvl > zapcore.ErrorLevel {
		return zapcore.InfoLevel
	}
	return lvl
}

func Close() error {
	return Log.Sync()
}

// WarnWithFields logs msg at warn, attaching err when present
func WarnWithFields(msg string, err error) {
	Log.Warn(msg, errField(err)...)
}

func ErrorWithFields(msg string, err error) {
	Log.Error(msg, errField(err)...)
}

// FatalWithFields logs at fatal and exits the process
func FatalWithFields(msg string, err error) {
	Log.Fatal(msg, errField(err)...)
}

func errField(err error) []zap.Field {
	if err == nil {
		return nil
	}
	return []zap.Field{zap.Error(err)}
}

func WithRequestID(requestID string) zap.Field {
	return zap.String("request_id", requestID)
}

func WithUserID(userID string) zap.Field {
	return zap.String("user_id", userID)
}

// WithTarget tags a polymorphic target as "type:id", e.g. "Post:<uuid>"
func WithTarget(targetType, targetID string) zap.Field {
	return zap.String("target", fmt.Sprintf("%s:%s", targetType, targetID))
}

func WithEventID(eventID string) zap.Field {
	return zap.String("event_id", eventID)
}

func WithIP(ip string) zap.Field {
	return zap.String("ip", ip)
}
