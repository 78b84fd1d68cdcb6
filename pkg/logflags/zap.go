package logflags

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func ProwlerLogger() Logger {
	return newLogger(prowler, "prowler")
}

func HTTPLogger() Logger {
	return newLogger(http, "http")
}

func GRPCLogger() Logger {
	return newLogger(grpc, "grpc")
}

func newLogger(enabled bool, component string) Logger {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:      "timestamp",
		LevelKey:     "level",
		NameKey:      "component",
		MessageKey:   "message",
		CallerKey:    "caller",
		EncodeLevel:  zapcore.CapitalLevelEncoder,
		EncodeTime:   zapcore.ISO8601TimeEncoder,
		EncodeCaller: zapcore.ShortCallerEncoder,
		EncodeName:   zapcore.FullNameEncoder,
	}

	level := zapcore.ErrorLevel
	if enabled {
		level = zapcore.DebugLevel
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.NewMultiWriteSyncer(zapcore.AddSync(logOut)),
		level,
	)

	return zap.New(core, zap.AddCaller()).Named(component).Sugar()
}
