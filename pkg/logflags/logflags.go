package logflags

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// DefaultLogDesc leaves log output on stderr.
const DefaultLogDesc = ""

var (
	prowler = false
	http    = false
	grpc    = false

	logOut io.WriteCloser = os.Stderr
)

var errLogstrWithoutLog = errors.New("--log-output specified without --log")

// Logger is the subset of *zap.SugaredLogger used across the repository.
type Logger interface {
	Debug(args ...interface{})
	Info(args ...interface{})
	Warn(args ...interface{})
	Error(args ...interface{})
	Debugf(template string, args ...interface{})
	Infof(template string, args ...interface{})
	Warnf(template string, args ...interface{})
	Errorf(template string, args ...interface{})
}

// Prowler returns true if the engine should log.
func Prowler() bool {
	return prowler
}

// HTTP returns true if the http service should log.
func HTTP() bool {
	return http
}

// GRPC returns true if the grpc service should log.
func GRPC() bool {
	return grpc
}

// Setup sets debugger flags based on the contents of logstr.
// If logDest is not empty logs will be redirected to the file named by
// logDest.
func Setup(logFlag bool, logStr, logDest string) error {
	if logDest != "" {
		f, err := os.OpenFile(logDest, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
		if err != nil {
			return fmt.Errorf("could not open log destination %q: %w", logDest, err)
		}
		logOut = f
	}

	if !logFlag {
		if logStr != "" && logStr != "prowler" {
			return errLogstrWithoutLog
		}
		return nil
	}

	if logStr == "" {
		logStr = "prowler"
	}

	for _, logcmd := range strings.Split(logStr, ",") {
		switch strings.TrimSpace(logcmd) {
		case "prowler":
			prowler = true
		case "http":
			http = true
		case "grpc":
			grpc = true
		default:
			return fmt.Errorf("unknown log output %q", logcmd)
		}
	}

	return nil
}

// Close closes the logger output.
func Close() {
	if logOut != os.Stderr {
		_ = logOut.Close()
		logOut = os.Stderr
	}
}
