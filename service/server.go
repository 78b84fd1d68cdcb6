package service

import (
	"net"
	"prowl/pkg/logflags"
)

// Server represents a server for a remote client
// to connect to.
type Server interface {
	Run() error
	Stop() error
	Addr() net.Addr
}

type ServerImpl struct {
	Logger   logflags.Logger
	Listener net.Listener
}

// SetupLogger picks the subsystem logger for the server kind. logflags.Setup
// must already have run.
func (si *ServerImpl) SetupLogger(kind string) {
	switch kind {
	case "grpc":
		si.Logger = logflags.GRPCLogger()
	case "http":
		fallthrough
	default:
		si.Logger = logflags.HTTPLogger()
	}
}

func (si *ServerImpl) Addr() net.Addr {
	return si.Listener.Addr()
}
