package grpc

import (
	"context"
	"errors"
	"net"
	e "prowl/error"
	"prowl/pkg/prowler"
	"prowl/service"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

type Server struct {
	service.ServerImpl
	grpcServer *grpc.Server
	health     *health.Server
	prowler    *prowler.Prowler
}

func NewServer(listener net.Listener, p *prowler.Prowler) *Server {
	s := &Server{
		ServerImpl: service.ServerImpl{
			Listener: listener,
		},
		health:  health.NewServer(),
		prowler: p,
	}
	s.SetupLogger("grpc")

	s.grpcServer = grpc.NewServer(grpc.ChainUnaryInterceptor(s.logUnary, s.recoverUnary))
	s.grpcServer.RegisterService(&prowlServiceDesc, s)
	healthpb.RegisterHealthServer(s.grpcServer, s.health)
	s.health.SetServingStatus(serviceName, healthpb.HealthCheckResponse_SERVING)

	return s
}

// Run serves until Stop is called.
func (s *Server) Run() error {
	s.Logger.Infof("listening on %s", s.Listener.Addr())
	if err := s.grpcServer.Serve(s.Listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

func (s *Server) Stop() error {
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
	return nil
}

func (s *Server) Exec(_ context.Context, req *ExecRequest) (*ExecReply, error) {
	cmd, ok := service.ParseCmdType(req.Cmd)
	if !ok {
		return nil, status.Errorf(codes.InvalidArgument, "unknown command %q", req.Cmd)
	}

	out, err := service.Exec(s.prowler, cmd, req.Args)
	if err != nil {
		return nil, status.Error(errorCode(err), err.Error())
	}
	return &ExecReply{Output: out}, nil
}

func (s *Server) Ping(context.Context, *PingRequest) (*PingReply, error) {
	return &PingReply{Pid: s.prowler.Pid()}, nil
}

func errorCode(err error) codes.Code {
	switch {
	case errors.Is(err, e.InvalidExpression), errors.Is(err, e.ReplacementSize):
		return codes.InvalidArgument
	case errors.Is(err, e.RegionNotFound), errors.Is(err, e.RegionAbsent):
		return codes.NotFound
	case errors.Is(err, e.NoSuchProcess):
		return codes.Unavailable
	case errors.Is(err, e.RemoteReadFailed), errors.Is(err, e.RemoteWriteFailed):
		return codes.Aborted
	}
	return codes.Internal
}

func (s *Server) logUnary(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	id := uuid.New().String()
	start := time.Now()
	s.Logger.Debugf("id: %s method: %s request: %+v", id, info.FullMethod, req)

	resp, err := handler(ctx, req)
	if err != nil {
		s.Logger.Debugf("id: %s failed after %s: %v", id, time.Since(start), err)
		return nil, err
	}
	s.Logger.Debugf("id: %s done after %s", id, time.Since(start))
	return resp, nil
}

// recoverUnary turns a handler panic into an Internal error.
func (s *Server) recoverUnary(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.Logger.Errorf("method: %s panic: %v\n%s", info.FullMethod, r, debug.Stack())
			resp, err = nil, status.Errorf(codes.Internal, "panic: %v", r)
		}
	}()
	return handler(ctx, req)
}
