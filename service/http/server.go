package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"prowl/pkg/prowler"
	"prowl/service"
	"sync"
	"time"
)

type Server struct {
	service.ServerImpl
	httpServer *http.Server
	pool       sync.Pool
}

func NewServer(listener net.Listener, p *prowler.Prowler) *Server {
	impl := service.ServerImpl{
		Listener: listener,
	}
	impl.SetupLogger("http")

	s := &Server{
		ServerImpl: impl,
		pool: sync.Pool{
			New: func() interface{} {
				return newProcessor(p)
			},
		},
	}

	s.httpServer = &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// Run serves until Stop is called.
func (s *Server) Run() error {
	s.Logger.Infof("listening on %s", s.Listener.Addr())
	if err := s.httpServer.Serve(s.Listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Stop() error {
	return s.httpServer.Shutdown(context.Background())
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := newContext(s.Logger, w, r)
	p := s.pool.Get().(*processor)
	defer s.pool.Put(p)

	ctx.chain = httpHandlerChain(p.worker)
	ctx.chain.exec(ctx)
}
