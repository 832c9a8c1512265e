package web

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/zeptools/gw-contracts/svc"
)

const DefaultShutdownTimeout = 15 * time.Second

// Service runs the HTTP server as a svc.Service. Cancelling the parent
// context or calling Stop shuts it down gracefully.
type Service struct {
	Ctx             context.Context    // Service Context
	cancel          context.CancelFunc // Service Context CancelFunc
	mu              sync.Mutex
	state           int        // internal service state
	done            chan error // Shutdown Error Channel
	Server          *http.Server
	ShutdownTimeout time.Duration
	listener        net.Listener
}

func (s *Service) Name() string {
	return "WebService"
}

func NewService(parentCtx context.Context, addr string, router http.Handler) *Service {
	svcCtx, svcCancel := context.WithCancel(parentCtx)
	return &Service{
		Ctx:    svcCtx,
		cancel: svcCancel,
		state:  svc.StateREADY,
		done:   make(chan error, 1),
		Server: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
			BaseContext:       func(net.Listener) context.Context { return svcCtx },
		},
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}

// Start binds the listen address; a bind failure is returned here.
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != svc.StateREADY {
		return fmt.Errorf("cannot start. not ready")
	}
	ln, err := net.Listen("tcp", s.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen(%q) failed: %w", s.Server.Addr, err)
	}
	s.listener = ln
	s.state = svc.StateRUNNING
	go s.run()
	return nil
}

// Addr is the bound address, useful with port 0.
func (s *Service) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return s.Server.Addr
	}
	return s.listener.Addr().String()
}

func (s *Service) Stop() {
	s.mu.Lock()
	if s.state != svc.StateRUNNING {
		s.mu.Unlock()
		log.Println("[ERROR][WEB] cannot stop. not running")
		return
	}
	s.state = svc.StateSTOPPED
	s.mu.Unlock()
	s.cancel()
}

func (s *Service) Done() <-chan error {
	return s.done
}

func (s *Service) run() {
	serveErr := make(chan error, 1)
	go func() {
		log.Printf("[INFO][WEB] listening on %s ...", s.listener.Addr())
		if err := s.Server.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()

	select {
	case err := <-serveErr:
		// server died on its own
		log.Printf("[ERROR][WEB] server stopped: %v", err)
		s.done <- err
		return
	case <-s.Ctx.Done():
	}

	log.Println("[INFO][WEB] shutting down ...")
	// Stop accepting new requests; requests in flight get ShutdownTimeout to finish
	ctx, cancel := context.WithTimeout(context.Background(), s.ShutdownTimeout)
	defer cancel()
	err := s.Server.Shutdown(ctx)
	if err != nil {
		log.Printf("[ERROR][WEB] server shutdown failed: %v", err)
	}
	if serr := <-serveErr; serr != nil && err == nil {
		err = serr
	}
	log.Println("[INFO][WEB] shutdown complete")
	s.done <- err
}
