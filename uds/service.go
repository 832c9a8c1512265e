package uds

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"maps"
	"net"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/zeptools/gw-contracts/svc"
)

// Service is the local control socket: one text command per line,
// answered on the same connection until "quit" or EOF.
type Service struct {
	Ctx        context.Context    // Service Context
	cancel     context.CancelFunc // Service Context CancelFunc
	mu         sync.Mutex
	state      int        // internal service state
	done       chan error // Shutdown Error Channel
	SocketPath string
	CmdMap     map[string]CmdHnd
	listener   net.Listener
}

func (s *Service) Name() string {
	return "UDSService"
}

func NewService(parentCtx context.Context, sockPath string, cmdMap map[string]CmdHnd) *Service {
	svcCtx, svcCancel := context.WithCancel(parentCtx)
	return &Service{
		Ctx:        svcCtx,
		cancel:     svcCancel,
		state:      svc.StateREADY,
		done:       make(chan error, 1),
		SocketPath: sockPath,
		CmdMap:     cmdMap,
	}
}

// Start the unix socket service in the background.
// Bootstrapping errors are returned immediately.
// Runtime errors are pushed into Done().
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != svc.StateREADY {
		return fmt.Errorf("cannot start. not ready")
	}
	// clean up old socket if any
	_ = os.Remove(s.SocketPath)
	listener, err := net.Listen("unix", s.SocketPath)
	if err != nil {
		return fmt.Errorf("listen(%q) failed: %w", s.SocketPath, err)
	}
	// tighten permissions immediately after binding
	if err = os.Chmod(s.SocketPath, 0600); err != nil {
		_ = listener.Close()
		_ = os.Remove(s.SocketPath)
		return fmt.Errorf("chmod(%q) failed: %w", s.SocketPath, err)
	}
	s.listener = listener
	s.state = svc.StateRUNNING
	go s.run()
	return nil
}

func (s *Service) Stop() {
	s.mu.Lock()
	if s.state != svc.StateRUNNING {
		s.mu.Unlock()
		log.Println("[ERROR][UDS] cannot stop. not running")
		return
	}
	s.state = svc.StateSTOPPED
	s.mu.Unlock()
	s.cancel()
}

func (s *Service) Done() <-chan error {
	return s.done
}

// run - internal run loop
func (s *Service) run() {
	go func() {
		<-s.Ctx.Done()
		log.Printf("[INFO][UDS] stopping")
		if err := s.listener.Close(); err != nil {
			log.Printf("[ERROR][UDS] cannot close listener: %v", err)
		}
		// To avoid TOCTOU race, just try removing before checking if it exists.
		if err := os.Remove(s.SocketPath); err != nil && !os.IsNotExist(err) {
			log.Printf("[ERROR][UDS] cannot remove socket file: %v", err)
		}
	}()

	log.Printf("[INFO][UDS] listening on %q ...", s.SocketPath)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				log.Printf("[INFO][UDS] socket closed")
				s.done <- nil // also a clean shutdown
				return
			}
			// For transient errors, don't kill the loop
			log.Println("[ERROR][UDS] accept failed:", err)
			continue
		}
		go s.handleConn(conn)
	}
}

func (s *Service) writeHelp(w io.Writer) {
	_, _ = fmt.Fprintf(w, "%-28s %s\n", "help", "list commands")
	_, _ = fmt.Fprintf(w, "%-28s %s\n", "quit", "close this connection")
	for _, key := range slices.Sorted(maps.Keys(s.CmdMap)) {
		hnd := s.CmdMap[key]
		usage := key
		if hnd.Usage != "" {
			usage = key + " " + hnd.Usage
		}
		_, _ = fmt.Fprintf(w, "%-28s %s\n", usage, hnd.Desc)
	}
}

func (s *Service) handleConn(c net.Conn) {
	stop := context.AfterFunc(s.Ctx, func() { _ = c.Close() })
	defer stop()
	defer func() {
		if err := c.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			log.Printf("[ERROR][UDS] closing connection: %v", err)
		}
	}()

	reader := bufio.NewReader(io.LimitReader(c, 1<<20)) // 1 MB max per connection
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				log.Printf("[ERROR][UDS] read error: %v", err)
			}
			return
		}
		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}
		switch cmd := args[0]; cmd {
		case "quit":
			return
		case "help":
			s.writeHelp(c)
		default:
			hnd, ok := s.CmdMap[cmd]
			if !ok {
				_, _ = fmt.Fprintf(c, "unknown command: %s\n", cmd)
				continue
			}
			log.Printf("[INFO][UDS] requested command `%s`", strings.Join(args, " "))
			if err = hnd.Fn(s.Ctx, args[1:], c); err != nil {
				_, _ = fmt.Fprintf(c, "error: %v\n", err)
			}
		}
		_, _ = fmt.Fprintln(c, ".") // end of response
	}
}
