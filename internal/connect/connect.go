// Package connect implements the line-oriented TCP control protocol: a
// minimal newline-delimited JSON duplex channel exposing the same
// ControlCommand surface as the web and TUI presenters, for external
// "connect"-style remote controllers. Grounded on
// famish99-direttampd/internal/mpd/server.go's accept-loop/
// scanner-per-connection/idle-notify shape, rebuilt on JSON lines
// instead of MPD's bespoke text protocol.
package connect

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/llehouerou/qobuz-player-go/internal/observer"
	"github.com/llehouerou/qobuz-player-go/internal/player"
	"github.com/llehouerou/qobuz-player-go/internal/tracklist"
)

// Server accepts TCP connections and drives the command/event duplex
// protocol against one player.Loop.
type Server struct {
	addr   string
	facade *player.Facade

	statusSub *observer.Subscription[player.Status]
	posSub    *observer.Subscription[time.Duration]
	tlSub     *observer.Subscription[tracklist.Snapshot]
	volumeSub *observer.Subscription[float32]

	mu       sync.Mutex
	listener net.Listener
}

// New builds a Server bound to addr and wired to loop.
func New(addr string, loop *player.Loop) *Server {
	return &Server{
		addr:      addr,
		facade:    loop.Facade(),
		statusSub: loop.Status(),
		posSub:    loop.Position(),
		tlSub:     loop.Tracklist(),
		volumeSub: loop.Volume(),
	}
}

// Listen opens the TCP listener. Split from Serve so callers (and
// tests) can learn the bound address before the accept loop blocks,
// which matters when addr's port is 0.
func (s *Server) Listen() (net.Addr, error) {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return nil, fmt.Errorf("connect: listen on %s: %w", s.addr, err)
	}

	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	return listener.Addr(), nil
}

// Serve runs the accept loop against a listener already opened by
// Listen, until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	listener := s.listener
	s.mu.Unlock()
	if listener == nil {
		return fmt.Errorf("connect: Serve called before Listen")
	}

	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	slog.Info("connect server listening", "addr", listener.Addr())

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("connect: accept: %w", err)
		}
		go s.handleConnection(ctx, conn)
	}
}

// Run listens on addr and serves connections until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	if _, err := s.Listen(); err != nil {
		return err
	}
	return s.Serve(ctx)
}

func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	remote := conn.RemoteAddr()
	slog.Info("connect client connected", "remote", remote)
	defer slog.Info("connect client disconnected", "remote", remote)

	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var writeMu sync.Mutex
	enc := json.NewEncoder(conn)
	write := func(ev any) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return enc.Encode(ev)
	}

	if err := write(s.stateEvent()); err != nil {
		return
	}

	go s.pushStateChanges(connCtx, write)

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		var cmd clientCommand
		if err := json.Unmarshal(scanner.Bytes(), &cmd); err != nil {
			_ = write(errorEvent{Event: "error", Message: err.Error()})
			continue
		}
		s.dispatch(cmd)
	}
}

// pushStateChanges writes a fresh state event every time any of the
// four observer watches changes, mirroring the MPD server's idle
// connections notified on a subsystem change — except every connect
// client is always "idling" rather than opting in per-subsystem.
func (s *Server) pushStateChanges(ctx context.Context, write func(any) error) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.statusSub.Changed():
		case <-s.posSub.Changed():
		case <-s.tlSub.Changed():
		case <-s.volumeSub.Changed():
		}
		if err := write(s.stateEvent()); err != nil {
			return
		}
	}
}
