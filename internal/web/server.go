// Package web serves the HTTP control surface: a JSON command API over
// the player loop's Facade, a status snapshot endpoint, and a
// server-sent-events stream presenters can use for live updates instead
// of polling. Grounded on the teacher's sibling example
// arung-agamani-denpa-radio's internal/radio/server.go (one Server
// struct wrapping an http.Server, Start(ctx) racing ListenAndServe
// against ctx.Done(), writeJSON/writeError helpers), rebuilt on
// github.com/gin-gonic/gin for routing and request binding instead of
// net/http's ServeMux.
package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/llehouerou/qobuz-player-go/internal/observer"
	"github.com/llehouerou/qobuz-player-go/internal/player"
	"github.com/llehouerou/qobuz-player-go/internal/remote"
	"github.com/llehouerou/qobuz-player-go/internal/tracklist"
)

// Server is the HTTP presenter for the player loop.
type Server struct {
	engine     *gin.Engine
	httpServer *http.Server

	facade *player.Facade
	remote remote.Client

	statusSub *observer.Subscription[player.Status]
	posSub    *observer.Subscription[time.Duration]
	tlSub     *observer.Subscription[tracklist.Snapshot]
	volumeSub *observer.Subscription[float32]
}

// New builds a Server bound to addr, wired to loop's Facade and
// observer subscriptions and to client for the favorites routes that
// fall outside the engine's scope.
func New(addr string, loop *player.Loop, client remote.Client) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		engine:    engine,
		facade:    loop.Facade(),
		remote:    client,
		statusSub: loop.Status(),
		posSub:    loop.Position(),
		tlSub:     loop.Tracklist(),
		volumeSub: loop.Volume(),
	}

	s.routes()
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      engine,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 0, // SSE connections stay open indefinitely
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Run starts the HTTP server and blocks until ctx is cancelled or the
// server fails to start.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}
