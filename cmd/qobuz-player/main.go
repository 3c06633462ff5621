// Command qobuz-player is the "open" entrypoint: it loads configuration
// and saved credentials, wires the remote client, store, sink and
// downloader into a player.Loop, and runs whichever presenters are
// enabled (TUI by default, web and connect opt-in, MPRIS always) until
// interrupted. Grounded on the teacher's root main.go wiring shape
// (config.Load -> initialModel -> tea.NewProgram), generalized from one
// bubbletea program into several presenters supervised together with
// golang.org/x/sync/errgroup, the same group the teacher's sibling
// example arung-agamani-denpa-radio uses to run its server and its
// background workers side by side.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/adrg/xdg"
	"golang.org/x/sync/errgroup"

	"github.com/llehouerou/qobuz-player-go/internal/apperror"
	"github.com/llehouerou/qobuz-player-go/internal/config"
	"github.com/llehouerou/qobuz-player-go/internal/connect"
	"github.com/llehouerou/qobuz-player-go/internal/downloader"
	"github.com/llehouerou/qobuz-player-go/internal/mpris"
	"github.com/llehouerou/qobuz-player-go/internal/notification"
	"github.com/llehouerou/qobuz-player-go/internal/player"
	"github.com/llehouerou/qobuz-player-go/internal/remote"
	"github.com/llehouerou/qobuz-player-go/internal/sink"
	"github.com/llehouerou/qobuz-player-go/internal/stderr"
	"github.com/llehouerou/qobuz-player-go/internal/store"
	"github.com/llehouerou/qobuz-player-go/internal/tui"
	"github.com/llehouerou/qobuz-player-go/internal/web"
)

const qobuzAPIBaseURL = "https://www.qobuz.com/api.json/0.2"

// flags mirrors the illustrative `open` subcommand surface: username,
// password, disable-tui, web, interface, device.
type flags struct {
	username   string
	password   string
	disableTUI bool
	web        bool
	iface      string
	device     string
}

func parseFlags(args []string) flags {
	fs := flag.NewFlagSet("open", flag.ExitOnError)
	var f flags
	fs.StringVar(&f.username, "username", "", "Qobuz account username/email")
	fs.StringVar(&f.password, "password", "", "Qobuz account password")
	fs.BoolVar(&f.disableTUI, "disable-tui", false, "disable the terminal UI presenter")
	fs.BoolVar(&f.web, "web", false, "enable the web UI + SSE presenter")
	fs.StringVar(&f.iface, "interface", "", "host:port the web/connect presenters bind to")
	fs.StringVar(&f.device, "device", "", "preferred audio output device name")

	// Accept `qobuz-player open ...` as well as bare flags, matching a
	// single-subcommand CLI with no other verbs.
	if len(args) > 0 && args[0] == "open" {
		args = args[1:]
	}
	_ = fs.Parse(args)
	return f
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		slog.Error("qobuz-player exited", "error", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	f := parseFlags(args)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyFlagOverrides(cfg, f)

	st, err := store.Open()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	client, _, err := resolveClient(st, cfg)
	if err != nil {
		return err
	}

	notifier := notification.New()

	cacheDir := cfg.CacheDir
	if cacheDir == "" {
		cacheDir, err = xdg.CacheFile(filepath.Join("qobuz-player", "tracks", ".keep"))
		if err != nil {
			return fmt.Errorf("resolve cache dir: %w", err)
		}
		cacheDir = filepath.Dir(cacheDir)
	}
	dl, err := downloader.New(cacheDir, notifier)
	if err != nil {
		return apperror.New(apperror.Persistence, "main.downloader", err)
	}

	snk := sink.New(cfg.Device)

	loop := player.New(client, snk, dl, st, notifier, player.Options{
		StateChangeDelay:      cfg.StateChangeDelay(),
		SampleRateChangeDelay: cfg.SampleRateChangeDelay(),
		DeviceName:            cfg.Device,
	})

	if v, err := st.GetVolume(); err == nil && v > 0 {
		loop.Facade().Send(player.NewSetVolumeCommand(v))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	group, gctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		loop.Run(gctx)
		return nil
	})

	notifyCh, cancelNotify := notifier.Subscribe()
	defer cancelNotify()
	group.Go(func() error { return runDesktopNotifications(gctx, notifyCh, cfg) })

	mprisAdapter, err := mpris.New(loop)
	if err != nil {
		slog.Warn("mpris adapter unavailable", "error", err)
	} else {
		defer mprisAdapter.Close()
	}

	// --interface names one bind address; web and connect are
	// alternative presenters over that same address, not a pair that
	// can share a listener, so web (the richer surface) wins when both
	// are requested.
	switch {
	case cfg.Web:
		addr := cfg.Interface
		if addr == "" {
			addr = ":8080"
		}
		srv := web.New(addr, loop, client)
		group.Go(func() error { return srv.Run(gctx) })
	case cfg.Interface != "":
		srv := connect.New(cfg.Interface, loop)
		group.Go(func() error { return srv.Run(gctx) })
	}

	if !cfg.DisableTUI {
		// The audio backend's C libraries (ALSA, in particular) write
		// straight to fd 2; left alone that garbles the terminal UI.
		// Redirect it to the capture pipe and surface what it says
		// through structured logging instead.
		if err := stderr.Start(); err != nil {
			slog.Warn("could not capture stderr for the TUI", "error", err)
		} else {
			defer stderr.Stop()
			group.Go(func() error {
				for {
					select {
					case <-gctx.Done():
						return nil
					case line := <-stderr.Messages:
						slog.Warn("audio backend stderr", "line", line)
					}
				}
			})
		}

		group.Go(func() error {
			err := tui.Run(gctx, loop)
			// The TUI quitting (user pressed q) should shut everything
			// else down too, the same as ctx expiring.
			cancel()
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func applyFlagOverrides(cfg *config.Config, f flags) {
	if f.username != "" {
		cfg.Username = f.username
	}
	if f.password != "" {
		cfg.Password = f.password
	}
	if f.disableTUI {
		cfg.DisableTUI = true
	}
	if f.web {
		cfg.Web = true
	}
	if f.iface != "" {
		cfg.Interface = f.iface
	}
	if f.device != "" {
		cfg.Device = f.device
	}
}

// resolveClient merges saved credentials with config/flag overrides,
// persists the merged username/password, and builds the remote client
// from whatever session token the store already holds. A first run with
// no cached user_token still builds a client (requests fail with an Auth
// error the loop surfaces as a notification) since logging in against
// the live Qobuz bundle endpoint is not implemented here.
func resolveClient(st *store.Store, cfg *config.Config) (remote.Client, store.Credentials, error) {
	creds, err := st.GetCredentials()
	if err != nil {
		return nil, store.Credentials{}, fmt.Errorf("load credentials: %w", err)
	}

	if cfg.Username != "" {
		creds.Username = cfg.Username
	}
	if cfg.Password != "" {
		creds.Password = cfg.Password
	}
	if cfg.DefaultQuality != 0 {
		creds.DefaultQuality = cfg.DefaultQuality
	}

	if creds.Username == "" || creds.Password == "" {
		return nil, store.Credentials{}, apperror.New(apperror.Auth, "main.resolveClient",
			errors.New("qobuz username/password required (set in config.toml or --username/--password)"))
	}

	if err := st.SetCredentials(creds); err != nil {
		slog.Warn("failed to persist credentials", "error", err)
	}

	client := remote.NewHTTPClient(qobuzAPIBaseURL, remote.Credentials{
		UserToken:    creds.UserToken,
		AppID:        creds.AppID,
		ActiveSecret: creds.ActiveSecret,
	})
	return client, creds, nil
}

// runDesktopNotifications bridges notification.Broadcaster events onto a
// notify.Notifier, honoring the enabled/now-playing/errors toggles.
// Mirrors the teacher's own pattern of a small goroutine draining one
// subscription for the lifetime of the program.
func runDesktopNotifications(ctx context.Context, ch <-chan notification.Notification, cfg *config.Config) error {
	ncfg := cfg.GetNotificationsConfig()
	if !*ncfg.Enabled {
		<-ctx.Done()
		return nil
	}

	notifier, err := newDesktopNotifier()
	if err != nil {
		slog.Warn("desktop notifications unavailable", "error", err)
		<-ctx.Done()
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case n, ok := <-ch:
			if !ok {
				return nil
			}
			if n.Kind == notification.Error && !*ncfg.Errors {
				continue
			}
			if n.Kind != notification.Error && !*ncfg.NowPlaying {
				continue
			}
			_, _ = notifier.Notify(desktopNotification(n, ncfg))
		}
	}
}
