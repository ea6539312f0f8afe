package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/spotauth/internal/auth"
	"github.com/desertthunder/spotauth/internal/repositories"
	"github.com/desertthunder/spotauth/internal/server"
	"github.com/desertthunder/spotauth/internal/shared"
	"github.com/desertthunder/spotauth/internal/ui"
	"github.com/urfave/cli/v3"
)

// Serve loads the configuration, builds the flow and serves it until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	handler, closeFn, err := r.buildHandler(config)
	if err != nil {
		return err
	}
	defer closeFn()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := config.RedirectURI.ListenAddr()
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("%w: failed to listen on %s: %v", shared.ErrServiceUnavailable, addr, err)
	}

	base := fmt.Sprintf("%s://%s", config.RedirectURI.Scheme, addr)
	r.writePlain("%s Serving on %s\n", ui.OK("✓"), base)
	r.writePlain("%s\n", ui.Help("Register %s as a redirect URI, then visit %s/login", config.RedirectURI.String(), base))

	if cmd.Bool("open") || config.Server.OpenBrowser {
		if err := shared.OpenBrowser(base + "/login"); err != nil {
			r.logger.Warn("failed to open browser", "error", err)
		}
	}

	srv := server.NewServer(addr, handler, shared.WithLogger(r.logger, "component", "server"))
	return srv.Serve(ctx, ln)
}

// buildHandler wires the flow, the optional audit log and the middleware stack.
//
// The returned close function releases the audit database, if one was opened.
func (r *Runner) buildHandler(config *shared.Config) (http.Handler, func() error, error) {
	if err := config.Validate(); err != nil {
		return nil, nil, err
	}

	flow, err := auth.NewFlow(auth.Options{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		Scopes:       config.Scope,
		RedirectURL:  config.RedirectURI.String(),
		AuthURL:      config.Provider.AuthorizeURL,
		TokenURL:     config.Provider.TokenURL,
		APIURL:       config.Provider.APIURL,
		HTTPClient:   r.client(),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create flow: %w", err)
	}

	closeFn := func() error { return nil }

	var events server.EventRecorder
	db, err := shared.OpenEventDatabase(config.Database)
	switch {
	case errors.Is(err, shared.ErrEventLogDisabled):
		r.logger.Info("audit log disabled")
	case err != nil:
		return nil, nil, fmt.Errorf("failed to open audit log: %w", err)
	default:
		r.logger.Info("recording flow events", "path", config.Database.Path)
		events = repositories.NewEventRepository(db)
		closeFn = db.Close
	}

	logger := shared.WithLogger(r.logger, "component", "flow")

	router := server.NewBasicRouter()
	router.Use(
		server.RequestID(),
		server.Logging(logger),
		server.Recover(logger),
		server.RateLimit(config.Server.RateLimit, config.Server.Burst),
	)
	router.Mount(server.NewFlowHandler(flow, events, logger))

	return router, closeFn, nil
}
