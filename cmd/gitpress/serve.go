package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/eringen/gitpress"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the blog and its admin pages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.serve(cmd.Context())
		},
	}
	f := cmd.Flags()
	f.String("addr", ":3000", "listen address")
	f.String("admin-password", "", "admin login password (required)")
	f.String("session-secret", "", "session cookie secret (required)")
	f.Bool("cookie-secure", false, "mark session cookies secure (HTTPS)")
	f.String("site-name", "Blog", "site name")
	f.String("site-url", "http://localhost:3000", "canonical site URL")
	f.String("site-description", "", "site description for meta tags and the feed")
	f.String("site-author", "", "default post author")
	f.Duration("revalidate", 60*time.Second, "how long a rendered page may be served before refetching")
	return cmd
}

func (c *cli) serve(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	cfg := c.siteConfig()
	app := gitpress.New(cfg, gitpress.DefaultViews(),
		gitpress.WithLogger(c.log),
		gitpress.WithRegistry(reg),
	)
	if err := app.Init(); err != nil {
		return err
	}

	errc := make(chan error, 1)
	go func() {
		errc <- app.Start()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	c.log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return app.Shutdown(shutdownCtx)
}
