package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/govdocs/internal/config"
	domdoc "github.com/kailas-cloud/govdocs/internal/domain/document"
	chiTransport "github.com/kailas-cloud/govdocs/internal/transport/chi"
	backfilluc "github.com/kailas-cloud/govdocs/internal/usecase/backfill"
	"github.com/kailas-cloud/govdocs/internal/version"
)

func main() {
	app := &cli.App{
		Name:    "govdocs",
		Usage:   "Government document search: keyword, semantic and AI-refined tiers",
		Version: fmt.Sprintf("%s (%s, %s)", version.Version, version.Commit, version.Date),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "env",
				Aliases: []string{"e"},
				Usage:   "Config environment (config/<env>.yaml)",
				EnvVars: []string{"ENV"},
				Value:   config.GetEnv(),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Override logging.level (debug, info, warn, error)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API",
				Action: serveCommand,
			},
			{
				Name:      "search",
				Usage:     "Run one search through the cascade and print the JSON response",
				ArgsUsage: "<query>",
				Action:    searchCommand,
			},
			{
				Name:   "backfill",
				Usage:  "Compute embeddings for documents stored without one",
				Action: backfillCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent embedding calls",
						Value: backfilluc.DefaultWorkers,
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum documents per collection (0 = all)",
					},
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Count documents without embedding or writing",
					},
					&cli.StringSliceFlag{
						Name:  "collection",
						Usage: "Restrict to a collection (EmploymentNotice, NotificationCircular, Tender); repeatable",
					},
				},
			},
		},
		DefaultCommand: "serve",
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "govdocs:", err)
		os.Exit(1)
	}
}

func serveCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, c.String("env"), c.String("log-level"))
	if err != nil {
		return err
	}
	defer a.close()

	var analytics chiTransport.AnalyticsService
	if a.analytics != nil {
		analytics = a.analytics
	}
	server := chiTransport.NewServer(a.searchService(), analytics, a.healthService(), a.logger)
	handler := chiTransport.NewRouter(server, a.logger, a.cfg.Analytics.APIKeys)

	addr := fmt.Sprintf(":%d", a.cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(a.cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(a.cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		a.logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(a.cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("Error during shutdown", zap.Error(err))
	}

	a.logger.Info("Server stopped gracefully")
	return nil
}

func searchCommand(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return cli.Exit("usage: govdocs search <query>", 2)
	}

	a, err := newApp(c.Context, c.String("env"), c.String("log-level"))
	if err != nil {
		return err
	}
	defer a.close()

	resp, err := a.searchService().Search(c.Context, query)
	out, err := chiTransport.SearchJSON(resp, err)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	fmt.Fprintln(c.App.Writer, string(out))
	return nil
}

func backfillCommand(c *cli.Context) error {
	var colls []domdoc.Collection
	for _, name := range c.StringSlice("collection") {
		coll, err := domdoc.ParseCollection(name)
		if err != nil {
			return cli.Exit(err.Error(), 2)
		}
		colls = append(colls, coll)
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, c.String("env"), c.String("log-level"))
	if err != nil {
		return err
	}
	defer a.close()

	svc := backfilluc.New(a.docs, a.docEmbedder, a.logger)
	report, err := svc.Run(ctx, backfilluc.Options{
		Workers:     c.Int("workers"),
		Limit:       c.Int("limit"),
		DryRun:      c.Bool("dry-run"),
		Collections: colls,
	})
	printReport(c, report)
	if err != nil {
		return fmt.Errorf("backfill: %w", err)
	}
	return nil
}

func printReport(c *cli.Context, r backfilluc.Report) {
	w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "COLLECTION\tSCANNED\tEMBEDDED\tSKIPPED\tFAILED")
	for _, coll := range r.Collections {
		n := r.Counts[coll]
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\n", coll, n.Scanned, n.Embedded, n.Skipped, n.Failed)
	}
	t := r.Totals()
	fmt.Fprintf(w, "TOTAL\t%d\t%d\t%d\t%d\n", t.Scanned, t.Embedded, t.Skipped, t.Failed)
	_ = w.Flush()
}
