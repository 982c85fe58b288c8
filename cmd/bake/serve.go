package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aretw0/bake"
	"github.com/aretw0/bake/internal/cli"
	"github.com/aretw0/bake/internal/presentation/tui"
	httpAdapter "github.com/aretw0/bake/pkg/adapters/http"
	"github.com/aretw0/bake/pkg/observability"
	"github.com/aretw0/bake/pkg/runner"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Serves the tasks over a JSON API: list and describe tasks, plan and trigger runs,
read the run history, follow lifecycle events (SSE) and scrape Prometheus metrics.
Runs are serialized; the history defaults to memory.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		port, _ := cmd.Flags().GetString("port")

		if flags.History == "" {
			flags.History = "memory"
		}
		// Requests cannot answer questions.
		flags.Yes = true

		console, err := newConsole(os.Stderr)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		metrics := observability.NewMetrics()
		streams := httpAdapter.NewStreamManager()
		hooks := metrics.Hooks().Chain(streams.Hooks())

		engine, history, err := cli.NewEngine(flags, console, cli.Streams{Out: os.Stderr, Err: os.Stderr},
			bake.WithLifecycleHooks(hooks))
		if err != nil {
			fmt.Printf("Error initializing bake: %v\n", err)
			os.Exit(1)
		}
		defer history.Close()

		version := strings.TrimSpace(bake.Version)
		handler := httpAdapter.NewHandler(engine,
			httpAdapter.WithStreams(streams),
			httpAdapter.WithMetrics(metrics.Handler()),
			httpAdapter.WithVersion(version),
			httpAdapter.WithLogger(flags.Logger()),
		)

		srv := &http.Server{
			Addr:    ":" + port,
			Handler: handler,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			if runner.IsTerminal(os.Stdout) {
				tui.PrintBanner(os.Stdout, version)
			}
			fmt.Printf("Starting bake server on %s\n", srv.Addr)
			fmt.Printf("Serving %d tasks, history: %s\n", len(engine.Tasks()), flags.History)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)

		case sig := <-shutdown:
			fmt.Printf("\nStart shutdown... Signal: %v\n", sig)

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				fmt.Printf("Graceful shutdown did not complete in %v: %v\n", 5*time.Second, err)
				if err := srv.Close(); err != nil {
					fmt.Printf("Error killing server: %v\n", err)
				}
			}
			fmt.Println("bake server stopped gracefully")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
}
