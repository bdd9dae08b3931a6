// CLAUDE:SUMMARY docload binary: one-shot file loading and chat conversion, or an HTTP (chi) / MCP stdio service.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	_ "modernc.org/sqlite"

	"github.com/hazyhaar/docload/chatbackup"
	"github.com/hazyhaar/docload/chatconv"
	"github.com/hazyhaar/docload/docpipe"
	"github.com/hazyhaar/docload/idgen"
)

var version = "dev"

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		slog.Error("docload", "error", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("docload", flag.ContinueOnError)
	configPath := fs.String("config", "", "YAML config file")
	loadPath := fs.String("load", "", "load a file and print its documents as JSON")
	contentType := fs.String("content-type", "", "declared MIME type for -load")
	chatPath := fs.String("convert-chat", "", "convert a legacy chat export and print the record")
	store := fs.Bool("store", false, "with -convert-chat, also persist the record")
	serve := fs.Bool("serve", false, "run the HTTP service")
	serveMCP := fs.Bool("mcp", false, "serve MCP tools over stdio")
	logLevel := fs.String("log-level", "", "debug, info, warn or error (overrides config)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}

	// MCP stdio owns stdout, logs go to stderr.
	logOut := io.Writer(os.Stderr)
	if *serve {
		logOut = os.Stdout
	}
	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg.Pipeline.Logger = logger
	pipe := docpipe.New(cfg.Pipeline)
	conv := chatconv.NewConverter(chatconv.WithLogger(logger))

	switch {
	case *loadPath != "":
		docs, err := pipe.LoadFile(ctx, *loadPath, *contentType)
		if err != nil {
			return err
		}
		return printJSON(stdout, docs)

	case *chatPath != "":
		return convertChat(ctx, cfg, conv, *chatPath, *store, stdout)

	case *serveMCP:
		srv := mcp.NewServer(&mcp.Implementation{Name: "docload", Version: version}, nil)
		pipe.RegisterMCP(srv)
		conv.RegisterMCP(srv)
		logger.Info("MCP stdio starting")
		if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
			return fmt.Errorf("mcp: %w", err)
		}
		return nil

	case *serve:
		return serveHTTP(ctx, cfg, pipe, conv, logger)

	default:
		fs.Usage()
		return errors.New("one of -load, -convert-chat, -serve or -mcp is required")
	}
}

func convertChat(ctx context.Context, cfg *Config, conv *chatconv.Converter, path string, persist bool, stdout io.Writer) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	rec, err := conv.ConvertJSON(data)
	if err != nil {
		return err
	}
	if !persist {
		return printJSON(stdout, rec)
	}

	backups, err := chatbackup.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open backups: %w", err)
	}
	defer backups.Close()
	b, err := backups.Insert(ctx, rec)
	if err != nil {
		return err
	}
	return printJSON(stdout, b)
}

func serveHTTP(ctx context.Context, cfg *Config, pipe *docpipe.Pipeline, conv *chatconv.Converter, logger *slog.Logger) error {
	backups, err := chatbackup.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open backups: %w", err)
	}
	defer backups.Close()

	s := &server{
		pipe:      pipe,
		conv:      conv,
		backups:   backups,
		logger:    logger,
		maxUpload: cfg.Pipeline.MaxFileSize,
		newReqID:  idgen.Prefixed("req_", idgen.Default),
	}
	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Pipeline.RemoteExtraction.Timeout + 60*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("docload listening", "addr", cfg.Listen, "remote", cfg.Pipeline.RemoteExtraction.Enabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
