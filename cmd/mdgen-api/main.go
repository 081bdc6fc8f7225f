package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mmrzaf/mdgen/internal/api"
	"github.com/mmrzaf/mdgen/internal/app"
	"github.com/mmrzaf/mdgen/internal/awk"
	"github.com/mmrzaf/mdgen/internal/config"
	"github.com/mmrzaf/mdgen/internal/exec"
	"github.com/mmrzaf/mdgen/internal/infra/repos/requests"
	"github.com/mmrzaf/mdgen/internal/infra/repos/users"
	"github.com/mmrzaf/mdgen/internal/logging"
	"github.com/mmrzaf/mdgen/internal/registry"
	"github.com/mmrzaf/mdgen/internal/web"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()

	awkTable := flag.String("awk-table", cfg.AWKTablePath, "awk generator table (JSON or YAML); empty uses the built-in table")
	requestsDir := flag.String("requests-dir", cfg.RequestsDir, "Saved requests directory")
	outputDir := flag.String("output-dir", cfg.OutputDir, "Directory generated files are written to")
	bindAddr := flag.String("bind", cfg.BindAddr, "Bind address")
	logLevel := flag.String("log-level", cfg.LogLevel, "Log level")
	backend := flag.String("users-backend", cfg.UsersBackend, "Users store: sqlite, postgres or mongo")
	flag.Parse()

	base := logging.NewLogger(*logLevel)
	defer base.Sync()
	logger := base.WithComponent("api_main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	table, err := awk.LoadTable(*awkTable)
	if err != nil {
		logger.Errorw("startup.failed", map[string]any{"error": err.Error(), "stage": "load_awk_table"})
		os.Exit(1)
	}

	userRepo, err := users.Open(ctx, users.Options{
		Backend:         *backend,
		SQLitePath:      cfg.UsersDBPath,
		PostgresDSN:     cfg.UsersDSN,
		MongoURI:        cfg.MongoURI,
		MongoDatabase:   cfg.MongoDatabase,
		MongoCollection: cfg.MongoCollection,
	})
	if err != nil {
		logger.Errorw("startup.failed", map[string]any{"error": err.Error(), "stage": "init_users_repo"})
		os.Exit(1)
	}
	defer func() { _ = userRepo.Close(context.Background()) }()

	userRegistry := app.NewUserRegistry(userRepo, base)
	service, err := app.NewGenerationService(
		requests.NewFileRepository(*requestsDir),
		userRegistry,
		awk.NewSynthesizer(table),
		exec.NewSampler(registry.DefaultGeneratorRegistry(), table),
		*outputDir,
		base,
	)
	if err != nil {
		logger.Errorw("startup.failed", map[string]any{"error": err.Error(), "stage": "init_generation_service"})
		os.Exit(1)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /", web.IndexHandler)
	api.NewHandler(userRegistry, service, base).Routes(mux)

	srv := &http.Server{
		Addr:              *bindAddr,
		Handler:           loggingMiddleware(base.WithComponent("http"), mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infow("startup.listening", map[string]any{"bind": *bindAddr, "users_backend": *backend})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Infow("shutdown.started", nil)
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Errorw("server.failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	logger.Infow("shutdown.completed", nil)
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		fields := map[string]any{
			"method":      r.Method,
			"path":        redactPath(r.URL.Path),
			"status":      sw.status,
			"duration_ms": time.Since(started).Milliseconds(),
			"remote":      r.RemoteAddr,
		}
		if sw.status >= 500 {
			logger.Errorw("request.completed", fields)
			return
		}
		if sw.status >= 400 {
			logger.Warnw("request.completed", fields)
			return
		}
		logger.Infow("request.completed", fields)
	})
}

// redactPath keeps access tokens in verification links out of the logs.
func redactPath(p string) string {
	const verifyPrefix = "/api/v1/verify/"
	if strings.HasPrefix(p, verifyPrefix) && len(p) > len(verifyPrefix) {
		return verifyPrefix + "***"
	}
	return p
}
