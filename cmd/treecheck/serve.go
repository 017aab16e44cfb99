package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/chris-regnier/treecheck/internal/output"
	"github.com/chris-regnier/treecheck/internal/parse"
)

// maxSourceBytes bounds the request body of POST /v1/check.
const maxSourceBytes = 4 << 20

type checkRequest struct {
	Path   string `json:"path"`
	Source string `json:"source"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// api serves checks over HTTP with one engine shared by every request.
type api struct {
	eng    *engine
	logger *slog.Logger
}

func newServeCmd() *cobra.Command {
	var (
		addr       string
		configPath string
		locale     string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve checks over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			eng, err := newEngine(cfg, ".", locale, logger)
			if err != nil {
				return err
			}
			reportConfigErrors(cmd.ErrOrStderr(), eng.configErr)

			a := &api{eng: eng, logger: output.WithComponent(logger, "http")}
			srv := &http.Server{
				Addr:              addr,
				Handler:           a.routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			errc := make(chan error, 1)
			go func() {
				logger.Info("listening", "addr", addr, "checks", len(eng.checks))
				errc <- srv.ListenAndServe()
			}()
			select {
			case err := <-errc:
				return err
			case <-ctx.Done():
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return err
			}
			if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "localhost:8080", "Listen address")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Project config file (default .treecheck/config.yaml)")
	cmd.Flags().StringVar(&locale, "locale", "", "Default message locale; requests may override it with Accept-Language")
	return cmd
}

func (a *api) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer)

	r.Get("/healthz", a.health)
	r.Get("/v1/checks", a.listChecks)
	r.Post("/v1/check", a.check)
	return r
}

func (a *api) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *api) listChecks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.eng.checkInfos())
}

func (a *api) check(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSourceBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	if req.Path == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "path is required"})
		return
	}

	eng := a.eng
	if lang := r.Header.Get("Accept-Language"); lang != "" {
		scoped := *a.eng
		scoped.printer = a.eng.catalog.Printer(lang, a.eng.cfg.Locale)
		eng = &scoped
	}

	log, err := eng.checkSource(r.Context(), req.Path, []byte(req.Source), a.logger)
	switch {
	case errors.Is(err, parse.ErrUnsupportedLanguage):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
		return
	case err != nil:
		a.logger.Error("check failed", "path", req.Path, "err", err, "request_id", middleware.GetReqID(r.Context()))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, log)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
