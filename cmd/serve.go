package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/district-cli/internal/orchestrator"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API for validation and district lookup",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx, true)
		if err != nil {
			return err
		}
		defer env.Close()

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{http.MethodGet, http.MethodPost},
			AllowedHeaders: []string{"Content-Type"},
		}))

		r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Post("/v1/validate", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				Address string   `json:"address"`
				Methods []string `json:"methods"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			if body.Address == "" {
				writeError(w, http.StatusBadRequest, "address is required")
				return
			}

			methods := body.Methods
			if len(methods) == 0 {
				methods = cfg.Validate.Methods
			}
			resp, err := env.orchestrator.Validate(req.Context(), body.Address, methods)
			if err != nil {
				var parseErr *orchestrator.ParseError
				if eris.As(err, &parseErr) {
					writeError(w, http.StatusUnprocessableEntity, parseErr.Error())
					return
				}
				writeError(w, http.StatusInternalServerError, "validation failed")
				return
			}
			writeJSON(w, http.StatusOK, resp)
		})

		r.Post("/v1/resolve", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				Address string `json:"address"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			addr, err := orchestrator.ParseAddress(body.Address)
			if err != nil {
				writeError(w, http.StatusUnprocessableEntity, err.Error())
				return
			}
			writeJSON(w, http.StatusOK, env.engine.Resolve(req.Context(), addr))
		})

		r.Get("/v1/districts/locate", func(w http.ResponseWriter, req *http.Request) {
			lat, lon, ok := latLonParams(w, req)
			if !ok {
				return
			}
			writeJSON(w, http.StatusOK, env.resolver.Resolve(lat, lon))
		})

		r.Get("/v1/districts/boundary", func(w http.ResponseWriter, req *http.Request) {
			lat, lon, ok := latLonParams(w, req)
			if !ok {
				return
			}
			state := req.URL.Query().Get("state")
			number, err := strconv.Atoi(req.URL.Query().Get("district"))
			if state == "" || err != nil {
				writeError(w, http.StatusBadRequest, "state and district are required")
				return
			}
			result, err := env.resolver.ClosestBoundaryPoint(lat, lon, state, number)
			if err != nil {
				writeError(w, http.StatusNotFound, err.Error())
				return
			}
			writeJSON(w, http.StatusOK, result)
		})

		r.Get("/v1/geometry/status", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, env.status())
		})

		r.Post("/v1/geometry/refresh", func(w http.ResponseWriter, req *http.Request) {
			if err := env.store.Refresh(req.Context()); err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			writeJSON(w, http.StatusOK, env.status())
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}
		return nil
	},
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// latLonParams parses the lat/lon query parameters, writing a 400 on failure.
func latLonParams(w http.ResponseWriter, req *http.Request) (lat, lon float64, ok bool) {
	var err error
	lat, err = strconv.ParseFloat(req.URL.Query().Get("lat"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "lat must be a number")
		return 0, 0, false
	}
	lon, err = strconv.ParseFloat(req.URL.Query().Get("lon"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "lon must be a number")
		return 0, 0, false
	}
	return lat, lon, true
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
