package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/txsurplus/auctiondb/internal/query"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the auction listings API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		q := initQuery(st)

		r := chi.NewRouter()
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
		}))

		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Route("/api", func(r chi.Router) {
			r.Get("/auctions", handleListAuctions(q))
			r.Get("/auctions/nearby", handleNearbyAuctions(q))
			r.Get("/auctions/{id}", handleGetAuction(q))
			r.Get("/preferences", handleGetPreference(q))
			r.Post("/preferences", handleSetPreference(q))
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func handleListAuctions(q *query.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset := pageParams(r)
		views, err := q.ListByEndDate(r.Context(), limit, offset)
		if err != nil {
			serverError(w, "list auctions", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"auctions": views, "count": len(views)})
	}
}

func handleNearbyAuctions(q *query.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset := pageParams(r)
		zip := r.URL.Query().Get("zip_code")
		maxDistance, _ := strconv.ParseFloat(r.URL.Query().Get("max_distance"), 64)

		views, err := q.ListByProximity(r.Context(), zip, maxDistance, limit, offset)
		if err != nil {
			serverError(w, "nearby auctions", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"auctions": views, "count": len(views)})
	}
}

func handleGetAuction(q *query.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			http.Error(w, `{"error":"invalid auction id"}`, http.StatusBadRequest)
			return
		}
		view, err := q.Get(r.Context(), id)
		if err != nil {
			serverError(w, "get auction", err)
			return
		}
		if view == nil {
			http.Error(w, `{"error":"auction not found"}`, http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func handleGetPreference(q *query.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pref, err := q.GetPreference(r.Context())
		if err != nil {
			serverError(w, "get preference", err)
			return
		}
		writeJSON(w, http.StatusOK, pref)
	}
}

func handleSetPreference(q *query.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ZipCode     string `json:"zip_code"`
			MaxDistance int    `json:"max_distance"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		if req.ZipCode == "" {
			http.Error(w, `{"error":"zip_code is required"}`, http.StatusBadRequest)
			return
		}
		if err := q.SetPreference(r.Context(), req.ZipCode, req.MaxDistance); err != nil {
			serverError(w, "set preference", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
	}
}

// pageParams reads limit/page query params; page is 1-based.
func pageParams(r *http.Request) (limit, offset int) {
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if limit <= 0 {
		limit = cfg.Query.PageSize
	}
	if page > 1 {
		offset = (page - 1) * limit
	}
	return limit, offset
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func serverError(w http.ResponseWriter, op string, err error) {
	zap.L().Error(op+" failed", zap.Error(err))
	http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
