/*
Package handler provides the HTTP surface: the chi router, the WebSocket
gateway, and the commit, rollback, and asset endpoints.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"layoutsync/internal/pkg/auth/jwt"
	"layoutsync/internal/pkg/limiter"
	"layoutsync/internal/pkg/logx"
	"layoutsync/internal/pkg/resp"
)

const (
	// ConnectRate limits WebSocket connection attempts per IP.
	ConnectRate  = 0.5
	ConnectBurst = 5
)

// Router builds the application's routing table: CORS, request logging,
// the authenticated API routes, and the WebSocket gateway.
func Router(deps *AppDeps) http.Handler {
	connectLimiter := limiter.NewIPRateLimiter(rate.Limit(ConnectRate), ConnectBurst)

	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	wsUpgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.Environment == "development" {
				return true
			}

			origin := r.Header.Get("Origin")
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.Environment == "development" {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		data := map[string]string{
			"status":  "ok",
			"service": "layoutsync",
		}
		resp.RespondSuccess(w, r, data)
	})

	r.Route("/api", func(api chi.Router) {
		api.Use(jwt.RequireAuth(deps.Config.JWTSecret))

		api.Route("/pages/{pageID}", func(page chi.Router) {
			page.Get("/commits", HandleListCommits(deps))
			page.Post("/commits", HandleCreateCommit(deps))
			page.Post("/rollback", HandleRollback(deps))
		})

		api.Route("/assets", func(asset chi.Router) {
			asset.Post("/presign-upload", HandlePresignUpload(deps))
			asset.Get("/presign-download", HandlePresignDownload(deps))
			asset.Delete("/", HandleDeleteAsset(deps))
		})
	})

	r.Get("/ws", HandleWebSocket(wsUpgrader, connectLimiter, deps))

	return r
}
