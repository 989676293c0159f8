package handler

import (
	"net"
	"net/http"

	"github.com/gorilla/websocket"

	"layoutsync/internal/app/collab"
	"layoutsync/internal/app/session"
	"layoutsync/internal/pkg/auth/jwt"
	"layoutsync/internal/pkg/errs"
	"layoutsync/internal/pkg/limiter"
	"layoutsync/internal/pkg/logx"
	"layoutsync/internal/pkg/randx"
	"layoutsync/internal/pkg/resp"
)

// HandleWebSocket is the session gateway: it validates the bearer
// credential before the upgrade (an invalid or expired token refuses the
// connection before any session exists), builds the Session with its
// deterministic presence color, and starts the client pumps.
func HandleWebSocket(upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		if ip == "" {
			ip = "unknown_ip"
		}

		if !rateLimiter.GetLimiter(ip).Allow() {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", ip)
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		tokenString := jwt.BearerFromRequest(r)
		if tokenString == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthenticated))
			return
		}

		claims, err := jwt.ParseToken(tokenString, deps.Config.JWTSecret)
		if err != nil {
			logx.Warn("WebSocket connection rejected: Invalid credential.", "error", err)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthenticated))
			return
		}

		sess := session.Session{
			ConnectionID: randx.ConnectionID(),
			UserID:       claims.UserID,
			UserName:     claims.UserName,
			Color:        session.PresenceColor(claims.UserID),
			Role:         claims.Role,
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		client := collab.NewClient(deps.Hub, conn, sess)

		go client.WritePump()

		logx.Info("WebSocket connection established",
			"session_id", sess.ConnectionID,
			"user_id", sess.UserID,
		)

		client.ReadPump()
	}
}
