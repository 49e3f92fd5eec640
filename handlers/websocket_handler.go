package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ff-arena/tournament-platform/realtime"
	"github.com/ff-arena/tournament-platform/services"
	"github.com/golang-jwt/jwt/v4"
	"github.com/gorilla/websocket"
)

type WebSocketHandler struct {
	hub       *realtime.Hub
	jwtSecret []byte
	logger    *slog.Logger
	upgrader  websocket.Upgrader
}

func NewWebSocketHandler(hub *realtime.Hub, jwtSecret string, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:       hub,
		jwtSecret: []byte(jwtSecret),
		logger:    logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// TournamentsFeed streams tournament list updates. No authentication; the
// feed carries only public data.
func (h *WebSocketHandler) TournamentsFeed(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, services.RoomTournaments)
}

// UserFeed streams balance, request, and notification events for the token
// holder. Browsers cannot set headers on websocket dials, so the token
// arrives as a query parameter.
func (h *WebSocketHandler) UserFeed(w http.ResponseWriter, r *http.Request) {
	tokenString := r.URL.Query().Get("token")
	if tokenString == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return h.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	userIDFloat, ok := claims["user_id"].(float64)
	if !ok || userIDFloat <= 0 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	h.serve(w, r, services.UserRoom(int(userIDFloat)))
}

func (h *WebSocketHandler) serve(w http.ResponseWriter, r *http.Request, room string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}

	client := realtime.NewClient(h.hub, conn, room)
	h.hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
