package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"roomrent/marketplace/internal/models"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxFrame   = 8 << 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type streamFrame struct {
	Type     string            `json:"type"`
	Messages []*models.Message `json:"messages,omitempty"`
	Message  *models.Message   `json:"message,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// threadStream pushes the thread history, then every merged message. Text
// frames from the client are sent as messages.
func (s *Server) threadStream(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())
	listingID := chi.URLParam(r, "listingID")
	counterpartID := chi.URLParam(r, "userID")

	view, err := s.services.Conversations.OpenThread(r.Context(), user, listingID, counterpartID)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	defer view.Close()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	log := s.logger.WithFields(logrus.Fields{
		"user_id":    user.ID,
		"listing_id": listingID,
	})

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	failures := make(chan string, 8)
	go s.readFrames(ctx, cancel, conn, view.Send, failures, log)

	write := func(frame streamFrame) error {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(frame)
	}

	if err := write(streamFrame{Type: "history", Messages: view.Messages()}); err != nil {
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-view.Updates():
			if !ok {
				return
			}
			if err := write(streamFrame{Type: "message", Message: msg}); err != nil {
				log.WithError(err).Debug("Websocket write failed")
				return
			}
		case reason := <-failures:
			if err := write(streamFrame{Type: "error", Error: reason}); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Server) readFrames(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn,
	send func(context.Context, string) (*models.Message, error), failures chan<- string, log *logrus.Entry) {
	defer cancel()

	conn.SetReadLimit(maxFrame)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithError(err).Warn("Websocket closed unexpectedly")
			}
			return
		}
		if kind != websocket.TextMessage {
			continue
		}

		msg, err := send(ctx, string(data))
		if err != nil {
			select {
			case failures <- publicMessage(err, statusFor(err)):
			default:
			}
			continue
		}
		if msg != nil {
			s.metrics.MessagesSent.Inc()
		}
	}
}
