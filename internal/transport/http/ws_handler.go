package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"timed-quiz-service/internal/app"
	"timed-quiz-service/internal/engine"
)

type WSHandler struct {
	service  *app.SessionService
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

func NewWSHandler(service *app.SessionService, logger *slog.Logger) *WSHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WSHandler{
		service: service,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type selectPayload struct {
	Option string `json:"option"`
}

type volumePayload struct {
	Volume *int `json:"volume"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

var errUnsupported = errors.New("unsupported message type")

// decodeIntent maps a client message onto a session event.
func decodeIntent(msg inboundMessage) (engine.Event, error) {
	switch msg.Type {
	case "select":
		var p selectPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil || p.Option == "" {
			return nil, fmt.Errorf("invalid select payload")
		}
		return engine.Select{Option: p.Option}, nil
	case "setVolume":
		var p volumePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil || p.Volume == nil {
			return nil, fmt.Errorf("invalid setVolume payload")
		}
		return engine.SetVolume{Volume: *p.Volume}, nil
	case "pause":
		return engine.Pause{}, nil
	case "resume":
		return engine.Resume{}, nil
	case "restart":
		return engine.Restart{}, nil
	case "saveAndQuit":
		return engine.SaveAndQuit{}, nil
	case "eliminate":
		return engine.Eliminate{}, nil
	case "freeze":
		return engine.Freeze{}, nil
	case "next":
		return engine.Next{}, nil
	case "retrySubmit":
		return engine.RetrySubmit{}, nil
	default:
		return nil, errUnsupported
	}
}

// ServeWS upgrades HTTP requests to websockets and binds the connection to the user's session.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	userID := r.URL.Query().Get("userId")
	if quizID == "" || userID == "" {
		http.Error(w, "missing quizId or userId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(4096)
	// Sessions outlive the server's request read timeout.
	_ = conn.SetReadDeadline(time.Time{})

	session, resumed, err := h.service.Start(r.Context(), quizID, userID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	log := h.logger.With("session", session.ID, "quiz", quizID, "user", userID)
	log.Info("client attached", "resumed", resumed)

	updates, cancel := session.Subscribe()
	defer cancel()
	defer func() {
		ctx, done := context.WithTimeout(context.Background(), time.Second)
		defer done()
		h.service.Leave(ctx, quizID, userID)
	}()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// The writer goroutine is the only one touching conn for writes.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Debug("ws write error", "error", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case n, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: string(n.Type), Payload: n.Payload}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	reply := func(msg outboundMessage[any]) {
		select {
		case send <- msg:
		case <-writerDone:
		}
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		ev, err := decodeIntent(inbound)
		if err != nil {
			reply(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}})
			continue
		}
		if err := h.service.Dispatch(r.Context(), quizID, userID, ev); err != nil {
			reply(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
	log.Info("client detached")
}
