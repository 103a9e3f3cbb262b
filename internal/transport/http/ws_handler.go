package http

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"zoo-quiz-service/internal/domain"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeLeaderboardWS streams the caller's classroom board. Browsers cannot set headers on
// websocket handshakes, so the bearer token travels in the token query parameter.
func (s *Server) ServeLeaderboardWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = bearerToken(r)
	}
	id, err := s.tokens.Parse(token)
	if err != nil {
		s.fail(w, r, domain.ErrUnauthorized)
		return
	}
	classroomID := id.ClassroomID
	if id.IsAdmin() {
		classroomID = r.URL.Query().Get("classroomId")
	}
	if classroomID == "" {
		s.fail(w, r, domain.ErrClassroomNotFound)
		return
	}

	// Subscribe before upgrading so that unknown classrooms still get a plain HTTP error.
	updates, cancel, err := s.leaderboard.Subscribe(r.Context(), classroomID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	defer cancel()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WarnContext(r.Context(), "ws upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(wsPingPeriod)
		defer ticker.Stop()
		for {
			select {
			case msg, ok := <-send:
				if !ok {
					_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(wsWriteWait))
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
				if err := conn.WriteJSON(msg); err != nil {
					s.log.DebugContext(r.Context(), "ws write error", "err", err)
					_ = conn.Close()
					return
				}
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
					_ = conn.Close()
					return
				}
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case lb, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "leaderboard", Payload: lb}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	s.log.InfoContext(r.Context(), "leaderboard watcher joined", "classroom", classroomID, "role", id.Role)

	// The feed is one-way; reads only detect disconnects and answer pongs.
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}
