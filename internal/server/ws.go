package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/coder/websocket"

	"squarevision/internal/rounds"
	"squarevision/internal/session"
	"squarevision/internal/wshub"
)

func viewMessage(msgType string, view session.View) wshub.ServerMessage {
	return wshub.ServerMessage{
		Type:     msgType,
		Square:   string(view.Target),
		Feedback: view.Feedback,
		Score:    view.Score,
		Attempts: view.Attempts,
		TimeLeft: view.TimeLeft,
		State:    string(view.State),
	}
}

func answerMessage(verdict rounds.Verdict, view session.View) wshub.ServerMessage {
	msg := viewMessage("answer", view)
	correct := verdict.Correct
	msg.Correct = &correct
	msg.Square = string(verdict.Target)
	return msg
}

// handleWS serves the live training feed. The client sends compact JSON
// commands ({"t":"start"}, {"t":"answer","sq":"e4"}, ...); every result is
// broadcast through the session hub so all of the user's tabs stay in sync.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	sess := s.getSession(w, r)

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Printf("[WS] Accept error: %v\n", err)
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	client := &wshub.Client{
		UserID: sess.UserID,
		Conn:   conn,
		Send:   make(chan []byte, 16),
	}
	sess.Hub.Register(client)
	go client.WritePump(ctx)

	// Forward trainer events (state changes, timer ticks) to this client.
	events := sess.Broadcaster.Subscribe()
	forwardDone := make(chan struct{})
	go func() {
		defer close(forwardDone)
		for ev := range events {
			msg := wshub.ServerMessage{Type: ev.Event, State: ev.Msg}
			if ev.Event == "tick" {
				if tl, err := strconv.Atoi(ev.Msg); err == nil {
					msg = wshub.ServerMessage{Type: "tick", TimeLeft: tl}
				}
			}
			data, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			select {
			case client.Send <- data:
			default:
			}
		}
	}()
	defer func() {
		sess.Broadcaster.Unsubscribe(events)
		<-forwardDone
		sess.Hub.Unregister(client)
	}()

	for {
		msg, err := readClientMessage(ctx, conn)
		if err != nil {
			return
		}
		s.dispatchWS(sess, msg)
	}
}

func readClientMessage(ctx context.Context, conn *websocket.Conn) (wshub.ClientMessage, error) {
	var msg wshub.ClientMessage
	_, data, err := conn.Read(ctx)
	if err != nil {
		return msg, err
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		return msg, err
	}
	return msg, nil
}

func (s *Server) dispatchWS(sess *session.Session, msg wshub.ClientMessage) {
	now := time.Now()
	switch msg.Type {
	case "start":
		if err := sess.Trainer.Start(now); err != nil {
			log.Printf("[WS] start: %v\n", err)
			return
		}
		s.Metrics.SessionsStarted.Inc()
		sess.Hub.Broadcast(viewMessage("stateChange", sess.Trainer.View()))
	case "answer":
		prevUnlocked := len(sess.Trainer.View().Unlocked)
		verdict, err := sess.Trainer.Submit(msg.Square, now)
		if err != nil {
			return
		}
		s.Metrics.countAnswer(verdict.Correct)
		view := sess.Trainer.View()
		for _, a := range unlockedSince(view.Unlocked, prevUnlocked) {
			s.Metrics.AchievementsEarned.WithLabelValues(a.ID).Inc()
		}
		s.recordAttempt(sess, verdict, now)
		sess.Hub.Broadcast(answerMessage(verdict, view))
	case "reset":
		if err := sess.Trainer.Reset(); err != nil {
			return
		}
		if err := sess.SaveProgress(); err != nil {
			log.Printf("[Progress] save error: %v\n", err)
		}
		sess.Hub.Broadcast(viewMessage("stateChange", sess.Trainer.View()))
	case "view":
		sess.Hub.Broadcast(viewMessage("view", sess.Trainer.View()))
	default:
		log.Printf("[WS] unknown message type %q\n", msg.Type)
	}
}
