package party

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	store    Store
	sessions *Sessions
	hub      *Hub
	locks    *partyLocks
	ctx      context.Context
	upgrader websocket.Upgrader
}

func NewServer(db DB, rdb *redis.Client, hub *Hub, ctx context.Context, frontendBaseURL string) *Server {
	return &Server{
		store:    NewStore(db),
		sessions: NewSessions(rdb),
		hub:      hub,
		locks:    newPartyLocks(),
		ctx:      ctx,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				if frontendBaseURL == "" {
					return true
				}
				return r.Header.Get("Origin") == frontendBaseURL
			},
		},
	}
}

func (s *Server) Router(middlewares ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	for _, mw := range middlewares {
		r.Use(mw)
	}

	r.Get("/health", s.handleHealth)
	r.Get("/ws/{partyID}", s.handleWS)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "party-service",
	})
}

// handleWS upgrades the connection and runs its read loop to completion.
// The session must already be bound to the requested party by the upstream
// join flow; a mismatch aborts before any member state is created.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	ctx := s.ctx

	partyID := chi.URLParam(r, "partyID")
	if partyID == "" {
		writeError(w, http.StatusBadRequest, "missing party id")
		return
	}

	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		if cookie, err := r.Cookie("sessionid"); err == nil {
			sessionID = cookie.Value
		}
	}
	if sessionID == "" {
		writeError(w, http.StatusUnauthorized, "missing session")
		return
	}

	bound, err := s.sessions.PartyID(ctx, sessionID)
	if err != nil {
		log.Printf("party-service: session lookup: %v", err)
		writeError(w, http.StatusInternalServerError, "session store error")
		return
	}
	if bound != partyID {
		log.Printf("party-service: %v: session %s bound to %q, requested %q",
			ErrPartyMismatch, sessionID, bound, partyID)
		writeError(w, http.StatusForbidden, "session not bound to this party")
		return
	}

	if _, err := s.store.GetParty(ctx, partyID); err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "party not found")
			return
		}
		log.Printf("party-service: party lookup: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("party-service: ws upgrade: %v", err)
		return
	}

	c := newClient(s.hub, conn, uuid.NewString(), partyID, sessionID)
	s.hub.Register(c)
	go c.writePump()

	if err := s.connect(ctx, c); err != nil {
		if !errors.Is(err, ErrRoomFull) {
			log.Printf("party-service: connect %s: %v", c.channel, err)
		}
		// Queued frames (the goodbye, if any) are flushed before close.
		s.hub.Unregister(c)
		return
	}

	c.readPump(ctx, s)
}
