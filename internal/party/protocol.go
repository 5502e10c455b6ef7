package party

import (
	"context"
	"encoding/json"
	"errors"
	"log"
)

const (
	actionHello           = "hello"
	actionAccept          = "accept"
	actionGoodbye         = "goodbye"
	actionMemberList      = "member_list"
	actionPlaylist        = "playlist"
	actionNewMember       = "new_member"
	actionMemberLeft      = "member_left"
	actionRelay           = "relay"
	actionAddToQueue      = "addToQueue"
	actionRemoveFromQueue = "removeFromQueue"
)

const reasonRoomFull = "room_full"

// inboundEvent is the union of every client frame; Action discriminates.
type inboundEvent struct {
	Action  string          `json:"action"`
	Nick    string          `json:"nick,omitempty"`
	Target  string          `json:"target,omitempty"`
	Message json.RawMessage `json:"message,omitempty"`
	Song    int64           `json:"song,omitempty"`
}

type acceptEvent struct {
	Action string `json:"action"`
}

type helloEvent struct {
	Action  string `json:"action"`
	Channel string `json:"channel"`
}

type goodbyeEvent struct {
	Action  string `json:"action"`
	Message string `json:"message"`
}

type memberInfo struct {
	Nick   string `json:"nick"`
	Colour string `json:"colour"`
	ID     string `json:"id"`
}

type memberListEvent struct {
	Action  string                `json:"action"`
	Members map[string]memberInfo `json:"members"`
}

type playlistEvent struct {
	Action   string  `json:"action"`
	Playlist []int64 `json:"playlist"`
}

type newMemberEvent struct {
	Action  string `json:"action"`
	Channel string `json:"channel"`
	Nick    string `json:"nick"`
	Colour  string `json:"colour"`
	ID      string `json:"id"`
}

type memberLeftEvent struct {
	Action  string `json:"action"`
	Channel string `json:"channel"`
	Nick    string `json:"nick"`
}

type relayEvent struct {
	Action  string          `json:"action"`
	Origin  string          `json:"origin"`
	Message json.RawMessage `json:"message"`
}

func marshalEvent(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("party-service: marshal event: %v", err)
		return nil
	}
	return data
}

// dispatch handles one decoded inbound frame to completion. Unknown actions
// are ignored so newer clients keep working against this server. Anticipated
// races surface as ErrNotFound and are swallowed; anything else is logged and
// the connection keeps processing subsequent frames.
func (s *Server) dispatch(ctx context.Context, c *Client, raw []byte) {
	var ev inboundEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		log.Printf("party-service: bad frame from %s: %v", c.channel, err)
		return
	}

	var err error
	switch ev.Action {
	case actionHello:
		err = s.identify(ctx, c, ev.Nick)
	case actionRelay:
		s.relay(c, ev.Target, ev.Message)
	case actionAddToQueue:
		err = s.addToQueue(ctx, c, ev.Song)
	case actionRemoveFromQueue:
		err = s.removeFromQueue(ctx, c, ev.Song)
	default:
		// Unknown action: forward-compatible no-op.
	}

	if err != nil && !errors.Is(err, ErrNotFound) {
		log.Printf("party-service: %s from %s: %v", ev.Action, c.channel, err)
	}
}

// relay forwards an opaque payload to one specific connection, stamping the
// sender's channel as origin. A missing target is a no-op.
func (s *Server) relay(c *Client, target string, message json.RawMessage) {
	if target == "" {
		return
	}
	s.hub.SendTo(target, marshalEvent(relayEvent{
		Action:  actionRelay,
		Origin:  c.channel,
		Message: message,
	}))
}
