package party

import (
	"context"
	"errors"
	"log"
)

// maxPartyMembers caps concurrent members per party.
const maxPartyMembers = 6

// connect runs when a websocket has been accepted for a party. It evicts any
// member a previous connection on the same session left behind, enforces the
// capacity cap, creates the anonymous member row and binds it to the session.
// On success the client has been sent accept and hello frames; ErrRoomFull
// means a goodbye frame was queued instead and no member was created.
func (s *Server) connect(ctx context.Context, c *Client) error {
	mu := s.locks.lockFor(c.partyID)
	mu.Lock()
	defer mu.Unlock()

	oldID, err := s.sessions.MemberID(ctx, c.sessionID)
	if err != nil {
		return err
	}
	if oldID != "" {
		old, err := s.store.GetMember(ctx, oldID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		if err == nil {
			// A stale member that had identified is visible to the party;
			// announce its departure before removing it.
			if old.Nick != "" {
				s.hub.SendRoom(old.PartyID, marshalEvent(memberLeftEvent{
					Action:  actionMemberLeft,
					Channel: old.Channel,
					Nick:    old.Nick,
				}))
				s.hub.Leave(old.PartyID, old.Channel)
			}
			if _, err := s.store.DeleteMember(ctx, old.ID); err != nil {
				return err
			}
		}
		if err := s.sessions.ClearMemberID(ctx, c.sessionID); err != nil {
			return err
		}
	}

	n, err := s.store.CountMembers(ctx, c.partyID)
	if err != nil {
		return err
	}
	if n >= maxPartyMembers {
		log.Printf("party-service: party %s full, rejecting %s", c.partyID, c.channel)
		s.hub.SendTo(c.channel, marshalEvent(goodbyeEvent{Action: actionGoodbye, Message: reasonRoomFull}))
		return ErrRoomFull
	}

	m, err := s.store.CreateMember(ctx, c.partyID, c.channel)
	if err != nil {
		return err
	}
	c.memberID = m.ID
	if err := s.sessions.SetMemberID(ctx, c.sessionID, m.ID); err != nil {
		return err
	}

	// Requester-directed frames go through the hub like everything else:
	// only the hub goroutine may saturate or close a send channel, so a
	// stalled client is dropped instead of blocking us under the party lock.
	s.hub.SendTo(c.channel, marshalEvent(acceptEvent{Action: actionAccept}))
	s.hub.SendTo(c.channel, marshalEvent(helloEvent{Action: actionHello, Channel: c.channel}))
	return nil
}

// identify names the member and gives it a colour, sends the requester the
// current member list and playlist, then joins it to the broadcast group and
// announces it to the party. Returns ErrNotFound when the member vanished
// before the hello frame arrived (disconnect raced the identify).
func (s *Server) identify(ctx context.Context, c *Client, nick string) error {
	mu := s.locks.lockFor(c.partyID)
	mu.Lock()
	defer mu.Unlock()

	m, err := s.store.GetMember(ctx, c.memberID)
	if err != nil {
		return err
	}

	members, err := s.store.ListMembers(ctx, c.partyID)
	if err != nil {
		return err
	}

	colour := allocateColour(members)
	if err := s.store.SetIdentity(ctx, m.ID, nick, colour); err != nil {
		return err
	}

	list := make(map[string]memberInfo, len(members))
	for _, mm := range members {
		if mm.ID == m.ID {
			mm.Nick, mm.Colour = nick, colour
		}
		list[mm.Channel] = memberInfo{Nick: mm.Nick, Colour: mm.Colour, ID: mm.ID}
	}
	s.hub.SendTo(c.channel, marshalEvent(memberListEvent{Action: actionMemberList, Members: list}))

	ids, err := s.store.PlaylistSongIDs(ctx, c.partyID)
	if err != nil {
		return err
	}
	s.hub.SendTo(c.channel, marshalEvent(playlistEvent{Action: actionPlaylist, Playlist: ids}))

	s.hub.Join(c.partyID, c)
	s.hub.SendRoom(c.partyID, marshalEvent(newMemberEvent{
		Action:  actionNewMember,
		Channel: c.channel,
		Nick:    nick,
		Colour:  colour,
		ID:      m.ID,
	}))
	return nil
}

// disconnect tears the member down when the connection goes away. A member
// that never identified leaves silently; an identified one is removed from
// the broadcast group and announced to the rest of the party. A member row
// already deleted by a reconnect's eviction is a benign no-op.
func (s *Server) disconnect(ctx context.Context, c *Client) {
	if c.memberID == "" {
		return
	}

	mu := s.locks.lockFor(c.partyID)
	mu.Lock()
	defer mu.Unlock()

	m, err := s.store.GetMember(ctx, c.memberID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		log.Printf("party-service: disconnect lookup %s: %v", c.memberID, err)
		return
	}

	if _, delErr := s.store.DeleteMember(ctx, c.memberID); delErr != nil {
		log.Printf("party-service: disconnect delete %s: %v", c.memberID, delErr)
	}

	// Only clear the session binding if it still points at this member; a
	// reconnect may already have bound a newer member id.
	if cur, curErr := s.sessions.MemberID(ctx, c.sessionID); curErr == nil && cur == c.memberID {
		_ = s.sessions.ClearMemberID(ctx, c.sessionID)
	}
	c.memberID = ""

	if m == nil || m.Nick == "" {
		return
	}

	s.hub.Leave(c.partyID, c.channel)
	s.hub.SendRoom(c.partyID, marshalEvent(memberLeftEvent{
		Action:  actionMemberLeft,
		Channel: c.channel,
		Nick:    m.Nick,
	}))
}
