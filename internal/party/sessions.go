package party

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// Sessions reads and writes the small amount of per-session state the party
// core needs: which party the session joined (written upstream by the join
// flow) and which member row the session's live connection owns.
type Sessions struct {
	rdb *redis.Client
}

func NewSessions(rdb *redis.Client) *Sessions {
	return &Sessions{rdb: rdb}
}

func sessionPartyKey(sessionID string) string {
	return "party:session:" + sessionID + ":party"
}

func sessionMemberKey(sessionID string) string {
	return "party:session:" + sessionID + ":member"
}

// PartyID returns the party the session is bound to, or "" when unbound.
func (s *Sessions) PartyID(ctx context.Context, sessionID string) (string, error) {
	if s.rdb == nil {
		return "", nil
	}
	v, err := s.rdb.Get(ctx, sessionPartyKey(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return v, err
}

// MemberID returns the member id a previous connection on this session left
// behind, or "" when there is none.
func (s *Sessions) MemberID(ctx context.Context, sessionID string) (string, error) {
	if s.rdb == nil {
		return "", nil
	}
	v, err := s.rdb.Get(ctx, sessionMemberKey(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return v, err
}

func (s *Sessions) SetMemberID(ctx context.Context, sessionID, memberID string) error {
	if s.rdb == nil {
		return nil
	}
	return s.rdb.Set(ctx, sessionMemberKey(sessionID), memberID, 0).Err()
}

func (s *Sessions) ClearMemberID(ctx context.Context, sessionID string) error {
	if s.rdb == nil {
		return nil
	}
	return s.rdb.Del(ctx, sessionMemberKey(sessionID)).Err()
}
