package party

import (
	"context"
	"log"
)

// addToQueue appends a song to the party's playlist. A song already queued
// for this party is a silent no-op: no new entry, no broadcast. The duplicate
// check and the insert run under the party lock.
func (s *Server) addToQueue(ctx context.Context, c *Client, songID int64) error {
	mu := s.locks.lockFor(c.partyID)
	mu.Lock()
	defer mu.Unlock()

	ok, err := s.store.SongExists(ctx, songID)
	if err != nil {
		return err
	}
	if !ok {
		// Song vanished from the catalogue; nothing to queue.
		return nil
	}

	created, err := s.store.AddPlaylistEntry(ctx, c.partyID, songID)
	if err != nil {
		return err
	}
	if !created {
		return nil
	}
	return s.broadcastPlaylist(ctx, c.partyID)
}

// removeFromQueue deletes any matching entry and always broadcasts the
// resulting playlist, even when nothing was deleted, so clients reconcile
// against the authoritative state.
func (s *Server) removeFromQueue(ctx context.Context, c *Client, songID int64) error {
	mu := s.locks.lockFor(c.partyID)
	mu.Lock()
	defer mu.Unlock()

	if err := s.store.RemovePlaylistEntry(ctx, c.partyID, songID); err != nil {
		return err
	}
	return s.broadcastPlaylist(ctx, c.partyID)
}

func (s *Server) broadcastPlaylist(ctx context.Context, partyID string) error {
	ids, err := s.store.PlaylistSongIDs(ctx, partyID)
	if err != nil {
		return err
	}
	log.Printf("party-service: party %s playlist %v", partyID, ids)
	s.hub.SendRoom(partyID, marshalEvent(playlistEvent{Action: actionPlaylist, Playlist: ids}))
	return nil
}
