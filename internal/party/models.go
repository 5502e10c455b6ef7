package party

import (
	"time"
)

// Party is created and destroyed by the upstream join flow; this service only
// reads it and mutates its membership and queue.
type Party struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Member is one connection's identity inside a party. Nick and Colour stay
// empty until the client identifies itself with a hello frame.
type Member struct {
	ID        string    `json:"id"`
	PartyID   string    `json:"partyId"`
	Channel   string    `json:"channel"`
	Nick      string    `json:"nick"`
	Colour    string    `json:"colour"`
	CreatedAt time.Time `json:"createdAt"`
}

// Song rows are owned by the catalogue importer; only the id matters here.
type Song struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Artist    string    `json:"artist"`
	SongYear  int       `json:"songYear"`
	CreatedAt time.Time `json:"createdAt"`
}

// PlaylistEntry queues one song for one party. Ord is written as a constant
// and never varied; playback order is entry id (insertion) order.
type PlaylistEntry struct {
	ID        int64     `json:"id"`
	PartyID   string    `json:"partyId"`
	SongID    int64     `json:"songId"`
	Ord       int       `json:"ord"`
	CreatedAt time.Time `json:"createdAt"`
}
