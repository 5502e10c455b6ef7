package party

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
)

// MockDB implements DB for SQL-level store tests.
type MockDB struct {
	ExecFunc     func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryFunc    func(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRowFunc func(ctx context.Context, sql string, args ...any) pgx.Row
}

func (m *MockDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if m.ExecFunc != nil {
		return m.ExecFunc(ctx, sql, args...)
	}
	return pgconn.CommandTag{}, nil
}

func (m *MockDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if m.QueryFunc != nil {
		return m.QueryFunc(ctx, sql, args...)
	}
	return &MockRows{}, nil
}

func (m *MockDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if m.QueryRowFunc != nil {
		return m.QueryRowFunc(ctx, sql, args...)
	}
	return &MockRow{}
}

// MockRow implements pgx.Row.
type MockRow struct {
	ScanFunc func(dest ...any) error
}

func (m *MockRow) Scan(dest ...any) error {
	if m.ScanFunc != nil {
		return m.ScanFunc(dest...)
	}
	return nil
}

// MockRows implements pgx.Rows over fixed row data.
type MockRows struct {
	pgx.Rows
	Data [][]any
	idx  int
}

func (m *MockRows) Next() bool {
	m.idx++
	return m.idx <= len(m.Data)
}

func (m *MockRows) Scan(dest ...any) error {
	row := m.Data[m.idx-1]
	for i, v := range row {
		switch d := dest[i].(type) {
		case *string:
			*d = v.(string)
		case *int64:
			*d = v.(int64)
		case *int:
			*d = v.(int)
		case *bool:
			*d = v.(bool)
		case *time.Time:
			*d = v.(time.Time)
		}
	}
	return nil
}

func (m *MockRows) Close()     {}
func (m *MockRows) Err() error { return nil }

// memStore is an in-memory Store for lifecycle tests, where multi-step
// scenarios would make SQL mocks unwieldy.
type memStore struct {
	mu      sync.Mutex
	parties map[string]Party
	members map[string]Member
	songs   map[int64]bool
	entries []PlaylistEntry

	nextEntryID int64
	seq         int64
}

func newMemStore() *memStore {
	return &memStore{
		parties: make(map[string]Party),
		members: make(map[string]Member),
		songs:   make(map[int64]bool),
	}
}

func (st *memStore) addParty(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.parties[id] = Party{ID: id, CreatedAt: time.Now()}
}

func (st *memStore) addSong(id int64) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.songs[id] = true
}

func (st *memStore) GetParty(_ context.Context, id string) (*Party, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	p, ok := st.parties[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (st *memStore) CountMembers(_ context.Context, partyID string) (int, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	n := 0
	for _, m := range st.members {
		if m.PartyID == partyID {
			n++
		}
	}
	return n, nil
}

func (st *memStore) CreateMember(_ context.Context, partyID, channel string) (*Member, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.seq++
	m := Member{
		ID:        uuid.NewString(),
		PartyID:   partyID,
		Channel:   channel,
		CreatedAt: time.Unix(0, st.seq),
	}
	st.members[m.ID] = m
	return &m, nil
}

func (st *memStore) GetMember(_ context.Context, id string) (*Member, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	m, ok := st.members[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &m, nil
}

func (st *memStore) DeleteMember(_ context.Context, id string) (bool, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.members[id]; !ok {
		return false, nil
	}
	delete(st.members, id)
	return true, nil
}

func (st *memStore) ListMembers(_ context.Context, partyID string) ([]Member, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	members := []Member{}
	for _, m := range st.members {
		if m.PartyID == partyID {
			members = append(members, m)
		}
	}
	sort.Slice(members, func(i, j int) bool {
		return members[i].CreatedAt.Before(members[j].CreatedAt)
	})
	return members, nil
}

func (st *memStore) SetIdentity(_ context.Context, memberID, nick, colour string) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	m, ok := st.members[memberID]
	if !ok {
		return ErrNotFound
	}
	m.Nick, m.Colour = nick, colour
	st.members[memberID] = m
	return nil
}

func (st *memStore) SongExists(_ context.Context, songID int64) (bool, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.songs[songID], nil
}

func (st *memStore) AddPlaylistEntry(_ context.Context, partyID string, songID int64) (bool, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	for _, e := range st.entries {
		if e.PartyID == partyID && e.SongID == songID {
			return false, nil
		}
	}
	st.nextEntryID++
	st.entries = append(st.entries, PlaylistEntry{
		ID:      st.nextEntryID,
		PartyID: partyID,
		SongID:  songID,
		Ord:     1,
	})
	return true, nil
}

func (st *memStore) RemovePlaylistEntry(_ context.Context, partyID string, songID int64) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	kept := st.entries[:0]
	for _, e := range st.entries {
		if !(e.PartyID == partyID && e.SongID == songID) {
			kept = append(kept, e)
		}
	}
	st.entries = kept
	return nil
}

func (st *memStore) PlaylistSongIDs(_ context.Context, partyID string) ([]int64, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	ids := []int64{}
	for _, e := range st.entries {
		if e.PartyID == partyID {
			ids = append(ids, e.SongID)
		}
	}
	return ids, nil
}

// newTestServer wires a Server against memStore, miniredis sessions and a
// running hub.
func newTestServer(t *testing.T) (*Server, *memStore, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	hub := NewHub()
	go hub.Run()

	srv := NewServer(nil, rdb, hub, context.Background(), "")
	ms := newMemStore()
	srv.store = ms
	return srv, ms, mr
}

// newLocalClient registers a connection-less client for driving the
// lifecycle directly; frames are read straight off the send channel.
func newLocalClient(srv *Server, partyID, sessionID string) *Client {
	c := newClient(srv.hub, nil, uuid.NewString(), partyID, sessionID)
	srv.hub.Register(c)
	return c
}

func recvFrame(t *testing.T, c *Client) map[string]any {
	t.Helper()
	select {
	case raw := <-c.send:
		var m map[string]any
		if err := json.Unmarshal(raw, &m); err != nil {
			t.Fatalf("Failed to decode frame %q: %v", raw, err)
		}
		return m
	case <-time.After(500 * time.Millisecond):
		t.Fatal("Timed out waiting for frame")
	}
	return nil
}

// drainFrames waits for in-flight hub deliveries and returns everything
// queued on the client.
func drainFrames(t *testing.T, c *Client) []map[string]any {
	t.Helper()
	time.Sleep(50 * time.Millisecond)
	frames := []map[string]any{}
	for {
		select {
		case raw := <-c.send:
			var m map[string]any
			if err := json.Unmarshal(raw, &m); err != nil {
				t.Fatalf("Failed to decode frame %q: %v", raw, err)
			}
			frames = append(frames, m)
		default:
			return frames
		}
	}
}

func testTime() time.Time {
	return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
}

func countAction(frames []map[string]any, action string) int {
	n := 0
	for _, f := range frames {
		if f["action"] == action {
			n++
		}
	}
	return n
}
