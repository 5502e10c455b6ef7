package party

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool.Pool the store needs, kept as an interface so
// tests can inject mocks.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store is the persistence capability the lifecycle code depends on. The
// production implementation speaks SQL through a DB; tests swap in an
// in-memory one.
type Store interface {
	GetParty(ctx context.Context, id string) (*Party, error)
	CountMembers(ctx context.Context, partyID string) (int, error)
	CreateMember(ctx context.Context, partyID, channel string) (*Member, error)
	GetMember(ctx context.Context, id string) (*Member, error)
	DeleteMember(ctx context.Context, id string) (bool, error)
	ListMembers(ctx context.Context, partyID string) ([]Member, error)
	SetIdentity(ctx context.Context, memberID, nick, colour string) error
	SongExists(ctx context.Context, songID int64) (bool, error)
	AddPlaylistEntry(ctx context.Context, partyID string, songID int64) (bool, error)
	RemovePlaylistEntry(ctx context.Context, partyID string, songID int64) error
	PlaylistSongIDs(ctx context.Context, partyID string) ([]int64, error)
}

type pgStore struct {
	db DB
}

// NewStore returns the SQL-backed Store.
func NewStore(db DB) Store {
	return &pgStore{db: db}
}

func (st *pgStore) GetParty(ctx context.Context, id string) (*Party, error) {
	p := &Party{ID: id}
	err := st.db.QueryRow(ctx, `
		SELECT name, created_at
		FROM parties
		WHERE id = $1
	`, id).Scan(&p.Name, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (st *pgStore) CountMembers(ctx context.Context, partyID string) (int, error) {
	var n int
	err := st.db.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM party_members
		WHERE party_id = $1
	`, partyID).Scan(&n)
	return n, err
}

func (st *pgStore) CreateMember(ctx context.Context, partyID, channel string) (*Member, error) {
	m := &Member{
		ID:      uuid.NewString(),
		PartyID: partyID,
		Channel: channel,
	}
	err := st.db.QueryRow(ctx, `
		INSERT INTO party_members (id, party_id, channel)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`, m.ID, m.PartyID, m.Channel).Scan(&m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (st *pgStore) GetMember(ctx context.Context, id string) (*Member, error) {
	m := &Member{ID: id}
	err := st.db.QueryRow(ctx, `
		SELECT party_id, channel, nick, colour, created_at
		FROM party_members
		WHERE id = $1
	`, id).Scan(&m.PartyID, &m.Channel, &m.Nick, &m.Colour, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (st *pgStore) DeleteMember(ctx context.Context, id string) (bool, error) {
	tag, err := st.db.Exec(ctx, `
		DELETE FROM party_members
		WHERE id = $1
	`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (st *pgStore) ListMembers(ctx context.Context, partyID string) ([]Member, error) {
	rows, err := st.db.Query(ctx, `
		SELECT id, channel, nick, colour, created_at
		FROM party_members
		WHERE party_id = $1
		ORDER BY created_at
	`, partyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []Member{}
	for rows.Next() {
		m := Member{PartyID: partyID}
		if err := rows.Scan(&m.ID, &m.Channel, &m.Nick, &m.Colour, &m.CreatedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (st *pgStore) SetIdentity(ctx context.Context, memberID, nick, colour string) error {
	tag, err := st.db.Exec(ctx, `
		UPDATE party_members
		SET nick = $2, colour = $3
		WHERE id = $1
	`, memberID, nick, colour)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (st *pgStore) SongExists(ctx context.Context, songID int64) (bool, error) {
	var exists bool
	err := st.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM songs WHERE id = $1)
	`, songID).Scan(&exists)
	return exists, err
}

// AddPlaylistEntry reports whether a new entry was created. A pre-existing
// (party, song) pair is not an error; the caller stays silent about it.
// The duplicate check and the insert are covered by the caller's party lock.
func (st *pgStore) AddPlaylistEntry(ctx context.Context, partyID string, songID int64) (bool, error) {
	var id int64
	err := st.db.QueryRow(ctx, `
		SELECT id
		FROM playlist_entries
		WHERE party_id = $1 AND song_id = $2
	`, partyID, songID).Scan(&id)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return false, err
	}

	_, err = st.db.Exec(ctx, `
		INSERT INTO playlist_entries (party_id, song_id, ord)
		VALUES ($1, $2, 1)
	`, partyID, songID)
	if err != nil {
		return false, err
	}
	return true, nil
}

func (st *pgStore) RemovePlaylistEntry(ctx context.Context, partyID string, songID int64) error {
	_, err := st.db.Exec(ctx, `
		DELETE FROM playlist_entries
		WHERE party_id = $1 AND song_id = $2
	`, partyID, songID)
	return err
}

func (st *pgStore) PlaylistSongIDs(ctx context.Context, partyID string) ([]int64, error) {
	rows, err := st.db.Query(ctx, `
		SELECT song_id
		FROM playlist_entries
		WHERE party_id = $1
		ORDER BY id
	`, partyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
