package party

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

func AutoMigrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, `
      CREATE TABLE IF NOT EXISTS parties (
          id         TEXT PRIMARY KEY,
          name       TEXT NOT NULL DEFAULT '',
          created_at TIMESTAMPTZ NOT NULL DEFAULT now()
      )
    `); err != nil {
		log.Printf("party-service: migrate parties: %v", err)
		return err
	}

	if _, err := pool.Exec(ctx, `
      CREATE TABLE IF NOT EXISTS party_members (
          id         uuid PRIMARY KEY,
          party_id   TEXT NOT NULL REFERENCES parties(id) ON DELETE CASCADE,
          channel    TEXT NOT NULL,
          nick       TEXT NOT NULL DEFAULT '',
          colour     TEXT NOT NULL DEFAULT '',
          created_at TIMESTAMPTZ NOT NULL DEFAULT now()
      )
    `); err != nil {
		return err
	}

	if _, err := pool.Exec(ctx, `
      CREATE TABLE IF NOT EXISTS songs (
          id         BIGSERIAL PRIMARY KEY,
          title      TEXT NOT NULL,
          artist     TEXT NOT NULL DEFAULT '',
          created_at TIMESTAMPTZ NOT NULL DEFAULT now()
      )
    `); err != nil {
		return err
	}

	// Older catalogues predate the year column.
	if _, err := pool.Exec(ctx, `
		ALTER TABLE songs ADD COLUMN IF NOT EXISTS song_year INT NOT NULL DEFAULT 0;
	`); err != nil {
		return err
	}

	if _, err := pool.Exec(ctx, `
      CREATE TABLE IF NOT EXISTS playlist_entries (
          id         BIGSERIAL PRIMARY KEY,
          party_id   TEXT NOT NULL REFERENCES parties(id) ON DELETE CASCADE,
          song_id    BIGINT NOT NULL REFERENCES songs(id) ON DELETE CASCADE,
          ord        INT NOT NULL DEFAULT 1,
          created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
          UNIQUE (party_id, song_id)
      )
    `); err != nil {
		return err
	}

	if _, err := pool.Exec(ctx, `
      CREATE INDEX IF NOT EXISTS idx_party_members_party
      ON party_members(party_id)
    `); err != nil {
		return err
	}

	return nil
}
