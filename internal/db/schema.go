package db

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"
)

// postgisSchema creates the PostGIS tables. Every statement is idempotent so
// `migrate` can run on each deploy.
var postgisSchema = []string{
	`CREATE EXTENSION IF NOT EXISTS postgis`,
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		external_id TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL DEFAULT '',
		username TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL DEFAULT 'USER' CHECK (role IN ('USER', 'ADMIN')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS toilets (
		id BIGSERIAL PRIMARY KEY,
		external_id TEXT NOT NULL UNIQUE,
		lat DOUBLE PRECISION NOT NULL CHECK (lat BETWEEN -90 AND 90),
		lon DOUBLE PRECISION NOT NULL CHECK (lon BETWEEN -180 AND 180),
		location GEOGRAPHY(Point, 4326) NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		operator TEXT NOT NULL DEFAULT '',
		fee TEXT NOT NULL DEFAULT '',
		opening_hours TEXT NOT NULL DEFAULT '',
		wheelchair TEXT NOT NULL DEFAULT '',
		is_free BOOLEAN NOT NULL DEFAULT false,
		is_paid BOOLEAN NOT NULL DEFAULT false,
		is_accessible BOOLEAN NOT NULL DEFAULT false,
		is_user_created BOOLEAN NOT NULL DEFAULT false,
		submitter_id BIGINT REFERENCES users(id) ON DELETE SET NULL,
		report_count INTEGER NOT NULL DEFAULT 0 CHECK (report_count >= 0),
		verify_count INTEGER NOT NULL DEFAULT 0 CHECK (verify_count >= 0),
		is_verified BOOLEAN NOT NULL DEFAULT false,
		is_hidden BOOLEAN NOT NULL DEFAULT false,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_toilets_location ON toilets USING GIST (location)`,
	`CREATE INDEX IF NOT EXISTS idx_toilets_hidden ON toilets (is_hidden) WHERE is_hidden`,
	`CREATE TABLE IF NOT EXISTS votes (
		id BIGSERIAL PRIMARY KEY,
		type TEXT NOT NULL CHECK (type IN ('REPORT', 'VERIFY')),
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		toilet_id BIGINT NOT NULL REFERENCES toilets(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (user_id, toilet_id, type)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_votes_toilet ON votes (toilet_id)`,
	`CREATE TABLE IF NOT EXISTS reviews (
		id BIGSERIAL PRIMARY KEY,
		toilet_id BIGINT NOT NULL REFERENCES toilets(id) ON DELETE CASCADE,
		user_id BIGINT REFERENCES users(id) ON DELETE SET NULL,
		content TEXT NOT NULL,
		rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reviews_toilet ON reviews (toilet_id, created_at DESC)`,
}

// EnsureSchema creates the PostGIS schema if it does not exist.
func EnsureSchema(ctx context.Context, pool Pool) error {
	for i, stmt := range postgisSchema {
		log.Debug().Int("idx", i).Msg("schema exec")
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return eris.Wrapf(err, "schema statement %d", i)
		}
	}
	log.Info().Int("statements", len(postgisSchema)).Msg("schema ready")
	return nil
}
