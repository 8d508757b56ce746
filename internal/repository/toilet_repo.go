package repository

import (
	"context"
	"fmt"
	"math"

	"github.com/jackc/pgx/v5"

	"github.com/ehdro06/EuroLoo/euroloo-go/internal/db"
	"github.com/ehdro06/EuroLoo/euroloo-go/internal/domain"
	"github.com/ehdro06/EuroLoo/euroloo-go/internal/geo"
	"github.com/ehdro06/EuroLoo/euroloo-go/internal/model"
)

// toiletColumns is the select list scanned by scanToilet.
const toiletColumns = `id, external_id, lat, lon, name, operator, fee, opening_hours, wheelchair,
	is_free, is_paid, is_accessible, is_user_created, COALESCE(submitter_id, 0),
	report_count, verify_count, is_verified, is_hidden, created_at, updated_at`

// pointSQL builds the geography for ($lon, $lat) parameters.
const pointSQL = `ST_SetSRID(ST_MakePoint($2, $1), 4326)::geography`

// coordinateTolerance is the largest lat/lon drift accepted between the
// numeric columns and the stored geography.
const coordinateTolerance = 1e-9

type ToiletRepo struct {
	pool db.Pool
}

func NewToiletRepo(pool db.Pool) *ToiletRepo {
	return &ToiletRepo{pool: pool}
}

func scanToilet(row pgx.Row, extra ...any) (*model.Toilet, error) {
	var t model.Toilet
	var submitter int64
	dest := []any{
		&t.ID, &t.ExternalID, &t.Lat, &t.Lon, &t.Name, &t.Operator, &t.Fee, &t.OpeningHours, &t.Wheelchair,
		&t.IsFree, &t.IsPaid, &t.IsAccessible, &t.IsUserCreated, &submitter,
		&t.ReportCount, &t.VerifyCount, &t.IsVerified, &t.IsHidden, &t.CreatedAt, &t.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	if submitter != 0 {
		t.SubmitterID = &submitter
	}
	return &t, nil
}

func collectToilets(rows pgx.Rows) ([]model.Toilet, error) {
	defer rows.Close()
	toilets := []model.Toilet{}
	for rows.Next() {
		t, err := scanToilet(rows)
		if err != nil {
			return nil, err
		}
		toilets = append(toilets, *t)
	}
	return toilets, rows.Err()
}

// FindInRadius returns visible toilets within radius meters of (lat, lon),
// nearest first.
func (r *ToiletRepo) FindInRadius(ctx context.Context, lat, lon, radius float64) ([]model.Toilet, error) {
	query := `
		SELECT ` + toiletColumns + `
		FROM toilets
		WHERE NOT is_hidden AND ST_DWithin(location, ` + pointSQL + `, $3)
		ORDER BY ST_Distance(location, ` + pointSQL + `), id`

	rows, err := r.pool.Query(ctx, query, lat, lon, radius)
	if err != nil {
		return nil, translate(err, "find toilets in radius")
	}
	toilets, err := collectToilets(rows)
	if err != nil {
		return nil, translate(err, "scan toilets in radius")
	}
	return toilets, nil
}

// ExistsWithin reports whether any visible toilet lies within radius meters.
func (r *ToiletRepo) ExistsWithin(ctx context.Context, lat, lon, radius float64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM toilets
			WHERE NOT is_hidden AND ST_DWithin(location, ` + pointSQL + `, $3)
		)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, lat, lon, radius).Scan(&exists); err != nil {
		return false, translate(err, "check toilets within radius")
	}
	return exists, nil
}

// Insert stores a new toilet. lat/lon and the geography column are written
// by the same statement, and the stored geography is read back to confirm
// they agree.
func (r *ToiletRepo) Insert(ctx context.Context, nt model.NewToilet) (*model.Toilet, error) {
	point, err := geo.EncodePoint(nt.Lat, nt.Lon)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidGeometry, err)
	}

	query := `
		INSERT INTO toilets (external_id, lat, lon, location, name, operator, fee, opening_hours,
			wheelchair, is_free, is_paid, is_accessible, is_user_created, submitter_id)
		VALUES ($1, $2, $3, ST_GeomFromEWKB($4)::geography, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING ` + toiletColumns + `, ST_AsEWKB(location::geometry)`

	var stored []byte
	t, err := scanToilet(r.pool.QueryRow(ctx, query,
		nt.ExternalID, nt.Lat, nt.Lon, point, nt.Name, nt.Operator, nt.Fee, nt.OpeningHours,
		nt.Wheelchair, nt.IsFree, nt.IsPaid, nt.IsAccessible, nt.IsUserCreated, nt.SubmitterID,
	), &stored)
	if err != nil {
		switch pgCode(err) {
		case codeUniqueViolation:
			return nil, fmt.Errorf("insert toilet %s: %w", nt.ExternalID, domain.ErrDuplicate)
		case codeForeignKeyViolation:
			return nil, fmt.Errorf("insert toilet: submitter: %w", domain.ErrNotFound)
		case codeCheckViolation:
			return nil, fmt.Errorf("insert toilet: %w", domain.ErrInvalidGeometry)
		}
		return nil, translate(err, "insert toilet")
	}

	lat, lon, err := geo.DecodePoint(stored)
	if err != nil {
		return nil, fmt.Errorf("%w: stored location unreadable: %v", domain.ErrInvariant, err)
	}
	if math.Abs(lat-t.Lat) > coordinateTolerance || math.Abs(lon-t.Lon) > coordinateTolerance {
		return nil, fmt.Errorf("%w: location (%f, %f) disagrees with lat/lon (%f, %f)",
			domain.ErrInvariant, lat, lon, t.Lat, t.Lon)
	}
	return t, nil
}

func (r *ToiletRepo) FindByID(ctx context.Context, id int64) (*model.Toilet, error) {
	query := `SELECT ` + toiletColumns + ` FROM toilets WHERE id = $1`
	t, err := scanToilet(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, translate(err, fmt.Sprintf("find toilet %d", id))
	}
	return t, nil
}

func (r *ToiletRepo) FindByExternalID(ctx context.Context, externalID string) (*model.Toilet, error) {
	query := `SELECT ` + toiletColumns + ` FROM toilets WHERE external_id = $1`
	t, err := scanToilet(r.pool.QueryRow(ctx, query, externalID))
	if err != nil {
		return nil, translate(err, "find toilet by external id")
	}
	return t, nil
}

// FindHidden lists hidden toilets for moderation, most recently changed first.
func (r *ToiletRepo) FindHidden(ctx context.Context) ([]model.Toilet, error) {
	query := `SELECT ` + toiletColumns + ` FROM toilets WHERE is_hidden ORDER BY updated_at DESC, id`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, translate(err, "find hidden toilets")
	}
	toilets, err := collectToilets(rows)
	if err != nil {
		return nil, translate(err, "scan hidden toilets")
	}
	return toilets, nil
}

// Restore unhides a toilet and clears its reports. Verification is kept.
func (r *ToiletRepo) Restore(ctx context.Context, id int64) (*model.Toilet, error) {
	query := `
		UPDATE toilets SET is_hidden = false, report_count = 0, updated_at = now()
		WHERE id = $1
		RETURNING ` + toiletColumns
	t, err := scanToilet(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, translate(err, fmt.Sprintf("restore toilet %d", id))
	}
	return t, nil
}

// Delete removes a toilet; its votes and reviews cascade.
func (r *ToiletRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM toilets WHERE id = $1`, id)
	if err != nil {
		return translate(err, fmt.Sprintf("delete toilet %d", id))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete toilet %d: %w", id, domain.ErrNotFound)
	}
	return nil
}
