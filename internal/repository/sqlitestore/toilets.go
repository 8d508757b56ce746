package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/ehdro06/EuroLoo/euroloo-go/internal/domain"
	"github.com/ehdro06/EuroLoo/euroloo-go/internal/geo"
	"github.com/ehdro06/EuroLoo/euroloo-go/internal/model"
)

const toiletColumns = `id, external_id, lat, lon, name, operator, fee, opening_hours, wheelchair,
	is_free, is_paid, is_accessible, is_user_created, COALESCE(submitter_id, 0),
	report_count, verify_count, is_verified, is_hidden, created_at, updated_at`

type ToiletStore struct {
	db *sql.DB
}

func scanToilet(row scanner) (*model.Toilet, error) {
	var t model.Toilet
	var submitter int64
	var created, updated string
	err := row.Scan(
		&t.ID, &t.ExternalID, &t.Lat, &t.Lon, &t.Name, &t.Operator, &t.Fee, &t.OpeningHours, &t.Wheelchair,
		&t.IsFree, &t.IsPaid, &t.IsAccessible, &t.IsUserCreated, &submitter,
		&t.ReportCount, &t.VerifyCount, &t.IsVerified, &t.IsHidden, &created, &updated,
	)
	if err != nil {
		return nil, err
	}
	if submitter != 0 {
		t.SubmitterID = &submitter
	}
	if t.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if t.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &t, nil
}

type candidate struct {
	toilet   model.Toilet
	distance float64
}

// withinRadius runs the bounding-box prefilter and keeps only rows whose
// haversine distance is within radius. limit <= 0 means no limit.
func (s *ToiletStore) withinRadius(ctx context.Context, lat, lon, radius float64, limit int) ([]candidate, error) {
	box := geo.BoundingBox(lat, lon, radius)
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+toiletColumns+`
		FROM toilets
		WHERE is_hidden = 0 AND lat BETWEEN ? AND ? AND lon BETWEEN ? AND ?`,
		box.MinLat, box.MaxLat, box.MinLon, box.MaxLon)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []candidate
	for rows.Next() {
		t, err := scanToilet(rows)
		if err != nil {
			return nil, err
		}
		d := geo.DistanceMeters(lat, lon, t.Lat, t.Lon)
		if d > radius {
			continue
		}
		out = append(out, candidate{toilet: *t, distance: d})
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, rows.Err()
}

// FindInRadius returns visible toilets within radius meters, nearest first.
func (s *ToiletStore) FindInRadius(ctx context.Context, lat, lon, radius float64) ([]model.Toilet, error) {
	cands, err := s.withinRadius(ctx, lat, lon, radius, 0)
	if err != nil {
		return nil, translate(err, "find toilets in radius")
	}
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].distance != cands[j].distance {
			return cands[i].distance < cands[j].distance
		}
		return cands[i].toilet.ID < cands[j].toilet.ID
	})
	toilets := make([]model.Toilet, len(cands))
	for i, c := range cands {
		toilets[i] = c.toilet
	}
	return toilets, nil
}

func (s *ToiletStore) ExistsWithin(ctx context.Context, lat, lon, radius float64) (bool, error) {
	cands, err := s.withinRadius(ctx, lat, lon, radius, 1)
	if err != nil {
		return false, translate(err, "check toilets within radius")
	}
	return len(cands) > 0, nil
}

func (s *ToiletStore) Insert(ctx context.Context, nt model.NewToilet) (*model.Toilet, error) {
	if !geo.ValidCoordinate(nt.Lat, nt.Lon) {
		return nil, fmt.Errorf("insert toilet (%f, %f): %w", nt.Lat, nt.Lon, domain.ErrInvalidGeometry)
	}
	t, err := scanToilet(s.db.QueryRowContext(ctx, `
		INSERT INTO toilets (external_id, lat, lon, name, operator, fee, opening_hours,
			wheelchair, is_free, is_paid, is_accessible, is_user_created, submitter_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING `+toiletColumns,
		nt.ExternalID, nt.Lat, nt.Lon, nt.Name, nt.Operator, nt.Fee, nt.OpeningHours,
		nt.Wheelchair, nt.IsFree, nt.IsPaid, nt.IsAccessible, nt.IsUserCreated, nt.SubmitterID))
	if err != nil {
		switch constraint(err) {
		case uniqueConstraint:
			return nil, fmt.Errorf("insert toilet %s: %w", nt.ExternalID, domain.ErrDuplicate)
		case foreignKeyConstraint:
			return nil, fmt.Errorf("insert toilet: submitter: %w", domain.ErrNotFound)
		case checkConstraint:
			return nil, fmt.Errorf("insert toilet: %w", domain.ErrInvalidGeometry)
		}
		return nil, translate(err, "insert toilet")
	}
	return t, nil
}

func (s *ToiletStore) FindByID(ctx context.Context, id int64) (*model.Toilet, error) {
	t, err := scanToilet(s.db.QueryRowContext(ctx, `SELECT `+toiletColumns+` FROM toilets WHERE id = ?`, id))
	if err != nil {
		return nil, translate(err, fmt.Sprintf("find toilet %d", id))
	}
	return t, nil
}

func (s *ToiletStore) FindByExternalID(ctx context.Context, externalID string) (*model.Toilet, error) {
	t, err := scanToilet(s.db.QueryRowContext(ctx,
		`SELECT `+toiletColumns+` FROM toilets WHERE external_id = ?`, externalID))
	if err != nil {
		return nil, translate(err, "find toilet by external id")
	}
	return t, nil
}

func (s *ToiletStore) FindHidden(ctx context.Context) ([]model.Toilet, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+toiletColumns+` FROM toilets WHERE is_hidden = 1 ORDER BY updated_at DESC, id`)
	if err != nil {
		return nil, translate(err, "find hidden toilets")
	}
	defer rows.Close()

	toilets := []model.Toilet{}
	for rows.Next() {
		t, err := scanToilet(rows)
		if err != nil {
			return nil, translate(err, "scan hidden toilet")
		}
		toilets = append(toilets, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err, "find hidden toilets")
	}
	return toilets, nil
}

func (s *ToiletStore) Restore(ctx context.Context, id int64) (*model.Toilet, error) {
	t, err := scanToilet(s.db.QueryRowContext(ctx, `
		UPDATE toilets SET is_hidden = 0, report_count = 0, updated_at = `+nowSQL+`
		WHERE id = ?
		RETURNING `+toiletColumns, id))
	if err != nil {
		return nil, translate(err, fmt.Sprintf("restore toilet %d", id))
	}
	return t, nil
}

func (s *ToiletStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM toilets WHERE id = ?`, id)
	if err != nil {
		return translate(err, fmt.Sprintf("delete toilet %d", id))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete toilet %d: %w", id, domain.ErrNotFound)
	}
	return nil
}
