package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ehdro06/EuroLoo/euroloo-go/internal/domain"
	"github.com/ehdro06/EuroLoo/euroloo-go/internal/geo"
	"github.com/ehdro06/EuroLoo/euroloo-go/internal/model"
	"github.com/ehdro06/EuroLoo/euroloo-go/internal/trust"
)

var toiletCols = []string{
	"id", "external_id", "lat", "lon", "name", "operator", "fee", "opening_hours", "wheelchair",
	"is_free", "is_paid", "is_accessible", "is_user_created", "submitter_id",
	"report_count", "verify_count", "is_verified", "is_hidden", "created_at", "updated_at",
}

var fixedTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type toiletRow struct {
	id                int64
	lat, lon          float64
	reports, verifies int
	verified, hidden  bool
	submitter         int64
}

func (r toiletRow) values() []any {
	return []any{
		r.id, "node/1", r.lat, r.lon, "Bahnhof", "DB", "0,50 €", "24/7", "yes",
		false, true, true, false, r.submitter,
		r.reports, r.verifies, r.verified, r.hidden, fixedTime, fixedTime,
	}
}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestToiletRepo_FindInRadius(t *testing.T) {
	mock := newMock(t)
	repo := NewToiletRepo(mock)

	mock.ExpectQuery("ST_DWithin").
		WithArgs(52.52, 13.4, 5000.0).
		WillReturnRows(pgxmock.NewRows(toiletCols).
			AddRow(toiletRow{id: 1, lat: 52.52, lon: 13.4}.values()...).
			AddRow(toiletRow{id: 2, lat: 52.53, lon: 13.41, submitter: 9}.values()...))

	got, err := repo.FindInRadius(context.Background(), 52.52, 13.4, 5000)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Nil(t, got[0].SubmitterID)
	require.NotNil(t, got[1].SubmitterID)
	assert.Equal(t, int64(9), *got[1].SubmitterID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestToiletRepo_FindInRadius_Empty(t *testing.T) {
	mock := newMock(t)
	repo := NewToiletRepo(mock)

	mock.ExpectQuery("ST_DWithin").WillReturnRows(pgxmock.NewRows(toiletCols))

	got, err := repo.FindInRadius(context.Background(), 0, 0, 300)
	require.NoError(t, err)
	assert.NotNil(t, got, "empty result must be an empty slice, not nil")
	assert.Empty(t, got)
}

func TestToiletRepo_FindInRadius_Timeout(t *testing.T) {
	mock := newMock(t)
	repo := NewToiletRepo(mock)

	mock.ExpectQuery("ST_DWithin").WillReturnError(context.DeadlineExceeded)

	_, err := repo.FindInRadius(context.Background(), 0, 0, 300)
	assert.ErrorIs(t, err, domain.ErrUnavailable)
}

func TestToiletRepo_ExistsWithin(t *testing.T) {
	mock := newMock(t)
	repo := NewToiletRepo(mock)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs(48.85, 2.35, 20.0).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.ExistsWithin(context.Background(), 48.85, 2.35, 20)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestToiletRepo_Insert(t *testing.T) {
	mock := newMock(t)
	repo := NewToiletRepo(mock)

	submitter := int64(4)
	nt := model.NewToilet{ExternalID: "user/x", Lat: 52.52, Lon: 13.4, IsUserCreated: true, SubmitterID: &submitter}
	stored, err := geo.EncodePoint(52.52, 13.4)
	require.NoError(t, err)

	mock.ExpectQuery("INSERT INTO toilets").
		WithArgs("user/x", 52.52, 13.4, stored, "", "", "", "", "", false, false, false, true, &submitter).
		WillReturnRows(pgxmock.NewRows(append(toiletCols, "location")).
			AddRow(append(toiletRow{id: 10, lat: 52.52, lon: 13.4, submitter: 4}.values(), stored)...))

	got, err := repo.Insert(context.Background(), nt)
	require.NoError(t, err)
	assert.Equal(t, int64(10), got.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestToiletRepo_Insert_LocationMismatch(t *testing.T) {
	mock := newMock(t)
	repo := NewToiletRepo(mock)

	elsewhere, err := geo.EncodePoint(10, 10)
	require.NoError(t, err)

	mock.ExpectQuery("INSERT INTO toilets").
		WillReturnRows(pgxmock.NewRows(append(toiletCols, "location")).
			AddRow(append(toiletRow{id: 10, lat: 52.52, lon: 13.4}.values(), elsewhere)...))

	_, err = repo.Insert(context.Background(), model.NewToilet{ExternalID: "user/x", Lat: 52.52, Lon: 13.4})
	assert.ErrorIs(t, err, domain.ErrInvariant)
}

func TestToiletRepo_Insert_Errors(t *testing.T) {
	tests := []struct {
		name string
		code string
		want error
	}{
		{"duplicate external id", codeUniqueViolation, domain.ErrDuplicate},
		{"unknown submitter", codeForeignKeyViolation, domain.ErrNotFound},
		{"check constraint", codeCheckViolation, domain.ErrInvalidGeometry},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMock(t)
			repo := NewToiletRepo(mock)

			mock.ExpectQuery("INSERT INTO toilets").WillReturnError(&pgconn.PgError{Code: tt.code})

			_, err := repo.Insert(context.Background(), model.NewToilet{ExternalID: "user/x", Lat: 1, Lon: 1})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestToiletRepo_Insert_InvalidCoordinates(t *testing.T) {
	mock := newMock(t)
	repo := NewToiletRepo(mock)

	_, err := repo.Insert(context.Background(), model.NewToilet{ExternalID: "user/x", Lat: 95, Lon: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidGeometry)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestToiletRepo_FindByID_NotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewToiletRepo(mock)

	mock.ExpectQuery("FROM toilets WHERE id").WithArgs(int64(99)).WillReturnError(pgx.ErrNoRows)

	_, err := repo.FindByID(context.Background(), 99)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestToiletRepo_RestoreAndDelete(t *testing.T) {
	mock := newMock(t)
	repo := NewToiletRepo(mock)

	mock.ExpectQuery("UPDATE toilets SET is_hidden = false, report_count = 0").
		WithArgs(int64(3)).
		WillReturnRows(pgxmock.NewRows(toiletCols).AddRow(toiletRow{id: 3, verifies: 1}.values()...))
	mock.ExpectExec("DELETE FROM toilets").WithArgs(int64(3)).WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec("DELETE FROM toilets").WithArgs(int64(3)).WillReturnResult(pgxmock.NewResult("DELETE", 0))

	ctx := context.Background()
	restored, err := repo.Restore(ctx, 3)
	require.NoError(t, err)
	assert.False(t, restored.IsHidden)
	assert.Equal(t, 0, restored.ReportCount)

	require.NoError(t, repo.Delete(ctx, 3))
	assert.ErrorIs(t, repo.Delete(ctx, 3), domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestToiletRepo_FindHidden(t *testing.T) {
	mock := newMock(t)
	repo := NewToiletRepo(mock)

	mock.ExpectQuery("WHERE is_hidden").
		WillReturnRows(pgxmock.NewRows(toiletCols).AddRow(toiletRow{id: 5, reports: 3, hidden: true}.values()...))

	got, err := repo.FindHidden(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].IsHidden)
}

func expectLock(mock pgxmock.PgxPoolIface, row toiletRow) {
	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs(row.id).
		WillReturnRows(pgxmock.NewRows(toiletCols).AddRow(row.values()...))
}

func TestVoteRepo_RecordVote_Verifies(t *testing.T) {
	mock := newMock(t)
	repo := NewVoteRepo(mock)

	expectLock(mock, toiletRow{id: 1, verifies: 2})
	mock.ExpectQuery("SELECT EXISTS").WithArgs(int64(7), int64(1), "VERIFY").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec("INSERT INTO votes").WithArgs("VERIFY", int64(7), int64(1)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery("UPDATE toilets").WithArgs(int64(1), 0, 3, false, true).
		WillReturnRows(pgxmock.NewRows([]string{"updated_at"}).AddRow(fixedTime.Add(time.Minute)))
	mock.ExpectCommit()

	got, tr, err := repo.RecordVote(context.Background(), 1, 7, domain.VoteVerify, trust.DefaultPolicy())
	require.NoError(t, err)
	assert.True(t, tr.Verified)
	assert.True(t, got.IsVerified)
	assert.Equal(t, 3, got.VerifyCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVoteRepo_RecordVote_Hides(t *testing.T) {
	mock := newMock(t)
	repo := NewVoteRepo(mock)

	expectLock(mock, toiletRow{id: 2, reports: 3, verifies: 1})
	mock.ExpectQuery("SELECT EXISTS").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec("INSERT INTO votes").WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery("UPDATE toilets").WithArgs(int64(2), 4, 1, true, false).
		WillReturnRows(pgxmock.NewRows([]string{"updated_at"}).AddRow(fixedTime))
	mock.ExpectCommit()

	got, tr, err := repo.RecordVote(context.Background(), 2, 7, domain.VoteReport, trust.DefaultPolicy())
	require.NoError(t, err)
	assert.True(t, tr.Hidden)
	assert.True(t, got.IsHidden)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVoteRepo_RecordVote_AlreadyVoted(t *testing.T) {
	mock := newMock(t)
	repo := NewVoteRepo(mock)

	expectLock(mock, toiletRow{id: 1, reports: 1})
	mock.ExpectQuery("SELECT EXISTS").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	_, _, err := repo.RecordVote(context.Background(), 1, 7, domain.VoteReport, trust.DefaultPolicy())
	assert.ErrorIs(t, err, domain.ErrAlreadyVoted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVoteRepo_RecordVote_UniqueViolationBackstop(t *testing.T) {
	mock := newMock(t)
	repo := NewVoteRepo(mock)

	expectLock(mock, toiletRow{id: 1})
	mock.ExpectQuery("SELECT EXISTS").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec("INSERT INTO votes").WillReturnError(&pgconn.PgError{Code: codeUniqueViolation})
	mock.ExpectRollback()

	_, _, err := repo.RecordVote(context.Background(), 1, 7, domain.VoteVerify, trust.DefaultPolicy())
	assert.ErrorIs(t, err, domain.ErrAlreadyVoted)
}

func TestVoteRepo_RecordVote_HiddenOrMissing(t *testing.T) {
	mock := newMock(t)
	repo := NewVoteRepo(mock)

	expectLock(mock, toiletRow{id: 1, reports: 3, hidden: true})
	mock.ExpectRollback()
	_, _, err := repo.RecordVote(context.Background(), 1, 7, domain.VoteVerify, trust.DefaultPolicy())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs(int64(404)).WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()
	_, _, err = repo.RecordVote(context.Background(), 404, 7, domain.VoteVerify, trust.DefaultPolicy())
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVoteRepo_RecordVote_BeginFails(t *testing.T) {
	mock := newMock(t)
	repo := NewVoteRepo(mock)

	mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

	_, _, err := repo.RecordVote(context.Background(), 1, 7, domain.VoteVerify, trust.DefaultPolicy())
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}

var userCols = []string{"id", "external_id", "email", "username", "role", "created_at"}

func TestUserRepo_Upsert(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepo(mock)

	mock.ExpectQuery("ON CONFLICT \\(external_id\\)").
		WithArgs("user_abc", "a@example.com", "").
		WillReturnRows(pgxmock.NewRows(userCols).AddRow(int64(1), "user_abc", "a@example.com", "alice", domain.RoleUser, fixedTime))

	u, err := repo.Upsert(context.Background(), model.Identity{ExternalID: "user_abc", Email: "a@example.com"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ID)
	assert.Equal(t, "alice", u.Username)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_SetRole(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepo(mock)

	mock.ExpectQuery("UPDATE users SET role").WithArgs("user_abc", domain.RoleAdmin).
		WillReturnRows(pgxmock.NewRows(userCols).AddRow(int64(1), "user_abc", "", "", domain.RoleAdmin, fixedTime))
	mock.ExpectQuery("UPDATE users SET role").WithArgs("nobody", domain.RoleAdmin).
		WillReturnError(pgx.ErrNoRows)

	u, err := repo.SetRole(context.Background(), "user_abc", domain.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, u.Role)

	_, err = repo.SetRole(context.Background(), "nobody", domain.RoleAdmin)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserRepo_List(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepo(mock)

	mock.ExpectQuery("FROM users ORDER BY").
		WillReturnRows(pgxmock.NewRows(userCols).
			AddRow(int64(2), "b", "", "", domain.RoleAdmin, fixedTime).
			AddRow(int64(1), "a", "", "", domain.RoleUser, fixedTime))

	users, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestReviewRepo_CreateAndList(t *testing.T) {
	mock := newMock(t)
	repo := NewReviewRepo(mock)

	mock.ExpectQuery("INSERT INTO reviews").WithArgs(int64(1), (*int64)(nil), "clean", 4).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(11), fixedTime))
	mock.ExpectQuery("FROM reviews WHERE toilet_id").WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "toilet_id", "user_id", "content", "rating", "created_at"}).
			AddRow(int64(11), int64(1), int64(0), "clean", 4, fixedTime).
			AddRow(int64(10), int64(1), int64(3), "ok", 3, fixedTime))

	ctx := context.Background()
	rv, err := repo.Create(ctx, 1, nil, "clean", 4)
	require.NoError(t, err)
	assert.Equal(t, int64(11), rv.ID)

	list, err := repo.ListByToilet(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Nil(t, list[0].UserID)
	require.NotNil(t, list[1].UserID)
	assert.Equal(t, int64(3), *list[1].UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepo_Create_UnknownToilet(t *testing.T) {
	mock := newMock(t)
	repo := NewReviewRepo(mock)

	mock.ExpectQuery("INSERT INTO reviews").WillReturnError(&pgconn.PgError{Code: codeForeignKeyViolation})

	_, err := repo.Create(context.Background(), 404, nil, "x", 3)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
