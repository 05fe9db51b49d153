package images

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"pixvault/internal/common"
	"pixvault/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

var imageCols = []string{"id", "user_id", "file_name", "url", "created_at", "is_deleted", "deleted_at"}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+images\s*\(id,\s*user_id,\s*file_name,\s*url,\s*created_at\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5\)\s*$`

	now := time.Now()
	img := &models.Image{ID: "i-1", UserID: "u-1", FileName: "cat.jpg", URL: "http://s3/cat.jpg", CreatedAt: now}

	mock.ExpectExec(q).
		WithArgs(img.ID, img.UserID, img.FileName, img.URL, img.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	got, err := repo.Create(context.Background(), img)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != "i-1" {
		t.Fatalf("unexpected image: %+v", got)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+images\s*`).
		WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.Image{ID: "i-1"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGetByID_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,\s*user_id,\s*file_name,\s*url,\s*created_at,\s*is_deleted,\s*deleted_at\s+FROM\s+images\s+WHERE\s+id\s*=\s*\$1\s*$`

	now := time.Now()
	rows := sqlmock.NewRows(imageCols).
		AddRow("i-1", "u-1", "cat.jpg", "http://s3/cat.jpg", now, true, now)
	mock.ExpectQuery(q).
		WithArgs("i-1").
		WillReturnRows(rows)

	got, err := repo.GetByID(context.Background(), "i-1")
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if !got.IsDeleted || got.DeletedAt == nil {
		t.Fatalf("unexpected image: %+v", got)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT\s+.*FROM\s+images\s+WHERE\s+id\s*=\s*\$1\s*$`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "ghost")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestSelectActiveByUser(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+.*FROM\s+images\s+WHERE\s+user_id\s*=\s*\$1\s+AND\s+NOT\s+is_deleted\s+ORDER\s+BY\s+created_at\s*$`

	now := time.Now()
	rows := sqlmock.NewRows(imageCols).
		AddRow("i-1", "u-1", "a.jpg", "http://s3/a.jpg", now, false, nil).
		AddRow("i-2", "u-1", "b.png", "http://s3/b.png", now, false, nil)
	mock.ExpectQuery(q).
		WithArgs("u-1").
		WillReturnRows(rows)

	got, err := repo.SelectActiveByUser(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("SelectActiveByUser error: %v", err)
	}
	if len(got) != 2 || got[0].ID != "i-1" || got[1].FileName != "b.png" {
		t.Fatalf("unexpected images: %+v", got)
	}
}

func TestSelectDeletedByUser_Empty(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+.*FROM\s+images\s+WHERE\s+user_id\s*=\s*\$1\s+AND\s+is_deleted\s+ORDER\s+BY\s+deleted_at\s*$`

	mock.ExpectQuery(q).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows(imageCols))

	got, err := repo.SelectDeletedByUser(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("SelectDeletedByUser error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no images, got %+v", got)
	}
}

func TestSoftDelete_Affected(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^UPDATE\s+images\s+SET\s+is_deleted\s*=\s*true,\s*deleted_at\s*=\s*\$2\s+WHERE\s+id\s*=\s*\$1\s*$`

	now := time.Now()
	mock.ExpectExec(q).
		WithArgs("i-1", now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.SoftDelete(context.Background(), "i-1", now)
	if err != nil {
		t.Fatalf("SoftDelete error: %v", err)
	}
	if !ok {
		t.Fatalf("expected affected row")
	}
}

func TestSoftDelete_NoRow(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^UPDATE\s+images\s+SET\s+is_deleted\s*=\s*true`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.SoftDelete(context.Background(), "ghost", time.Now())
	if err != nil {
		t.Fatalf("SoftDelete error: %v", err)
	}
	if ok {
		t.Fatalf("expected no affected row")
	}
}

func TestRestore_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^UPDATE\s+images\s+SET\s+is_deleted\s*=\s*false,\s*deleted_at\s*=\s*NULL\s+WHERE\s+id\s*=\s*\$1\s*$`

	mock.ExpectExec(q).
		WithArgs("i-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Restore(context.Background(), "i-1"); err != nil {
		t.Fatalf("Restore error: %v", err)
	}
}

func TestRestore_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^UPDATE\s+images\s+SET\s+is_deleted\s*=\s*false`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Restore(context.Background(), "ghost")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestSelectDeletedBefore(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+.*FROM\s+images\s+WHERE\s+is_deleted\s+AND\s+deleted_at\s*<\s*\$1\s*$`

	now := time.Now()
	cutoff := now.AddDate(0, 0, -30)
	rows := sqlmock.NewRows(imageCols).
		AddRow("i-1", "u-1", "old.jpg", "http://s3/old.jpg", now.AddDate(0, 0, -40), true, now.AddDate(0, 0, -35))
	mock.ExpectQuery(q).
		WithArgs(cutoff).
		WillReturnRows(rows)

	got, err := repo.SelectDeletedBefore(context.Background(), cutoff)
	if err != nil {
		t.Fatalf("SelectDeletedBefore error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "i-1" {
		t.Fatalf("unexpected images: %+v", got)
	}
}

func TestHardDelete_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^DELETE\s+FROM\s+images\s+WHERE\s+id\s*=\s*\$1\s*$`).
		WithArgs("i-1").
		WillReturnError(errors.New("db err"))

	err := repo.HardDelete(context.Background(), "i-1")
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}
