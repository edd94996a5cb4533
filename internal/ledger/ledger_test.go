package ledger_test

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JaimeStill/dossier/internal/ledger"
)

func TestCacheClaimIsExclusive(t *testing.T) {
	c := ledger.NewCache(nil, nil)

	var (
		wg   sync.WaitGroup
		wins atomic.Int32
	)
	for range 32 {
		wg.Go(func() {
			if c.Claim("abc") {
				wins.Add(1)
			}
		})
	}
	wg.Wait()

	if got := wins.Load(); got != 1 {
		t.Errorf("claims won = %d, want 1", got)
	}
}

func TestCacheKnownHashNotClaimable(t *testing.T) {
	c := ledger.NewCache(nil, map[string]struct{}{"abc": {}})

	if c.Claim("abc") {
		t.Error("Claim of a known hash succeeded")
	}
	if !c.Known("abc") {
		t.Error("Known = false for seeded hash")
	}
}

func TestCacheRelease(t *testing.T) {
	c := ledger.NewCache(nil, nil)

	if !c.Claim("abc") {
		t.Fatal("first claim failed")
	}
	c.Release("abc")
	if !c.Claim("abc") {
		t.Error("claim after release failed")
	}
}

func TestCachePaths(t *testing.T) {
	c := ledger.NewCache(map[string]struct{}{"00000001/202401/a.pdf": {}}, nil)

	if !c.SeenPath("00000001/202401/a.pdf") {
		t.Error("seeded path not seen")
	}
	if c.SeenPath("00000001/202401/b.pdf") {
		t.Error("unseen path reported as seen")
	}

	c.AddPath("00000001/202401/b.pdf")
	if paths, _ := c.Len(); paths != 2 {
		t.Errorf("paths = %d, want 2", paths)
	}
}

func TestRecordMapsUniqueViolation(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO ledger_entries")).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err = ledger.Record(context.Background(), db, ledger.Entry{
		ScopeID: uuid.New(), Hash: "abc", OriginalPath: "x.pdf",
	})
	if !errors.Is(err, ledger.ErrDuplicate) {
		t.Errorf("err = %v, want ErrDuplicate", err)
	}
}

func TestRecordDefaultsOutcome(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	scope, doc := uuid.New(), uuid.New()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO ledger_entries")).
		WithArgs(scope, "abc", "00000001/202401/a.pdf", &doc, "DOCUMENT").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = ledger.Record(context.Background(), db, ledger.Entry{
		ScopeID: scope, Hash: "abc", OriginalPath: "00000001/202401/a.pdf", DocumentID: &doc,
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestNewCacheLoadsScope(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	scope := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT original_path FROM ledger_entries")).
		WithArgs(scope).
		WillReturnRows(sqlmock.NewRows([]string{"original_path"}).AddRow("a.pdf").AddRow("b.pdf"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT hash FROM ledger_entries")).
		WithArgs(scope).
		WillReturnRows(sqlmock.NewRows([]string{"hash"}).AddRow("h1"))

	sys := ledger.New(db, slog.New(slog.DiscardHandler))
	c, err := sys.NewCache(context.Background(), scope)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}

	paths, hashes := c.Len()
	if paths != 2 || hashes != 1 {
		t.Errorf("Len() = %d, %d; want 2, 1", paths, hashes)
	}
}
