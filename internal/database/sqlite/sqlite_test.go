package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"coffeeapi/internal/database"
	"coffeeapi/internal/database/repotest"
	"coffeeapi/internal/database/sqlstore"
	"coffeeapi/internal/models"
)

// newTestStore creates an in-memory SQLite repository for testing
func newTestStore(t *testing.T) *sqlstore.Repository {
	t.Helper()
	repo, err := Open(context.Background(), ":memory:", sqlstore.Options{QueryTimeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() {
		repo.Close()
	})
	return repo
}

func TestRepositoryContract(t *testing.T) {
	repotest.Run(t, func(t *testing.T) database.Repository {
		return newTestStore(t)
	}, repotest.Capabilities{LookupByID: true})
}

func TestAccentedNamesFoldCase(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	cafe := models.Roaster{Name: "Café Émile", URL: "https://cafe-emile.example/", Address: "4 Rue Street"}
	if err := repo.AddRoaster(ctx, cafe); err != nil {
		t.Fatalf("AddRoaster() error = %v", err)
	}

	got, err := repo.RoasterByName(ctx, "CAFÉ ÉMILE")
	if err != nil {
		t.Fatalf("RoasterByName() error = %v", err)
	}
	if got == nil || got.Name != cafe.Name {
		t.Fatalf("RoasterByName() = %+v, want %q", got, cafe.Name)
	}

	dup := cafe
	dup.Name = "CAFÉ ÉMILE"
	if err := repo.AddRoaster(ctx, dup); !errors.Is(err, database.ErrAlreadyExists) {
		t.Errorf("AddRoaster() duplicate error = %v, want ErrAlreadyExists", err)
	}

	all, err := repo.AllRoasters(ctx)
	if err != nil {
		t.Fatalf("AllRoasters() error = %v", err)
	}
	if len(all) != 1 {
		t.Errorf("AllRoasters() returned %d roasters, want 1", len(all))
	}

	removed, err := repo.RemoveRoaster(ctx, "café émile")
	if err != nil || !removed {
		t.Errorf("RemoveRoaster() = %v, %v, want true, nil", removed, err)
	}
}

func TestUniqueNameIndexIgnoresAccentCase(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("sql.Open() error = %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	stmts := []string{
		"CREATE TABLE names (name TEXT NOT NULL)",
		"CREATE UNIQUE INDEX names_fold_idx ON names (" + lowerFunc + "(name))",
		"INSERT INTO names (name) VALUES ('Ödön Kávé')",
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("%s: %v", stmt, err)
		}
	}

	_, err = db.Exec("INSERT INTO names (name) VALUES ('ÖDÖN KÁVÉ')")
	if !isUniqueViolation(err) {
		t.Errorf("insert of upper-cased name error = %v, want unique violation", err)
	}
}

func TestDSN(t *testing.T) {
	got := dsn("/tmp/coffee.db")
	want := "/tmp/coffee.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	if got != want {
		t.Errorf("dsn() = %q, want %q", got, want)
	}
}

func TestOpen_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "coffee.db")

	repo, err := Open(ctx, path, sqlstore.Options{})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	err = repo.AddRoaster(ctx, models.Roaster{Name: "Curve Coffee", URL: "https://www.curveroasters.co.uk/", Address: "123 Street"})
	if err != nil {
		t.Fatalf("AddRoaster failed: %v", err)
	}
	if err := repo.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// Second open must skip the already applied migration
	repo, err = Open(ctx, path, sqlstore.Options{})
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer repo.Close()

	got, err := repo.RoasterByName(ctx, "curve coffee")
	if err != nil {
		t.Fatalf("RoasterByName failed: %v", err)
	}
	if got == nil || got.Name != "Curve Coffee" {
		t.Errorf("RoasterByName after reopen = %+v, want Curve Coffee", got)
	}
}

func TestRemoveRoaster_MultipleMatchesRollsBack(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "coffee.db")

	repo, err := Open(ctx, path, sqlstore.Options{})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer repo.Close()

	// Simulate a corrupted store: no unique index, two rows with the same name
	raw, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		t.Fatalf("raw open failed: %v", err)
	}
	defer raw.Close()

	stmts := []string{
		"DROP INDEX roaster_name_lower_idx",
		"INSERT INTO roaster (name, url, address) VALUES ('Skylark Coffee', 'https://skylark.coffee/', '123 Street')",
		"INSERT INTO roaster (name, url, address) VALUES ('SKYLARK COFFEE', 'https://skylark.coffee/', '123 Street')",
	}
	for _, stmt := range stmts {
		if _, err := raw.ExecContext(ctx, stmt); err != nil {
			t.Fatalf("%s: %v", stmt, err)
		}
	}

	removed, err := repo.RemoveRoaster(ctx, "skylark coffee")
	if !errors.Is(err, database.ErrIntegrityViolation) {
		t.Fatalf("RemoveRoaster error = %v, want ErrIntegrityViolation", err)
	}
	if removed {
		t.Error("RemoveRoaster reported removal on integrity violation")
	}

	all, err := repo.AllRoasters(ctx)
	if err != nil {
		t.Fatalf("AllRoasters failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("AllRoasters len = %d, want 2 (delete should be rolled back)", len(all))
	}
}

func TestIsUniqueViolation(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "CREATE TABLE t (name TEXT UNIQUE)"); err != nil {
		t.Fatalf("create table failed: %v", err)
	}
	if _, err := db.ExecContext(ctx, "INSERT INTO t (name) VALUES ('a')"); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}

	_, err = db.ExecContext(ctx, "INSERT INTO t (name) VALUES ('a')")
	if err == nil {
		t.Fatal("duplicate insert succeeded")
	}
	if !isUniqueViolation(err) {
		t.Errorf("isUniqueViolation(%v) = false, want true", err)
	}

	if isUniqueViolation(errors.New("boom")) {
		t.Error("isUniqueViolation matched a plain error")
	}

	_, err = db.ExecContext(ctx, "INSERT INTO missing (name) VALUES ('a')")
	if err == nil || isUniqueViolation(err) {
		t.Errorf("isUniqueViolation(%v) = true, want false", err)
	}
}

func TestStoreClose(t *testing.T) {
	repo, err := Open(context.Background(), ":memory:", sqlstore.Options{})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if err := repo.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}

	// Operations should fail after close
	_, err = repo.AllRoasters(context.Background())
	if !errors.Is(err, database.ErrStoreFailure) {
		t.Errorf("AllRoasters after Close error = %v, want ErrStoreFailure", err)
	}
	if err := repo.Ping(context.Background()); err == nil {
		t.Error("Ping should fail after Close")
	}
}
