//go:build integration || !unit

package mysql_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"guestline_hotels/internal/domain"
	mysqlrepo "guestline_hotels/internal/storage/mysql"
)

// ---------- small helpers ----------

func migrationsDir(t *testing.T) string {
	t.Helper()
	if v := os.Getenv("MIGRATIONS_DIR"); v != "" {
		return v
	}
	return filepath.Join("..", "..", "..", "migrations")
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := migrationsDir(t)

	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir %s: %v", dir, err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)

	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

// startMySQL runs an isolated MySQL container and returns a migrated repo.
func startMySQL(t *testing.T) *mysqlrepo.Repo {
	t.Helper()
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("dockertest: %v", err)
	}
	if err := pool.Client.Ping(); err != nil {
		t.Skipf("docker not reachable: %v", err)
	}

	runOpts := &dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=hotels",
		},
	}
	resource, err := pool.RunWithOptions(runOpts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	hostPort := resource.GetPort("3306/tcp")
	dsn := fmt.Sprintf("root:%s@tcp(127.0.0.1:%s)/%s?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC",
		"root", hostPort, "hotels")

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	applyMigrations(t, db)
	return mysqlrepo.New(db)
}

// ---------- the test ----------

func TestRepo_MySQL_SaveAndList(t *testing.T) {
	repo := startMySQL(t)
	ctx := context.Background()

	// Unknown collection
	if _, err := repo.ListHotels(ctx, "OBMNG"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	hotels := []domain.Hotel{
		{
			ID: "OBMNG1", Name: "Grand Hotel", Address1: "1 Main St", Address2: "Leeds", StarRating: "4",
			Images: []domain.Image{{URL: "https://img/1.jpg", Alt: "front"}, {URL: "https://img/2.jpg"}},
			Rooms: []domain.Room{
				{ID: "R2", Name: "Family", BedConfiguration: "2 doubles", LongDescription: "Big",
					Occupancy: domain.Occupancy{MaxAdults: 4, MaxChildren: 2}},
				{ID: "R1", Name: "Single", BedConfiguration: "1 single", LongDescription: "Small",
					Images:    []domain.Image{{URL: "https://img/r1.jpg"}},
					Occupancy: domain.Occupancy{MaxAdults: 1}},
			},
		},
		{ID: "OBMNG0", Name: "Budget Inn", Address1: "2 Side St", StarRating: "2", Rooms: []domain.Room{}},
	}
	if err := repo.SaveCollection(ctx, "OBMNG", hotels); err != nil {
		t.Fatalf("SaveCollection: %v", err)
	}

	got, err := repo.ListHotels(ctx, "OBMNG")
	if err != nil {
		t.Fatalf("ListHotels: %v", err)
	}
	if len(got) != 2 || got[0].ID != "OBMNG1" || got[1].ID != "OBMNG0" {
		t.Fatalf("unexpected hotel order: %+v", got)
	}
	h := got[0]
	if h.Address2 != "Leeds" || len(h.Images) != 2 || h.Images[0].Alt != "front" {
		t.Fatalf("unexpected hotel: %+v", h)
	}
	if len(h.Rooms) != 2 || h.Rooms[0].ID != "R2" || h.Rooms[1].ID != "R1" {
		t.Fatalf("unexpected room order: %+v", h.Rooms)
	}
	if h.Rooms[0].Occupancy != (domain.Occupancy{MaxAdults: 4, MaxChildren: 2}) {
		t.Fatalf("unexpected occupancy: %+v", h.Rooms[0].Occupancy)
	}
	if got[1].Rooms == nil || len(got[1].Rooms) != 0 {
		t.Fatalf("expected empty non-nil rooms, got %#v", got[1].Rooms)
	}

	// Replace: the second refresh fully supersedes the first
	if err := repo.SaveCollection(ctx, "OBMNG", hotels[1:]); err != nil {
		t.Fatalf("SaveCollection (replace): %v", err)
	}
	got, err = repo.ListHotels(ctx, "OBMNG")
	if err != nil {
		t.Fatalf("ListHotels: %v", err)
	}
	if len(got) != 1 || got[0].ID != "OBMNG0" {
		t.Fatalf("expected replaced snapshot, got %+v", got)
	}

	// Empty but refreshed collection is not "not found"
	if err := repo.SaveCollection(ctx, "EMPTY", nil); err != nil {
		t.Fatalf("SaveCollection (empty): %v", err)
	}
	got, err = repo.ListHotels(ctx, "EMPTY")
	if err != nil || len(got) != 0 {
		t.Fatalf("expected empty snapshot, got %+v err=%v", got, err)
	}
}

func TestRepo_MySQL_ListHotelsReadsOneSnapshot(t *testing.T) {
	repo := startMySQL(t)
	ctx := context.Background()

	old := []domain.Hotel{
		{ID: "H1", Name: "Old", Address1: "1 Main St", StarRating: "3",
			Rooms: []domain.Room{{ID: "R1", Name: "Double", Occupancy: domain.Occupancy{MaxAdults: 2}}}},
	}
	next := []domain.Hotel{
		{ID: "H9", Name: "New", Address1: "9 High St", StarRating: "5",
			Rooms: []domain.Room{{ID: "R9", Name: "Suite", Occupancy: domain.Occupancy{MaxAdults: 3, MaxChildren: 2}}}},
	}
	if err := repo.SaveCollection(ctx, "OBMNG", old); err != nil {
		t.Fatalf("SaveCollection: %v", err)
	}

	// a refresh commits between the room and hotel reads
	var saveErr error
	fired := false
	mysqlrepo.SetAfterRoomsRead(repo, func() {
		if fired {
			return
		}
		fired = true
		saveErr = repo.SaveCollection(ctx, "OBMNG", next)
	})

	got, err := repo.ListHotels(ctx, "OBMNG")
	if err != nil {
		t.Fatalf("ListHotels: %v", err)
	}
	if !fired || saveErr != nil {
		t.Fatalf("concurrent refresh did not commit: fired=%v err=%v", fired, saveErr)
	}
	if len(got) != 1 || got[0].ID != "H1" || len(got[0].Rooms) != 1 || got[0].Rooms[0].ID != "R1" {
		t.Fatalf("expected the snapshot seen at the first read, got %+v", got)
	}

	got, err = repo.ListHotels(ctx, "OBMNG")
	if err != nil {
		t.Fatalf("ListHotels: %v", err)
	}
	if len(got) != 1 || got[0].ID != "H9" || len(got[0].Rooms) != 1 || got[0].Rooms[0].ID != "R9" {
		t.Fatalf("expected the refreshed snapshot with its rooms, got %+v", got)
	}
}
