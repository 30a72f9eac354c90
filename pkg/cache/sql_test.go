package cache

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func normalizeQuery(q string) string {
	return strings.Join(strings.Fields(q), " ")
}

type sqlRecorder struct {
	mu      sync.Mutex
	execs   []string
	queries []string

	// Queue of responses returned by QueryContext, in order.
	rows [][]driver.Value
}

func (r *sqlRecorder) nextRows() [][]driver.Value {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.rows) == 0 {
		return nil
	}
	rows := r.rows[0]
	r.rows = r.rows[1:]
	return [][]driver.Value{rows}
}

type fakeDriver struct{ rec *sqlRecorder }

func (d *fakeDriver) Open(name string) (driver.Conn, error) {
	return &fakeConn{rec: d.rec}, nil
}

type fakeConn struct{ rec *sqlRecorder }

func (c *fakeConn) Prepare(query string) (driver.Stmt, error) {
	return nil, fmt.Errorf("prepare not supported")
}
func (c *fakeConn) Close() error              { return nil }
func (c *fakeConn) Begin() (driver.Tx, error) { return nil, fmt.Errorf("tx not supported") }

func (c *fakeConn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.rec.mu.Lock()
	c.rec.execs = append(c.rec.execs, normalizeQuery(query))
	c.rec.mu.Unlock()
	return driver.RowsAffected(1), nil
}

func (c *fakeConn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	c.rec.mu.Lock()
	c.rec.queries = append(c.rec.queries, normalizeQuery(query))
	c.rec.mu.Unlock()
	return &fakeRows{rows: c.rec.nextRows()}, nil
}

type fakeRows struct {
	rows [][]driver.Value
	pos  int
}

func (r *fakeRows) Columns() []string { return []string{"markup", "generated_at", "stale"} }
func (r *fakeRows) Close() error      { return nil }

func (r *fakeRows) Next(dest []driver.Value) error {
	if r.pos >= len(r.rows) {
		return io.EOF
	}
	copy(dest, r.rows[r.pos])
	r.pos++
	return nil
}

var fakeDriverSeq atomic.Int64

func newFakeDB(t *testing.T) (*sql.DB, *sqlRecorder) {
	t.Helper()
	rec := &sqlRecorder{}
	name := fmt.Sprintf("weft-fake-%d", fakeDriverSeq.Add(1))
	sql.Register(name, &fakeDriver{rec: rec})
	db, err := sql.Open(name, "")
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, rec
}

func TestSQLStoreGetMissing(t *testing.T) {
	db, _ := newFakeDB(t)
	store := NewSQLStore(db, WithSQLDialect(DialectSQLite))

	entry, err := store.Get(context.Background(), "/feed")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if entry != nil {
		t.Errorf("missing key returned entry: %+v", entry)
	}
}

func TestSQLStoreGetFound(t *testing.T) {
	db, rec := newFakeDB(t)
	rec.rows = [][]driver.Value{
		{[]byte("<html>feed</html>"), time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), true},
	}
	store := NewSQLStore(db, WithSQLDialect(DialectPostgreSQL))

	entry, err := store.Get(context.Background(), "/feed")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if entry == nil {
		t.Fatal("expected entry")
	}
	if entry.Markup != "<html>feed</html>" || !entry.Stale {
		t.Errorf("entry = %+v", entry)
	}

	want := "SELECT markup, generated_at, stale FROM weft_renders WHERE path = $1"
	if len(rec.queries) != 1 || rec.queries[0] != want {
		t.Errorf("queries = %v, want %q", rec.queries, want)
	}
}

func TestSQLStoreSetUpserts(t *testing.T) {
	tests := []struct {
		dialect SQLDialect
		want    string
	}{
		{DialectPostgreSQL, "ON CONFLICT (path) DO UPDATE SET"},
		{DialectMySQL, "ON DUPLICATE KEY UPDATE"},
		{DialectSQLite, "INSERT OR REPLACE INTO"},
	}
	for _, tt := range tests {
		db, rec := newFakeDB(t)
		store := NewSQLStore(db, WithSQLDialect(tt.dialect))

		err := store.Set(context.Background(), "/feed", &Entry{Markup: "x", GeneratedAt: time.Now()})
		if err != nil {
			t.Fatalf("dialect %d Set: %v", tt.dialect, err)
		}
		if len(rec.execs) != 1 || !strings.Contains(rec.execs[0], tt.want) {
			t.Errorf("dialect %d execs = %v, want fragment %q", tt.dialect, rec.execs, tt.want)
		}
	}
}

func TestSQLStoreDelete(t *testing.T) {
	db, rec := newFakeDB(t)
	store := NewSQLStore(db, WithSQLDialect(DialectMySQL))

	if err := store.Delete(context.Background(), "/feed"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	want := "DELETE FROM weft_renders WHERE path = ?"
	if len(rec.execs) != 1 || rec.execs[0] != want {
		t.Errorf("execs = %v, want %q", rec.execs, want)
	}
}

func TestSQLStoreTableName(t *testing.T) {
	db, rec := newFakeDB(t)
	store := NewSQLStore(db, WithSQLTableName("custom_renders"), WithSQLDialect(DialectSQLite))

	store.Delete(context.Background(), "/feed")
	if len(rec.execs) != 1 || !strings.Contains(rec.execs[0], "custom_renders") {
		t.Errorf("execs = %v, want custom table name", rec.execs)
	}
}

func TestSQLStoreClosed(t *testing.T) {
	db, _ := newFakeDB(t)
	store := NewSQLStore(db)
	store.Close()

	if _, err := store.Get(context.Background(), "/a"); err == nil {
		t.Error("Get on closed store succeeded")
	}
	if err := store.Set(context.Background(), "/a", &Entry{}); err == nil {
		t.Error("Set on closed store succeeded")
	}
}
