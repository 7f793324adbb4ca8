package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"lighthousecore/pkg/domain"
)

// stubConn is a minimal database/sql driver backed by an in-memory state
// table. It records executed statements so tests can assert on the snapshot
// traffic without a live Postgres.
type stubConn struct {
	execs      []string
	state      map[string][]byte
	failExec   bool
	failCommit bool
}

func newStubDB(t *testing.T) (*sql.DB, *stubConn) {
	t.Helper()
	conn := &stubConn{state: make(map[string][]byte)}
	name := fmt.Sprintf("stubpg%d", time.Now().UnixNano())
	sql.Register(name, &stubDriver{conn: conn})
	db, err := sql.Open(name, "stub")
	if err != nil {
		t.Fatalf("open stub: %v", err)
	}
	return db, conn
}

type stubDriver struct{ conn *stubConn }

func (d *stubDriver) Open(string) (driver.Conn, error) { return d.conn, nil }

func (c *stubConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("not implemented") }
func (c *stubConn) Close() error                        { return nil }

func (c *stubConn) Begin() (driver.Tx, error) {
	return c.BeginTx(context.Background(), driver.TxOptions{})
}

func (c *stubConn) BeginTx(context.Context, driver.TxOptions) (driver.Tx, error) {
	return stubTx{conn: c}, nil
}

func (c *stubConn) Ping(context.Context) error { return nil }

func (c *stubConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.execs = append(c.execs, query)
	if c.failExec {
		return nil, errors.New("exec fail")
	}
	upper := strings.ToUpper(strings.TrimSpace(query))
	if strings.HasPrefix(upper, "INSERT INTO STATE") {
		if len(args) != 2 {
			return nil, fmt.Errorf("expected 2 args, got %d", len(args))
		}
		bucket, _ := args[0].Value.(string)
		payload, _ := args[1].Value.([]byte)
		c.state[bucket] = append([]byte(nil), payload...)
	}
	return driver.RowsAffected(1), nil
}

func (c *stubConn) QueryContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Rows, error) {
	if !strings.Contains(strings.ToUpper(query), "FROM STATE") {
		return nil, fmt.Errorf("unexpected query %s", query)
	}
	rows := &stubRows{}
	for _, bucket := range postgresBuckets {
		if payload, ok := c.state[bucket]; ok {
			rows.data = append(rows.data, [2]any{bucket, payload})
		}
	}
	return rows, nil
}

type stubTx struct{ conn *stubConn }

func (tx stubTx) Commit() error {
	if tx.conn.failCommit {
		return errors.New("commit fail")
	}
	return nil
}
func (tx stubTx) Rollback() error { return nil }

type stubRows struct {
	data [][2]any
	pos  int
}

func (r *stubRows) Columns() []string { return []string{"bucket", "payload"} }
func (r *stubRows) Close() error      { return nil }

func (r *stubRows) Next(dest []driver.Value) error {
	if r.pos >= len(r.data) {
		return io.EOF
	}
	dest[0] = r.data[r.pos][0]
	dest[1] = r.data[r.pos][1]
	r.pos++
	return nil
}

func TestPostgresStoreSnapshotsAfterTransaction(t *testing.T) {
	db, conn := newStubDB(t)
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()

	store, err := NewStore("", domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateContributor(domain.Contributor{Name: "Alice", Email: "alice@example.org"})
		return err
	}); err != nil {
		t.Fatalf("transaction: %v", err)
	}
	for _, bucket := range postgresBuckets {
		if _, ok := conn.state[bucket]; !ok {
			t.Fatalf("bucket %s not persisted", bucket)
		}
	}
	sawCreate := false
	for _, q := range conn.execs {
		if strings.HasPrefix(strings.ToUpper(strings.TrimSpace(q)), "CREATE TABLE") {
			sawCreate = true
		}
	}
	if !sawCreate {
		t.Fatal("state table was never ensured")
	}
}

func TestPostgresStoreHydratesFromSnapshot(t *testing.T) {
	db, conn := newStubDB(t)
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()

	store, err := NewStore("", domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateContributor(domain.Contributor{Name: "Bob", Email: "bob@example.org"})
		return err
	}); err != nil {
		t.Fatalf("transaction: %v", err)
	}

	if len(conn.state["contributors"]) == 0 {
		t.Fatal("snapshot missing contributors payload")
	}

	// A second store over the same backing table sees the snapshot.
	reopened, err := NewStore("", domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	contributors := reopened.ListContributors()
	if len(contributors) != 1 || contributors[0].Name != "Bob" {
		t.Fatalf("unexpected contributors after hydrate: %+v", contributors)
	}
}

func TestPostgresStoreReportsPersistenceFailure(t *testing.T) {
	db, conn := newStubDB(t)
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()

	store, err := NewStore("", domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	conn.failCommit = true
	_, err = store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateContributor(domain.Contributor{Name: "Carol", Email: "carol@example.org"})
		return err
	})
	var pErr *domain.PersistenceError
	if !errors.As(err, &pErr) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
	if pErr.Backend != "postgres" {
		t.Fatalf("unexpected backend %q", pErr.Backend)
	}
	// The in-memory commit is retained even though the snapshot failed.
	if got := len(store.ListContributors()); got != 1 {
		t.Fatalf("expected committed contributor, got %d", got)
	}
}
