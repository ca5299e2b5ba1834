package extract

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/forumlift/forumlift/internal/config"
)

func TestNullStr(t *testing.T) {
	tests := []struct {
		name string
		in   sql.NullString
		want *string
	}{
		{"null", sql.NullString{}, nil},
		{"empty string collapses to nil", sql.NullString{String: "", Valid: true}, nil},
		{"value", sql.NullString{String: "hello", Valid: true}, ptr("hello")},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := nullStr(tc.in)
			if tc.want == nil {
				if got != nil {
					t.Errorf("nullStr(%+v) = %q, want nil", tc.in, *got)
				}
				return
			}
			if got == nil || *got != *tc.want {
				t.Errorf("nullStr(%+v) = %v, want %q", tc.in, got, *tc.want)
			}
		})
	}
}

func ptr(s string) *string { return &s }

// fakeConnector serves one scripted result set for any query, enough to
// exercise the scan loops without a live server.
type fakeConnector struct {
	cols []string
	rows [][]driver.Value
}

func (c *fakeConnector) Connect(context.Context) (driver.Conn, error) { return &fakeConn{c: c}, nil }
func (c *fakeConnector) Driver() driver.Driver                        { return fakeDrv{} }

type fakeDrv struct{}

func (fakeDrv) Open(string) (driver.Conn, error) { return nil, errors.New("use OpenDB") }

type fakeConn struct {
	c *fakeConnector
}

func (conn *fakeConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("not prepared") }
func (conn *fakeConn) Close() error                        { return nil }
func (conn *fakeConn) Begin() (driver.Tx, error)           { return nil, errors.New("no tx") }

func (conn *fakeConn) QueryContext(context.Context, string, []driver.NamedValue) (driver.Rows, error) {
	return &fakeRows{cols: conn.c.cols, rows: conn.c.rows}, nil
}

type fakeRows struct {
	cols []string
	rows [][]driver.Value
	pos  int
}

func (r *fakeRows) Columns() []string { return r.cols }
func (r *fakeRows) Close() error      { return nil }

func (r *fakeRows) Next(dest []driver.Value) error {
	if r.pos >= len(r.rows) {
		return io.EOF
	}
	copy(dest, r.rows[r.pos])
	r.pos++
	return nil
}

func TestReadUsers_ScansNullableColumns(t *testing.T) {
	created := time.Date(2015, 3, 14, 9, 26, 53, 0, time.UTC)

	db := sql.OpenDB(&fakeConnector{
		cols: []string{"id", "username", "email", "avatar_url", "bio", "is_admin", "created_at"},
		rows: [][]driver.Value{
			{int64(1), "alice", "a@x.org", "https://cdn.example/a.png", nil, int64(1), created},
			{int64(2), "bob", "b@x.org", nil, "", int64(0), created},
		},
	})
	defer db.Close()

	log := logrus.New()
	log.SetOutput(io.Discard)

	e := &Extractor{DB: db, Cfg: &config.Config{}, Log: log}
	users, err := e.readUsers(context.Background())
	if err != nil {
		t.Fatalf("readUsers: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}

	alice := users[0]
	if !alice.IsAdmin {
		t.Error("is_admin = 1 must map to true")
	}
	if alice.AvatarURL == nil || *alice.AvatarURL != "https://cdn.example/a.png" {
		t.Errorf("avatar not carried through: %v", alice.AvatarURL)
	}
	if alice.Bio != nil {
		t.Errorf("NULL bio must stay nil, got %q", *alice.Bio)
	}
	if !alice.CreatedAt.Equal(created) {
		t.Errorf("created_at = %v, want %v", alice.CreatedAt, created)
	}

	bob := users[1]
	if bob.IsAdmin {
		t.Error("is_admin = 0 must map to false")
	}
	if bob.AvatarURL != nil {
		t.Errorf("NULL avatar must stay nil, got %q", *bob.AvatarURL)
	}
	if bob.Bio != nil {
		t.Errorf("empty bio must collapse to nil, got %q", *bob.Bio)
	}
}
