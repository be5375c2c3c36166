package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitStatements(t *testing.T) {
	got := splitStatements(`
		-- comment; with a semicolon
		CREATE TABLE a (x TEXT DEFAULT 'a;b');
		INSERT INTO a VALUES ('it''s');
		SELECT 1`)

	require.Len(t, got, 3)
	assert.Equal(t, "CREATE TABLE a (x TEXT DEFAULT 'a;b')", got[0])
	assert.Equal(t, "INSERT INTO a VALUES ('it''s')", got[1])
	assert.Equal(t, "SELECT 1", got[2])
}

func TestNewAppliesEmbeddedMigrationsOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "test.db")

	db, err := New(path, Migrations())
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// Reopening must not re-run 001_init.sql.
	db, err = New(path, Migrations())
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.Conn.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&n))
	assert.Equal(t, 1, n)

	for _, table := range []string{"users", "follows", "posts", "post_likes", "bookmarks", "comments", "conversations", "messages"} {
		var name string
		err := db.Conn.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		assert.NoError(t, err, table)
	}
}

func TestNewRunsMigrationsInOrder(t *testing.T) {
	migrations := fstest.MapFS{
		"002_seed.sql": {Data: []byte("INSERT INTO t (v) VALUES ('two');")},
		"001_init.sql": {Data: []byte("CREATE TABLE t (v TEXT);")},
		"README.md":    {Data: []byte("ignored")},
	}

	db, err := New(":memory:", migrations)
	require.NoError(t, err)
	defer db.Close()

	var v string
	require.NoError(t, db.Conn.QueryRow("SELECT v FROM t").Scan(&v))
	assert.Equal(t, "two", v)
}

func TestWithTx(t *testing.T) {
	db, err := New(":memory:", fstest.MapFS{
		"001.sql": {Data: []byte("CREATE TABLE t (v TEXT);")},
	})
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	count := func() int {
		var n int
		require.NoError(t, db.Conn.QueryRow("SELECT COUNT(*) FROM t").Scan(&n))
		return n
	}

	err = WithTx(ctx, db.Conn, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, "INSERT INTO t VALUES ('a')")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count())

	boom := errors.New("boom")
	err = WithTx(ctx, db.Conn, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "INSERT INTO t VALUES ('b')"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, count())

	assert.Panics(t, func() {
		_ = WithTx(ctx, db.Conn, func(tx *sql.Tx) error {
			_, _ = tx.ExecContext(ctx, "INSERT INTO t VALUES ('c')")
			panic("boom")
		})
	})
	assert.Equal(t, 1, count())
}
