package roster

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONFile_RoundTripAndFormat(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "conf", "kos.json")
	f := NewJSONFile(path)

	_, err := f.Load(ctx)
	require.ErrorIs(t, err, ErrNoSnapshot)

	snap := Snapshot{
		Players:     []Player{{Name: "Alice", Username: "alice#1"}},
		Clans:       []Clan{{Name: "Wolves", Region: "EU"}},
		ListChannel: "123",
	}
	require.NoError(t, f.Save(ctx, snap))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Contains(t, doc, "players")
	assert.Contains(t, doc, "clans")
	assert.Equal(t, "123", doc["listChannel"])

	got, err := f.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap, got)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not be left behind")
}

func TestJSONFile_NullListChannel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kos.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"players":[],"clans":[],"listChannel":null}`), 0644))

	got, err := NewJSONFile(path).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "", got.ListChannel)
}

func TestJSONFile_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kos.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"players":[`), 0644))

	_, err := NewJSONFile(path).Load(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoSnapshot)
}

func TestSQLite_RoundTrip(t *testing.T) {
	ctx := context.Background()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "kos.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Load(ctx)
	require.ErrorIs(t, err, ErrNoSnapshot)

	first := Snapshot{Players: []Player{{Name: "Alice", Username: "a"}}, Clans: []Clan{}}
	require.NoError(t, db.Save(ctx, first))

	second := Snapshot{
		Players:     []Player{{Name: "Alice", Username: "a"}, {Name: "bob", Username: "b"}},
		Clans:       []Clan{{Name: "Wolves", Region: "EU"}},
		ListChannel: "99",
	}
	require.NoError(t, db.Save(ctx, second))

	got, err := db.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, second, got)
}

func TestStore_WithSQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "kos.db")

	p, err := OpenPersister("sqlite", path)
	require.NoError(t, err)
	s, err := Open(ctx, p, WithCreateIfMissing(true))
	require.NoError(t, err)
	s.InsertSorted(Player{Name: "Alice", Username: "alice#1"})
	require.NoError(t, s.Persist(ctx))
	require.NoError(t, s.Close(ctx))

	p, err = OpenPersister("sqlite", path)
	require.NoError(t, err)
	s, err = Open(ctx, p)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(ctx) })

	_, ok := s.Find(Player{Name: "Alice", Username: "alice#1"}.Key())
	assert.True(t, ok)
}
