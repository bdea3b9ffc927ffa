package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func newTestStore(t *testing.T) (*SQLiteStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state", "session.db")
	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, path
}

func TestSQLiteStore_EmptyLoad(t *testing.T) {
	s, _ := newTestStore(t)

	cred, err := s.Load(context.Background())
	require.NoError(t, err)
	require.Empty(t, cred.Token)
	require.Nil(t, cred.User)
}

func TestSQLiteStore_SaveLoadClear(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	want := core.Credential{
		Token:        "access-1",
		RefreshToken: "refresh-1",
		User:         &core.User{ID: 3, Email: "kim@example.com", Nickname: "kim"},
	}
	require.NoError(t, s.Save(ctx, want))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, want, got)

	// Saving again replaces rather than merges.
	require.NoError(t, s.Save(ctx, core.Credential{Token: "access-2"}))
	got, err = s.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, core.Credential{Token: "access-2"}, got)

	require.NoError(t, s.Clear(ctx))
	got, err = s.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, core.Credential{}, got)
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	s, path := newTestStore(t)
	require.Equal(t, uint(1), s.SchemaVersion())

	require.NoError(t, s.Save(ctx, core.Credential{Token: "persisted", User: &core.User{Email: "a@b.co"}}))
	require.NoError(t, s.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()
	require.Equal(t, uint(1), reopened.SchemaVersion(), "reopening applies no further migrations")

	got, err := reopened.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, "persisted", got.Token)
	require.Equal(t, "a@b.co", got.User.Email)
}

func TestMemoryStore_CopiesUser(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	u := &core.User{Email: "a@b.co"}
	require.NoError(t, m.Save(ctx, core.Credential{Token: "t", User: u}))
	u.Email = "mutated@b.co"

	got, err := m.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, "a@b.co", got.User.Email)
	require.Equal(t, 1, m.Saves())

	require.NoError(t, m.Clear(ctx))
	got, err = m.Load(ctx)
	require.NoError(t, err)
	require.Empty(t, got.Token)
}
