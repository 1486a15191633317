package session

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoadClear(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(dir)
	require.ErrorIs(t, err, ErrNoSession)

	signedIn := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, Save(dir, &Session{UserID: "u1", UserName: "Ada", SignedIn: signedIn}))

	s, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "u1", s.UserID)
	assert.Equal(t, "Ada", s.UserName)
	assert.True(t, signedIn.Equal(s.SignedIn))

	require.NoError(t, Clear(dir))
	_, err = Load(dir)
	assert.ErrorIs(t, err, ErrNoSession)
	require.NoError(t, Clear(dir))
}

func TestLoadRejectsEmptyUser(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(Path(dir), []byte("user_name: nobody\n"), 0o600))

	_, err := Load(dir)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestLoadRejectsGarbage(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(Path(dir), []byte(":\n\t- ["), 0o600))

	_, err := Load(dir)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoSession)
}
