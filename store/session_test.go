package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cinema-ticket-cli/model"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "42",
		"exp": exp.Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestSessionStore_SaveLoadClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	sessions := NewSessionStore(path)

	_, ok, err := sessions.Load()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, sessions.Token())

	token := signedToken(t, time.Now().Add(time.Hour))
	require.NoError(t, sessions.Save(Session{Token: token, User: model.User{Id: 42, Name: "Ayu", Role: model.RoleAdmin}}))

	reopened := NewSessionStore(path)
	session, ok, err := reopened.Load()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, token, session.Token)
	assert.True(t, session.User.IsAdmin())

	require.NoError(t, reopened.Clear())
	assert.Empty(t, reopened.Token())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, reopened.Clear())
}

func TestSessionStore_ExpiredTokenIsDropped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	sessions := NewSessionStore(path)
	require.NoError(t, sessions.Save(Session{Token: signedToken(t, time.Now().Add(-time.Minute))}))

	fresh := NewSessionStore(path)
	_, ok, err := fresh.Load()
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestSessionStore_CorruptFileIsDropped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, ok, err := NewSessionStore(path).Load()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTokenExpired_OpaqueToken(t *testing.T) {
	assert.False(t, TokenExpired("opaque-token", time.Now()))
	assert.False(t, TokenExpired(signedToken(t, time.Now().Add(time.Hour)), time.Now()))
	assert.True(t, TokenExpired(signedToken(t, time.Now().Add(-time.Hour)), time.Now()))
}

func TestSessionStore_SaveRequiresToken(t *testing.T) {
	sessions := NewSessionStore(filepath.Join(t.TempDir(), "session.json"))
	assert.Error(t, sessions.Save(Session{}))
}
