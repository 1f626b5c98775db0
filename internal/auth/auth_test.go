package auth

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	s, err := NewSessions("test-secret", time.Hour, true)
	require.NoError(t, err)
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	token, issued, err := s.Issue(Claims{MemberID: "m1", UserID: "admin001", Name: "Admin", Role: "Administrator"})
	require.NoError(t, err)
	assert.Equal(t, now, issued.LoginTime)

	claims, err := s.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "m1", claims.MemberID)
	assert.Equal(t, "Administrator", claims.Role)
	assert.True(t, claims.LoginTime.Equal(now))

	now = now.Add(2 * time.Hour)
	_, err = s.Parse(token)
	assert.Error(t, err, "expired session must be rejected")
}

func TestParseRejectsForeignSecret(t *testing.T) {
	a, err := NewSessions("secret-a", time.Hour, false)
	require.NoError(t, err)
	b, err := NewSessions("secret-b", time.Hour, false)
	require.NoError(t, err)

	token, _, err := a.Issue(Claims{MemberID: "m1"})
	require.NoError(t, err)
	_, err = b.Parse(token)
	assert.Error(t, err)

	_, err = a.Parse("")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestRefreshKeepsLoginTime(t *testing.T) {
	s, err := NewSessions("k", time.Hour, false)
	require.NoError(t, err)
	login := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return login.Add(10 * time.Minute) }

	_, refreshed, err := s.Issue(Claims{MemberID: "m1", LoginTime: login})
	require.NoError(t, err)
	assert.Equal(t, login, refreshed.LoginTime)
	assert.Equal(t, login.Add(10*time.Minute), refreshed.RefreshedAt)
}

func TestNeedsRefresh(t *testing.T) {
	now := time.Now()
	c := &Claims{RefreshedAt: now.Add(-6 * time.Minute)}
	assert.True(t, NeedsRefresh(c, now, 5*time.Minute))
	c.RefreshedAt = now.Add(-time.Minute)
	assert.False(t, NeedsRefresh(c, now, 5*time.Minute))
	assert.False(t, NeedsRefresh(nil, now, time.Minute))
}

func TestCookieFlags(t *testing.T) {
	s, err := NewSessions("k", time.Hour, true)
	require.NoError(t, err)
	c := s.Cookie("tok")
	assert.Equal(t, CookieName, c.Name)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, 3600, c.MaxAge)
	assert.Equal(t, -1, s.ClearCookie().MaxAge)
}

func TestPasswords(t *testing.T) {
	hash, err := HashPassword("admin@123")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "admin@123"))
	assert.False(t, CheckPassword(hash, "wrong"))
	assert.False(t, CheckPassword("", "admin@123"))
}

func TestNewSessionsRequiresSecret(t *testing.T) {
	_, err := NewSessions("", time.Hour, false)
	assert.Error(t, err)
}
