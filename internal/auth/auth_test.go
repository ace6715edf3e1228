package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	token, err := m.Issue("u-1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	subject, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", subject)
}

func TestIssue_EmptySubject(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	_, err := m.Issue("")
	require.Error(t, err)
}

func TestVerify_WrongSecret(t *testing.T) {
	token, err := NewManager("secret-a", time.Hour).Issue("u-1")
	require.NoError(t, err)

	_, err = NewManager("secret-b", time.Hour).Verify(token)
	assert.True(t, eris.Is(err, ErrInvalidToken))
}

func TestVerify_Expired(t *testing.T) {
	m := &Manager{secret: []byte("test-secret"), ttl: -time.Minute}
	token, err := m.Issue("u-1")
	require.NoError(t, err)

	_, err = m.Verify(token)
	assert.True(t, eris.Is(err, ErrInvalidToken))
}

func TestVerify_Garbage(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	_, err := m.Verify("not.a.jwt")
	assert.True(t, eris.Is(err, ErrInvalidToken))
}

func TestSubjectFromRequest_Cookie(t *testing.T) {
	m := NewManager("test-secret", time.Hour)
	token, err := m.Issue("u-1")
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})

	subject, err := m.SubjectFromRequest(r)
	require.NoError(t, err)
	assert.Equal(t, "u-1", subject)
}

func TestSubjectFromRequest_BearerFallback(t *testing.T) {
	m := NewManager("test-secret", time.Hour)
	token, err := m.Issue("u-2")
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+token)

	subject, err := m.SubjectFromRequest(r)
	require.NoError(t, err)
	assert.Equal(t, "u-2", subject)
}

func TestSubjectFromRequest_NoToken(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := m.SubjectFromRequest(r)
	assert.True(t, eris.Is(err, ErrNoToken))
}

func TestSetAndClearCookie(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	w := httptest.NewRecorder()
	m.SetCookie(w, "tok")
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookie, cookies[0].Name)
	assert.Equal(t, "tok", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)

	w = httptest.NewRecorder()
	m.ClearCookie(w)
	cookies = w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
}
