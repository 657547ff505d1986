package cookie

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_Set(t *testing.T) {
	s := NewSession("", 0)
	rec := httptest.NewRecorder()

	s.Set(rec, "signed-token")

	header := rec.Header().Get("Set-Cookie")
	assert.Contains(t, header, "nullupload_session=signed-token")
	assert.Contains(t, header, "Path=/")
	assert.Contains(t, header, "Max-Age=2592000")
	assert.Contains(t, header, "HttpOnly")
	assert.Contains(t, header, "Secure")
	assert.Contains(t, header, "SameSite=Strict")
}

func TestSession_Clear(t *testing.T) {
	s := NewSession("custom", time.Hour)
	rec := httptest.NewRecorder()

	s.Clear(rec)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "custom", cookies[0].Name)
	assert.Equal(t, "", cookies[0].Value)
	assert.Contains(t, rec.Header().Get("Set-Cookie"), "Max-Age=0")
}

func TestSession_Read(t *testing.T) {
	s := NewSession("", 0)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, "", s.Read(req))

	req.AddCookie(&http.Cookie{Name: DefaultName, Value: "abc"})
	assert.Equal(t, "abc", s.Read(req))
}
