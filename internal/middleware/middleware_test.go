package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lagimmo/api/internal/apperr"
	"lagimmo/api/internal/models"
	"lagimmo/api/internal/security"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeVerifier map[string]*security.Claims

func (f fakeVerifier) Verify(_ context.Context, token string) (*security.Claims, error) {
	claims, ok := f[token]
	if !ok {
		return nil, apperr.Unauthorized("token revoked or expired")
	}
	return claims, nil
}

type fakeUsers map[string]models.User

func (f fakeUsers) GetByID(_ context.Context, id string) (models.User, error) {
	u, ok := f[id]
	if !ok {
		return models.User{}, apperr.NotFound("user not found")
	}
	return u, nil
}

func claimsFor(sub, jwtID string) *security.Claims {
	c := &security.Claims{JwtID: jwtID}
	c.Subject = sub
	return c
}

func guarded(t *testing.T) *gin.Engine {
	t.Helper()
	verifier := fakeVerifier{
		"admin":   claimsFor("u-admin", ""),
		"editor":  claimsFor("u-editor", ""),
		"refresh": claimsFor("u-admin", "session-1"),
		"ghost":   claimsFor("u-ghost", ""),
	}
	users := fakeUsers{
		"u-admin":  {ID: "u-admin", IsSuperUser: true},
		"u-editor": {ID: "u-editor"},
	}

	r := gin.New()
	r.GET("/me", Auth(verifier, users), func(c *gin.Context) {
		user, _ := CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"id": user.ID, "token": AccessToken(c)})
	})
	r.GET("/admin", Auth(verifier, users), RequireSuperUser(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func do(r http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestAuthLoadsUser(t *testing.T) {
	w := do(guarded(t), http.MethodGet, "/me", "editor")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"u-editor","token":"editor"}`, w.Body.String())
}

func TestAuthRejections(t *testing.T) {
	r := guarded(t)
	cases := map[string]struct {
		token   string
		message string
	}{
		"missing header": {"", "missing bearer token"},
		"not allowed":    {"unknown", "token revoked or expired"},
		"refresh token":  {"refresh", "refresh tokens cannot authorize requests"},
		"deleted user":   {"ghost", "user no longer exists"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			w := do(r, http.MethodGet, "/me", tc.token)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			body := errorBody(t, w)
			assert.Equal(t, "unauthorized", body["error"])
			assert.Equal(t, tc.message, body["message"])
		})
	}
}

func TestRequireSuperUser(t *testing.T) {
	r := guarded(t)

	assert.Equal(t, http.StatusNoContent, do(r, http.MethodGet, "/admin", "admin").Code)

	w := do(r, http.MethodGet, "/admin", "editor")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "forbidden", errorBody(t, w)["error"])
}

func TestRateLimit(t *testing.T) {
	r := gin.New()
	r.POST("/newsletter", RateLimit(1, 1), func(c *gin.Context) { c.Status(http.StatusCreated) })

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/newsletter", nil)
		req.RemoteAddr = ip + ":4242"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusCreated, send("192.0.2.10"))
	assert.Equal(t, http.StatusTooManyRequests, send("192.0.2.10"))
	assert.Equal(t, http.StatusCreated, send("192.0.2.11"))
}

func TestRateLimitDisabled(t *testing.T) {
	r := gin.New()
	r.GET("/", RateLimit(0, 0), func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/", "").Code)
	}
}

func TestRecoveryAndRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), Logger(zerolog.Nop()), Recovery(zerolog.Nop()))
	r.GET("/boom", func(*gin.Context) { panic("boom") })

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Header.Set("X-Request-Id", "req-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "req-42", w.Header().Get("X-Request-Id"))
	assert.Equal(t, "internal_error", errorBody(t, w)["error"])

	w = do(r, http.MethodGet, "/boom", "")
	assert.Len(t, w.Header().Get("X-Request-Id"), 36)

	req = httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Header.Set("X-Request-Id", "bad id<script>")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Len(t, w.Header().Get("X-Request-Id"), 36)
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"https://admin.example/"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://admin.example")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://admin.example", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestTimeoutSetsDeadline(t *testing.T) {
	r := gin.New()
	r.GET("/", Timeout(time.Second), func(c *gin.Context) {
		_, ok := c.Request.Context().Deadline()
		c.JSON(http.StatusOK, gin.H{"deadline": ok})
	})

	assert.JSONEq(t, `{"deadline":true}`, do(r, http.MethodGet, "/", "").Body.String())
}
