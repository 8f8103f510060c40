package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajharbinger/dealscope/internal/models"
)

const testSecret = "test-secret-at-least-32-bytes-long!!"

func init() {
	gin.SetMode(gin.TestMode)
}

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService(testSecret)
	user := models.User{ID: uuid.New(), Email: "a@example.com", Role: "authenticated"}

	token, expires, err := svc.Sign(user, time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, 5*time.Second)

	got, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user, *got)
}

func TestJWTService_Rejects(t *testing.T) {
	svc := NewJWTService(testSecret)
	user := models.User{ID: uuid.New()}

	expired, _, err := svc.Sign(user, -time.Minute)
	require.NoError(t, err)
	_, err = svc.ValidateToken(expired)
	assert.Error(t, err)

	other, _, err := NewJWTService("another-secret-another-secret-xx").Sign(user, time.Hour)
	require.NoError(t, err)
	_, err = svc.ValidateToken(other)
	assert.Error(t, err)

	wrongAud := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   user.ID.String(),
		Audience:  jwt.ClaimStrings{"anon"},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}})
	signed, err := wrongAud.SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = svc.ValidateToken(signed)
	assert.Error(t, err)

	badSubject := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "not-a-uuid",
		Audience:  jwt.ClaimStrings{Audience},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}})
	signed, err = badSubject.SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = svc.ValidateToken(signed)
	assert.Error(t, err)
}

func TestJWTService_DefaultsRole(t *testing.T) {
	svc := NewJWTService(testSecret)
	token, _, err := svc.Sign(models.User{ID: uuid.New()}, time.Hour)
	require.NoError(t, err)

	got, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "authenticated", got.Role)
}

func newProtectedRouter() *gin.Engine {
	r := gin.New()
	r.Use(JWTMiddleware(testSecret), CSRFMiddleware())
	handler := func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": user.ID})
	}
	r.GET("/me", handler)
	r.POST("/me", handler)
	return r
}

func TestJWTMiddleware(t *testing.T) {
	r := newProtectedRouter()
	token, _, err := NewJWTService(testSecret).Sign(models.User{ID: uuid.New()}, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		method string
		setup  func(*http.Request)
		want   int
	}{
		{"no credentials", http.MethodGet, func(*http.Request) {}, http.StatusUnauthorized},
		{"not bearer", http.MethodGet, func(r *http.Request) { r.Header.Set("Authorization", "Basic abc") }, http.StatusUnauthorized},
		{"bad token", http.MethodGet, func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized},
		{"bearer", http.MethodGet, func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }, http.StatusOK},
		{"bearer post skips csrf", http.MethodPost, func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }, http.StatusOK},
		{"cookie get", http.MethodGet, func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: token})
		}, http.StatusOK},
		{"cookie post without csrf", http.MethodPost, func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: token})
		}, http.StatusForbidden},
		{"cookie post csrf mismatch", http.MethodPost, func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: token})
			r.AddCookie(&http.Cookie{Name: "csrf_token", Value: "a"})
			r.Header.Set("X-CSRF-Token", "b")
		}, http.StatusForbidden},
		{"cookie post csrf ok", http.MethodPost, func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: token})
			r.AddCookie(&http.Cookie{Name: "csrf_token", Value: "a"})
			r.Header.Set("X-CSRF-Token", "a")
		}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/me", nil)
			tt.setup(req)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.True(t, CheckPassword("s3cret-pass", hash))
	assert.False(t, CheckPassword("wrong", hash))
}

func TestGenerateShareToken(t *testing.T) {
	a, err := GenerateShareToken()
	require.NoError(t, err)
	b, err := GenerateShareToken()
	require.NoError(t, err)
	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}
