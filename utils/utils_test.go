package utils

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cppla/waldo/config"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	config.Set(config.AppConfig{JWTSecret: "test-secret", TokenTTLHours: 1})
	os.Exit(m.Run())
}

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken(42, "alice", true, TokenTTL())
	require.NoError(t, err)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.True(t, claims.Admin)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestParseTokenRejectsExpiredAndTampered(t *testing.T) {
	expired, err := GenerateToken(1, "bob", false, -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken(expired)
	assert.Error(t, err)

	good, err := GenerateToken(1, "bob", false, time.Hour)
	require.NoError(t, err)
	_, err = ParseToken(good[:len(good)-2] + "xx")
	assert.Error(t, err)
}

func TestBlacklistInMemory(t *testing.T) {
	BlacklistToken("tok-a", time.Now().Add(time.Hour))
	assert.True(t, IsTokenBlacklisted("tok-a"))
	assert.False(t, IsTokenBlacklisted("tok-b"))

	BlacklistToken("tok-old", time.Now().Add(-time.Second))
	assert.False(t, IsTokenBlacklisted("tok-old"))
}

func TestCacheIsNoopWithoutRedis(t *testing.T) {
	assert.Equal(t, int64(-1), UserCacheGeneration(1))
	assert.False(t, CacheSetUserIfCurrent(1, 0, map[string]int{"points": 3}))
	var out map[string]int
	assert.False(t, CacheGetJSON(UserCacheKey(1), &out))
	InvalidateUserCache(1)
	assert.Equal(t, "user:profile:7", UserCacheKey(7))
}

func TestCaptchaVerifyConsumes(t *testing.T) {
	id, img, err := GenerateCaptcha()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(img, "data:image/png;base64,"))

	answer := store().Get(id, false)
	require.NotEmpty(t, answer)
	assert.True(t, VerifyCaptcha(id, answer))
	assert.False(t, VerifyCaptcha(id, answer))
	assert.False(t, VerifyCaptcha("", ""))
}

func TestFailHidesInternalCause(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	prev := Logger
	Logger = zap.New(core)
	defer func() { Logger = prev }()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)

	Fail(c, errors.New("dial tcp: refused"), func(error) (int, string) {
		return http.StatusInternalServerError, "internal server error"
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())
	assert.Equal(t, 1, logs.Len())

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)
	Fail(c, errors.New("nope"), func(error) (int, string) { return http.StatusNotFound, "user not found" })
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"user not found"}`, w.Body.String())
	assert.Equal(t, 1, logs.Len())
}

func TestGinzapAndRecovery(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	r := gin.New()
	r.Use(Ginzap(logger, time.RFC3339, true), RecoveryWithZap(logger, false))
	r.GET("/ok", func(c *gin.Context) { Success(c, gin.H{"id": c.GetString(RequestIDKey)}) })
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	reqID := w.Header().Get("X-Request-ID")
	assert.Len(t, reqID, 36)
	assert.Contains(t, w.Body.String(), reqID)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())

	assert.NotZero(t, logs.FilterMessage("[Recovery from panic]").Len())
	assert.NotZero(t, logs.FilterMessage("/ok").Len())
}

func TestBuildMessage(t *testing.T) {
	msg := string(buildMessage("", "game@example.com", "a@example.com", "You are today's Waldo", "code"))
	assert.Contains(t, msg, "From: Daily Waldo <game@example.com>\r\n")
	assert.Contains(t, msg, "To: a@example.com\r\n")
	assert.True(t, strings.HasSuffix(msg, "\r\n\r\ncode"))

	msg = string(buildMessage("Wåldo", "g@example.com", "a@example.com", "hi", ""))
	assert.Contains(t, msg, "=?UTF-8?b?")
}

func TestSanitize(t *testing.T) {
	out := Sanitize(`<script>alert(1)</script>by the <b>fountain</b>`)
	assert.NotContains(t, out, "script")
	assert.NotContains(t, out, "<b>")
	assert.Equal(t, "by the fountain", out)

	for _, plain := range []string{
		`A&B "x"`,
		`near the A&B cafe, "blue" door <3`,
		"it's by the 5 > 4 sign",
	} {
		assert.Equal(t, plain, Sanitize(plain), plain)
	}
}

func TestIsWebURL(t *testing.T) {
	cases := map[string]bool{
		"https://img.example/a.png":    true,
		"http://img.example/a.png?s=1": true,
		"HTTPS://img.example/a.png":    true,
		"javascript:alert(1)":          false,
		"data:image/png;base64,AAAA":   false,
		"//img.example/a.png":          false,
		"ftp://img.example/a.png":      false,
		"img.example/a.png":            false,
		"":                             false,
	}
	for raw, want := range cases {
		assert.Equal(t, want, IsWebURL(raw), raw)
	}
}

func TestUniqueUint(t *testing.T) {
	assert.Equal(t, []uint{3, 1, 2}, UniqueUint([]uint{3, 1, 3, 2, 1}))
	assert.Empty(t, UniqueUint(nil))
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "hunter2"))
	assert.False(t, CheckPassword(hash, "hunter3"))
}
