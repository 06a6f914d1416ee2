package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourusername/assessment-api/pkg/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.GET("/t/:id", handlers...)
	return r
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	jwtService, err := auth.NewJWTService("secret", "")
	require.NoError(t, err)
	m := NewAuthMiddleware(jwtService, zap.NewNop())

	candidateToken, _ := jwtService.GenerateToken(7, auth.RoleCandidate, time.Hour)
	adminToken, _ := jwtService.GenerateToken(1, auth.RoleAdmin, time.Hour)

	ok := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetUint(ContextUserID)})
	}
	userRouter := newRouter(m.RequireAuth(), ok)
	adminRouter := newRouter(m.RequireAuth(), m.AdminOnly(), ok)
	// Роль в контексте без claims не дает доступа к админке
	roleOnlyRouter := newRouter(func(c *gin.Context) {
		c.Set(ContextUserID, uint(1))
		c.Set(ContextRole, auth.RoleAdmin)
	}, m.AdminOnly(), ok)

	testCases := []struct {
		name   string
		router *gin.Engine
		header string
		want   int
	}{
		{"без заголовка", userRouter, "", http.StatusUnauthorized},
		{"неверный формат", userRouter, "Token abc", http.StatusUnauthorized},
		{"невалидный токен", userRouter, "Bearer abc", http.StatusUnauthorized},
		{"кандидат", userRouter, "Bearer " + candidateToken, http.StatusOK},
		{"кандидат в админке", adminRouter, "Bearer " + candidateToken, http.StatusForbidden},
		{"админ", adminRouter, "Bearer " + adminToken, http.StatusOK},
		{"админка без проверки токена", roleOnlyRouter, "", http.StatusUnauthorized},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/t/1", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := serve(tc.router, req)
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func TestExtractUintParam(t *testing.T) {
	r := newRouter(ExtractUintParam("id", "assignmentID"), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": c.MustGet("assignmentID").(uint)})
	})

	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/t/15", nil)).Code)
	assert.Equal(t, http.StatusBadRequest, serve(r, httptest.NewRequest(http.MethodGet, "/t/abc", nil)).Code)
	assert.Equal(t, http.StatusBadRequest, serve(r, httptest.NewRequest(http.MethodGet, "/t/0", nil)).Code, "Ноль не является идентификатором")
	assert.Equal(t, http.StatusBadRequest, serve(r, httptest.NewRequest(http.MethodGet, "/t/-1", nil)).Code)
}

func TestRequestID(t *testing.T) {
	r := newRouter(RequestID(zap.NewNop()), func(c *gin.Context) {
		assert.NotNil(t, LoggerFrom(c, nil))
		c.Status(http.StatusNoContent)
	})

	// Генерируется новый идентификатор
	w := serve(r, httptest.NewRequest(http.MethodGet, "/t/1", nil))
	_, err := uuid.Parse(w.Header().Get(RequestIDHeader))
	assert.NoError(t, err)

	// Валидный входящий идентификатор сохраняется
	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/t/1", nil)
	req.Header.Set(RequestIDHeader, id)
	w = serve(r, req)
	assert.Equal(t, id, w.Header().Get(RequestIDHeader))
}

func TestRateLimiter_FailOpen(t *testing.T) {
	// Redis недоступен: запрос пропускается
	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:       []string{"127.0.0.1:1"},
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()
	rl := NewRateLimiter(client, zap.NewNop())
	r := newRouter(rl.Limit(AssignmentRateLimitConfig(1, time.Minute)), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/t/1", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}
