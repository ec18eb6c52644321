package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func TestLimitBlocksAfterBudget(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rl := NewRateLimiter(zap.NewNop().Sugar())
	r := gin.New()
	r.POST("/login", rl.Limit(2, time.Minute), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/register", rl.Limit(2, time.Minute), func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, path, nil)
		r.ServeHTTP(w, req)
		return w
	}

	for i := 0; i < 2; i++ {
		if w := do("/login"); w.Code != http.StatusOK {
			t.Fatalf("requête %d: code = %d, want 200", i+1, w.Code)
		}
	}

	w := do("/login")
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("code = %d, want 429 une fois le budget épuisé", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Errorf("la réponse 429 devrait porter Retry-After")
	}

	// Chaque route garde son propre seau: /register reste accessible
	if w := do("/register"); w.Code != http.StatusOK {
		t.Errorf("code = %d, want 200 sur une autre route", w.Code)
	}
}
