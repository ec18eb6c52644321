package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimiter applique un Token Bucket par couple IP + route. Les routes
// d'authentification sont exposées sans jeton, chacune garde donc son propre
// budget pour qu'un flot de tentatives de connexion ne bloque pas
// l'inscription ou le déverrouillage.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	log     *zap.SugaredLogger
}

type bucket struct {
	tokens    int
	window    time.Duration
	lastReset time.Time
}

func NewRateLimiter(log *zap.SugaredLogger) *RateLimiter {
	rl := &RateLimiter{
		buckets: make(map[string]*bucket),
		log:     log,
	}

	// Nettoyage périodique des seaux inactifs
	go rl.cleanup()

	return rl
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		for key, b := range rl.buckets {
			if time.Since(b.lastReset) > b.window*2 {
				delete(rl.buckets, key)
			}
		}
		rl.mu.Unlock()
	}
}

// Limit borne chaque client à maxRequests par fenêtre sur la route décorée.
func (rl *RateLimiter) Limit(maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		key := ip + "|" + c.FullPath()

		rl.mu.Lock()
		b, ok := rl.buckets[key]
		if !ok || time.Since(b.lastReset) > window {
			b = &bucket{
				tokens:    maxRequests,
				window:    window,
				lastReset: time.Now(),
			}
			rl.buckets[key] = b
		}
		if b.tokens <= 0 {
			rl.mu.Unlock()
			rl.log.Warnw("rate limit exceeded", "ip", ip, "route", c.FullPath())
			c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "too many requests",
				"retry_after": window.Seconds(),
			})
			c.Abort()
			return
		}
		b.tokens--
		rl.mu.Unlock()

		c.Next()
	}
}
