package middleware

import (
	"log"
	"math"
	"sync"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"
)

// ToolCallLimiter limits tool executions per user with a token bucket
type ToolCallLimiter struct {
	perUserLimiters *sync.Map // map[string]*rate.Limiter
	limit           rate.Limit
	burst           int
}

// NewToolCallLimiter creates a limiter allowing perSecond calls with burst.
// A non-positive perSecond disables limiting.
func NewToolCallLimiter(perSecond float64, burst int) *ToolCallLimiter {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst <= 0 {
		burst = int(math.Max(1, math.Ceil(perSecond*2)))
	}
	return &ToolCallLimiter{
		perUserLimiters: &sync.Map{},
		limit:           limit,
		burst:           burst,
	}
}

// getOrCreateUserLimiter gets or creates the limiter for a user
func (l *ToolCallLimiter) getOrCreateUserLimiter(userID string) *rate.Limiter {
	if limiter, ok := l.perUserLimiters.Load(userID); ok {
		return limiter.(*rate.Limiter)
	}

	newLimiter := rate.NewLimiter(l.limit, l.burst)

	// Try to store, but use existing if another goroutine created it first
	actual, _ := l.perUserLimiters.LoadOrStore(userID, newLimiter)
	return actual.(*rate.Limiter)
}

// Allow reports whether userID may make another call now
func (l *ToolCallLimiter) Allow(userID string) bool {
	return l.getOrCreateUserLimiter(userID).Allow()
}

// Handler rejects calls over the limit with 429. It must run after auth.
func (l *ToolCallLimiter) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := LocalString(c, LocalUserID)
		if userID == "" {
			userID = c.IP()
		}

		if !l.Allow(userID) {
			log.Printf("⚠️  [RATE-LIMIT] Tool call limit exceeded for %s", userID)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many tool calls. Please slow down.",
			})
		}
		return c.Next()
	}
}
