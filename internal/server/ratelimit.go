package server

import (
	"net/http"
	"time"

	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"newsmarker/internal/core"
)

// newRateLimiter builds the per-IP limiter shared by every rate limited
// route. Client addresses come from chi's RealIP middleware, so the
// limiter itself does not trust forwarding headers.
func newRateLimiter(cfg core.RateLimitConfig, logger *core.Logger) *stdlib.Middleware {
	rate := limiter.Rate{
		Period: time.Minute,
		Limit:  int64(cfg.RequestsPerMinute),
	}
	instance := limiter.New(memory.NewStore(), rate)

	return stdlib.NewMiddleware(instance,
		stdlib.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			logger.WithContext(r.Context()).Warn("Rate limit reached", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
			core.WriteErrorResponse(w, http.StatusTooManyRequests,
				core.NewAppError(core.ErrCodeRateLimited, "Too many requests, please try again later", nil))
		}),
		stdlib.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			logger.WithContext(r.Context()).Error("Rate limiter failed", "error", err)
			core.HandleError(w, core.NewInternalError("Rate limiter failed", err))
		}),
	)
}
