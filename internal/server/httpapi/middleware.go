package httpapi

import (
	"net"
	"net/http"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"github.com/dmitrijs2005/habits/internal/common"
	"github.com/dmitrijs2005/habits/internal/logging"
	"github.com/dmitrijs2005/habits/internal/server/auth"
	"github.com/dmitrijs2005/habits/internal/server/metrics"
)

const requestIDHeader = "X-Request-ID"

const (
	msgTokenRequired = "Access token required!"
	msgTokenInvalid  = "Invalid or expired token!"
)

// TokenVerifier validates bearer tokens.
type TokenVerifier interface {
	Verify(token string) (auth.Identity, error)
}

// authenticate inspects the Authorization header. It returns the verified
// identity and http.StatusOK, or a zero identity and the status the request
// must be rejected with.
func authenticate(r *http.Request, tokens TokenVerifier) (auth.Identity, int) {
	scheme, token, _ := strings.Cut(r.Header.Get(common.AuthorizationHeaderName), " ")
	token = strings.TrimSpace(token)
	if !strings.EqualFold(scheme, common.BearerScheme) || token == "" {
		return auth.Identity{}, http.StatusUnauthorized
	}

	id, err := tokens.Verify(token)
	if err != nil {
		return auth.Identity{}, http.StatusForbidden
	}
	return id, http.StatusOK
}

// RequireAuth rejects requests without a valid bearer token and otherwise
// passes the identity downstream through the request context.
func RequireAuth(tokens TokenVerifier, log logging.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, status := authenticate(r, tokens)
			switch status {
			case http.StatusOK:
				next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
			case http.StatusUnauthorized:
				writeError(w, status, msgTokenRequired)
			default:
				log.Warn(r.Context(), "token rejected", "path", r.URL.Path)
				writeError(w, status, msgTokenInvalid)
			}
		})
	}
}

// RequestLogger assigns a request id, exposes it in the X-Request-ID
// response header and logs every finished request.
func RequestLogger(log logging.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			reqID := r.Header.Get(requestIDHeader)
			if reqID == "" {
				reqID = uuid.NewString()
			}
			ctx := logging.WithRequestID(r.Context(), reqID)
			r = r.WithContext(ctx)
			w.Header().Set(requestIDHeader, reqID)

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			log.Info(ctx, "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

// Instrument records request count, latency and in-flight gauge, labelled
// by the matched route template.
func Instrument(m *metrics.Metrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			m.IncInFlight()
			defer m.DecInFlight()

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			route := ""
			if cr := mux.CurrentRoute(r); cr != nil {
				if tpl, err := cr.GetPathTemplate(); err == nil {
					route = tpl
				}
			}
			m.ObserveRequest(r.Method, route, rec.status, time.Since(start))
		})
	}
}

// Recover turns a panic into a 500 response. The stack is logged outside
// production.
func Recover(log logging.Logger, withStack bool) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if p := recover(); p != nil {
					args := []any{"panic", p, "path", r.URL.Path}
					if withStack {
						args = append(args, "stack", string(debug.Stack()))
					}
					log.Error(r.Context(), "panic recovered", args...)
					writeError(w, http.StatusInternalServerError, "Internal Server Error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	rate     rate.Limit
	burst    int
	limit    int
	onReject func()
}

// NewRateLimiter allows perSecond requests per client with the given burst.
// onReject, if not nil, is called for every rejected request.
func NewRateLimiter(perSecond float64, burst int, onReject func()) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(perSecond),
		burst:    burst,
		limit:    10000,
		onReject: onReject,
	}
}

func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, exists := rl.limiters[key]
	if !exists {
		if len(rl.limiters) >= rl.limit {
			rl.limiters = make(map[string]*rate.Limiter)
		}
		limiter = rate.NewLimiter(rl.rate, rl.burst)
		rl.limiters[key] = limiter
	}
	return limiter
}

// Allow reports whether a request from key may proceed now.
func (rl *RateLimiter) Allow(key string) bool {
	return rl.getLimiter(key).Allow()
}

// Handler answers 429 once the client IP has used up its bucket.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(clientIP(r)) {
			if rl.onReject != nil {
				rl.onReject()
			}
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "Too many requests, please try again later.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.wroteHeader {
		return
	}
	r.status = code
	r.wroteHeader = true
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}
	return r.ResponseWriter.Write(b)
}
