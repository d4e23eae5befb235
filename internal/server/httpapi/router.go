package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/dmitrijs2005/habits/internal/logging"
	"github.com/dmitrijs2005/habits/internal/server/metrics"
)

// Options wires the router to its collaborators. Metrics and LoginLimiter
// are optional.
type Options struct {
	Users        UserService
	Habits       HabitService
	Tags         TagService
	Tokens       TokenVerifier
	Logger       logging.Logger
	Metrics      *metrics.Metrics
	LoginLimiter *RateLimiter

	// Dev exposes error details in 500 bodies.
	Dev bool
	// LogStacks logs the stack of recovered panics.
	LogStacks bool
	// Now defaults to time.Now.
	Now func() time.Time
}

// NewRouter builds the full HTTP handler.
func NewRouter(opts Options) http.Handler {
	a := &api{
		users:     opts.Users,
		habits:    opts.Habits,
		tags:      opts.Tags,
		validator: NewValidator(),
		log:       opts.Logger,
		dev:       opts.Dev,
		now:       opts.Now,
	}
	if a.log == nil {
		a.log = logging.Nop{}
	}
	if a.now == nil {
		a.now = time.Now
	}

	r := mux.NewRouter()
	if opts.Metrics != nil {
		r.Use(Instrument(opts.Metrics))
		r.Handle("/metrics", opts.Metrics.Handler()).Methods(http.MethodGet)
	}

	r.HandleFunc("/health", a.health).Methods(http.MethodGet)

	authRoutes := r.PathPrefix("/api/auth").Subrouter()
	authRoutes.HandleFunc("/register", a.register).Methods(http.MethodPost)
	var login http.Handler = http.HandlerFunc(a.login)
	if opts.LoginLimiter != nil {
		login = opts.LoginLimiter.Handler(login)
	}
	authRoutes.Handle("/login", login).Methods(http.MethodPost)

	habits := r.PathPrefix("/api/habits").Subrouter()
	habits.Use(RequireAuth(opts.Tokens, a.log))
	for _, root := range []string{"", "/"} {
		habits.HandleFunc(root, a.listHabits).Methods(http.MethodGet)
		habits.HandleFunc(root, a.createHabit).Methods(http.MethodPost)
	}
	habits.HandleFunc("/{id}", a.updateHabit).Methods(http.MethodPatch)
	habits.HandleFunc("/{id}", a.deleteHabit).Methods(http.MethodDelete)
	habits.HandleFunc("/{id}/stats", a.habitStats).Methods(http.MethodGet)
	habits.HandleFunc("/{id}/completed", a.completeHabit).Methods(http.MethodPost)

	tags := r.PathPrefix("/api/tags").Subrouter()
	tags.Use(RequireAuth(opts.Tokens, a.log))
	for _, root := range []string{"", "/"} {
		tags.HandleFunc(root, a.listTags).Methods(http.MethodGet)
		tags.HandleFunc(root, a.createTag).Methods(http.MethodPost)
	}

	r.NotFoundHandler = http.HandlerFunc(notFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(notFound)

	var h http.Handler = r
	h = Recover(a.log, opts.LogStacks)(h)
	h = RequestLogger(a.log)(h)
	return h
}

func notFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "Not found - "+r.URL.RequestURI())
}
