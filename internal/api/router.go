package api

import (
	"net/http"
	"time"

	"hotticket/internal/entity"
	"hotticket/internal/service"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// Services are the entity services the router exposes.
type Services struct {
	Users    service.Service[entity.User]
	Issues   service.Service[entity.Issue]
	Comments service.Service[entity.Comment]
	Votes    service.Service[entity.Vote]
}

// NewRouter returns the HTTP handler for the whole API, wrapped in request
// logging.
func NewRouter(s Services, log zerolog.Logger) http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/alive", handleAlive).Methods(http.MethodGet)

	mount(router, NewController("users", s.Users), "/users", "/users/{id}")
	mount(router, NewController("issues", s.Issues), "/issues", "/issues/{id}")
	mount(router, NewController("comments", s.Comments),
		"/comments", "/comments/{id}",
		"/issues/{issueId}/comments", "/issues/{issueId}/comments/{id}")
	mount(router, NewVoteController(s.Votes),
		"/votes", "/votes/{id}",
		"/issues/{issueId}/votes", "/issues/{issueId}/votes/{id}")

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondProblem(w, http.StatusNotFound, titleNotFound, "no resource at "+r.URL.Path)
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondProblem(w, http.StatusBadRequest, titleBadRequest, r.Method+" is not supported on "+r.URL.Path)
	})

	return requestLogger(log, router)
}

func mount(router *mux.Router, h Handler, paths ...string) {
	for _, p := range paths {
		router.HandleFunc(p, h.Get).Methods(http.MethodGet)
		router.HandleFunc(p, h.Create).Methods(http.MethodPost)
		router.HandleFunc(p, h.Update).Methods(http.MethodPut)
		router.HandleFunc(p, h.Delete).Methods(http.MethodDelete)
	}
}

func handleAlive(w http.ResponseWriter, r *http.Request) {
	respondEmpty(w, http.StatusOK)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	n, err := s.ResponseWriter.Write(b)
	s.bytes += n
	return n, err
}

// requestLogger tags each request with an id, carries a logger holding it
// in the request context, and logs one line when the request completes.
func requestLogger(log zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)

		reqLog := log.With().Str("request_id", id).Logger()
		r = r.WithContext(reqLog.WithContext(r.Context()))

		rec := &statusRecorder{ResponseWriter: w}
		start := time.Now()
		next.ServeHTTP(rec, r)

		reqLog.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Int("bytes", rec.bytes).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
