package audit

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/platinummonkey/adminpanel/pkg/auth"
	"github.com/platinummonkey/adminpanel/pkg/observability"
	"github.com/platinummonkey/adminpanel/pkg/users"
)

// writeTimeout bounds a single audit insert once the response is gone
const writeTimeout = 5 * time.Second

// Writer persists audit records
type Writer interface {
	Insert(ctx context.Context, record *Record) error
}

// UserDirectory resolves user IDs to accounts. Implemented by users.Store.
type UserDirectory interface {
	GetUser(ctx context.Context, id int64) (*users.User, error)
}

// Recorder is middleware that captures an audit record for every successful
// mutating API request. Capture is best-effort: no failure in this path ever
// changes the response the caller already received.
type Recorder struct {
	writer    Writer
	directory UserDirectory
	logger    *observability.Logger
	metrics   *observability.Metrics
	sem       *semaphore.Weighted
}

// NewRecorder creates an audit recorder. maxConcurrentWrites bounds how many
// audit inserts may hold database connections at once.
func NewRecorder(writer Writer, directory UserDirectory, logger *observability.Logger, metrics *observability.Metrics, maxConcurrentWrites int64) *Recorder {
	if maxConcurrentWrites < 1 {
		maxConcurrentWrites = 1
	}
	return &Recorder{
		writer:    writer,
		directory: directory,
		logger:    logger,
		metrics:   metrics,
		sem:       semaphore.NewWeighted(maxConcurrentWrites),
	}
}

// Handler wraps an HTTP handler with audit capture
func (rec *Recorder) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		// The response is committed at this point; everything below is
		// observation only.
		if !rec.relevant(rw.statusCode, r) {
			return
		}
		rec.capture(r)
	})
}

// relevant reports whether a completed request should produce an audit record
func (rec *Recorder) relevant(status int, r *http.Request) bool {
	if status != http.StatusOK {
		return false
	}
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodDelete:
	default:
		return false
	}
	return strings.Contains(strings.ToLower(r.URL.Path), "/api")
}

func (rec *Recorder) capture(r *http.Request) {
	// The request context dies with the connection; the insert must not.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), writeTimeout)
	defer cancel()

	claims := auth.ClaimsFromContext(r.Context())
	userID, err := ResolveActor(claims)
	if err != nil {
		var malformed *MalformedIdentityError
		switch {
		case errors.Is(err, ErrIdentityMissing):
			rec.metrics.AuditIdentityFailures.WithLabelValues("missing").Inc()
			rec.logger.Debug("audit capture abandoned: no identity claim")
		case errors.As(err, &malformed):
			rec.metrics.AuditIdentityFailures.WithLabelValues("malformed").Inc()
			rec.logger.WithField("claim", malformed.Claim).
				WithField("raw", malformed.Raw).
				Warn("audit capture abandoned: malformed identity claim")
		}
		return
	}

	if _, err := rec.directory.GetUser(ctx, userID); err != nil {
		rec.metrics.AuditIdentityFailures.WithLabelValues("unknown_user").Inc()
		rec.logger.WithField("user_id", userID).
			Debug("audit capture abandoned: actor not in user directory")
		return
	}

	record := &Record{
		UserID:    userID,
		Action:    Classify(r.Method, r.URL.Path),
		Details:   composeDetails(r),
		Timestamp: time.Now().UTC(),
	}

	if !rec.sem.TryAcquire(1) {
		rec.metrics.AuditWritesDropped.Inc()
		rec.logger.WithField("action", record.Action).
			Warn("audit write dropped: concurrency bound reached")
		return
	}
	defer rec.sem.Release(1)

	if err := rec.writer.Insert(ctx, record); err != nil {
		rec.metrics.AuditWriteFailures.Inc()
		rec.logger.WithError(err).
			WithField("action", record.Action).
			WithField("user_id", record.UserID).
			Error("failed to persist audit record")
		return
	}

	rec.metrics.AuditRecordsTotal.WithLabelValues(record.Action).Inc()
}

// composeDetails renders the request endpoint and client origin as
// "Endpoint: <url> | IP: <origin>"
func composeDetails(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	endpoint := scheme + "://" + r.Host + r.URL.RequestURI()
	return "Endpoint: " + endpoint + " | IP: " + clientOrigin(r)
}

// clientOrigin returns the client address: the first X-Forwarded-For entry
// when a proxy set one, the socket address otherwise
func clientOrigin(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first := strings.TrimSpace(strings.Split(fwd, ",")[0])
		if first != "" {
			return first
		}
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}

// responseWriter captures the status code written by the wrapped handler
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.written = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.written = true
	return rw.ResponseWriter.Write(b)
}
