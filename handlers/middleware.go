package handlers

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/adamkcs/TaskPlannerAPI/services"
)

type contextKey string

const identityContextKey contextKey = "identity"

// TokenValidator turns a bearer token into the caller's identity
type TokenValidator interface {
	Validate(token string) (*services.Identity, error)
}

type AuthMiddleware struct {
	tokens TokenValidator
	log    *log.Logger
}

func NewAuthMiddleware(tokens TokenValidator, logger *log.Logger) *AuthMiddleware {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &AuthMiddleware{
		tokens: tokens,
		log:    logger,
	}
}

// Auth rejects requests without a valid bearer token. The cause is logged, never returned.
func (m *AuthMiddleware) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		authParts := strings.Split(authHeader, " ")
		if len(authParts) != 2 || authParts[0] != "Bearer" || authParts[1] == "" {
			m.log.WithField("path", r.URL.Path).Debug("Missing or malformed authorization header")
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		identity, err := m.tokens.Validate(authParts[1])
		if err != nil {
			m.log.WithError(err).WithField("path", r.URL.Path).Debug("Token rejected")
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		if rec, ok := w.(*statusRecorder); ok {
			rec.user = identity.UserID
		}
		ctx := context.WithValue(r.Context(), identityContextKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func identityFrom(ctx context.Context) (*services.Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(*services.Identity)
	return identity, ok
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	user   string
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Hijack lets the WebSocket upgrader take over the connection
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return hijacker.Hijack()
}

// RequestLogger logs one line per request
func RequestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			logger.WithFields(log.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   rec.status,
				"duration": time.Since(start),
				"user":     rec.user,
			}).Info("Request handled")
		})
	}
}
