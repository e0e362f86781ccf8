package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/redmonkez12/go-auth-service/internal/httputil"
	"github.com/redmonkez12/go-auth-service/internal/logging"
)

// ContextKey is a type for context keys to avoid collisions
type ContextKey string

const (
	UserIDContextKey ContextKey = "user_id"
	TokenContextKey  ContextKey = "access_token"
)

// Middleware handles authentication for protected routes
type Middleware struct {
	tokenService TokenService
}

func NewMiddleware(tokenService TokenService) *Middleware {
	return &Middleware{tokenService: tokenService}
}

// RequireAuth validates the bearer token in the Authorization header
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := logging.GetLoggerFromContext(r.Context())

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			logger.Warn("request rejected: missing authorization header")
			unauthorized(w, "not authenticated", httputil.CodeMissingAuth)
			return
		}

		token, ok := bearerToken(authHeader)
		if !ok {
			logger.Warn("request rejected: malformed authorization header")
			unauthorized(w, "invalid authorization header format", httputil.CodeInvalidAuthHeader)
			return
		}

		claims, err := m.tokenService.VerifyToken(token)
		if err != nil {
			logger.Warn("request rejected: invalid token")
			unauthorized(w, "could not validate credentials", httputil.CodeInvalidToken)
			return
		}

		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			logger.Warn("request rejected: token subject is not a user id")
			unauthorized(w, "could not validate credentials", httputil.CodeInvalidToken)
			return
		}

		ctx := context.WithValue(r.Context(), UserIDContextKey, userID)
		ctx = context.WithValue(ctx, TokenContextKey, token)
		ctx = logging.WithLogger(ctx, logger.WithFields(map[string]any{"user_id": userID}))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// bearerToken extracts the credential from "Bearer <token>"; the scheme is case-insensitive
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}

func unauthorized(w http.ResponseWriter, message, code string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	httputil.RespondErrorWithCode(w, message, code, http.StatusUnauthorized)
}

// GetUserIDFromContext extracts the user ID from the request context
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDContextKey).(uuid.UUID)
	return userID, ok
}

// GetTokenFromContext extracts the verified access token from the request context
func GetTokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(TokenContextKey).(string)
	return token, ok
}
