package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/redmonkez12/go-auth-service/internal/httputil"
	"github.com/redmonkez12/go-auth-service/internal/logging"
	"github.com/redmonkez12/go-auth-service/internal/metrics"
)

const (
	operationRegister = "register"
	operationLogin    = "login"
	operationMe       = "me"
	operationLogout   = "logout"
)

// Handler contains HTTP handlers for authentication endpoints
type Handler struct {
	service *Service
	metrics *metrics.Metrics
}

func NewHandler(service *Service, m *metrics.Metrics) *Handler {
	return &Handler{
		service: service,
		metrics: m,
	}
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse is the public profile returned by /auth/me
type UserResponse struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	CreatedAt   time.Time `json:"created_at"`
	IsActive    bool      `json:"is_active"`
	IsSuperuser bool      `json:"is_superuser"`
}

type errorMapping struct {
	err     error
	status  int
	code    string
	message string
	outcome string
}

// serviceErrors maps service failures to responses. Order matters: the first match wins.
var serviceErrors = []errorMapping{
	{ErrEmailRequired, http.StatusBadRequest, httputil.CodeEmailRequired, "email is required", metrics.OutcomeValidation},
	{ErrInvalidEmailFormat, http.StatusBadRequest, httputil.CodeInvalidEmailFormat, "invalid email format", metrics.OutcomeValidation},
	{ErrPasswordRequired, http.StatusBadRequest, httputil.CodePasswordRequired, "password is required", metrics.OutcomeValidation},
	{ErrPasswordTooShort, http.StatusBadRequest, httputil.CodePasswordTooShort, "password is too short", metrics.OutcomeValidation},
	{ErrPasswordTooLong, http.StatusBadRequest, httputil.CodePasswordTooLong, "password is too long", metrics.OutcomeValidation},
	{ErrDuplicateEmail, http.StatusBadRequest, httputil.CodeEmailAlreadyExists, "email already registered", metrics.OutcomeDuplicate},
	{ErrInvalidCredentials, http.StatusUnauthorized, httputil.CodeInvalidCredentials, "incorrect email or password", metrics.OutcomeInvalidCredentials},
	{ErrUnauthenticated, http.StatusUnauthorized, httputil.CodeInvalidToken, "could not validate credentials", metrics.OutcomeUnauthenticated},
	{ErrInactiveUser, http.StatusBadRequest, httputil.CodeInactiveUser, "inactive user", metrics.OutcomeInactive},
	{ErrStoreUnavailable, http.StatusServiceUnavailable, httputil.CodeServiceUnavailable, "service temporarily unavailable", metrics.OutcomeError},
}

// Register handles user registration
// @Summary      Register a new user
// @Description  Create a new user account with email and password and receive an access token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RegisterRequest true "Registration credentials"
// @Success      200 {object} AuthToken
// @Failure      400 {object} httputil.ErrorResponse "Invalid request, validation error or email already registered"
// @Failure      503 {object} httputil.ErrorResponse "User store unavailable"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req RegisterRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		logger.Warn("invalid registration request body", "error", err.Error())
		h.metrics.RecordAuthEvent(operationRegister, metrics.OutcomeValidation)
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	token, newUser, err := h.service.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeServiceError(w, logger, operationRegister, err)
		return
	}

	logger.Info("user registered successfully", "user_id", newUser.ID)
	h.metrics.RecordAuthEvent(operationRegister, metrics.OutcomeSuccess)

	httputil.RespondJSON(w, token, http.StatusOK)
}

// Login handles user login
// @Summary      User login
// @Description  Authenticate with email and password and receive an access token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} AuthToken
// @Failure      400 {object} httputil.ErrorResponse "Invalid request body or inactive user"
// @Failure      401 {object} httputil.ErrorResponse "Invalid credentials"
// @Failure      503 {object} httputil.ErrorResponse "User store unavailable"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req LoginRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		logger.Warn("invalid login request body", "error", err.Error())
		h.metrics.RecordAuthEvent(operationLogin, metrics.OutcomeValidation)
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	token, existingUser, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeServiceError(w, logger, operationLogin, err)
		return
	}

	logger.Info("user logged in successfully", "user_id", existingUser.ID)
	h.metrics.RecordAuthEvent(operationLogin, metrics.OutcomeSuccess)

	httputil.RespondJSON(w, token, http.StatusOK)
}

// Me returns the profile of the authenticated user
// @Summary      Current user
// @Description  Return the profile of the user identified by the bearer token
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} UserResponse
// @Failure      400 {object} httputil.ErrorResponse "Inactive user"
// @Failure      401 {object} httputil.ErrorResponse "Missing, malformed, invalid or expired token"
// @Failure      503 {object} httputil.ErrorResponse "User store unavailable"
// @Router       /auth/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		h.writeServiceError(w, logger, operationMe, ErrUnauthenticated)
		return
	}

	currentUser, err := h.service.ActiveUser(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, logger, operationMe, err)
		return
	}

	h.metrics.RecordAuthEvent(operationMe, metrics.OutcomeSuccess)

	httputil.RespondJSON(w, UserResponse{
		ID:          currentUser.ID,
		Email:       currentUser.Email,
		CreatedAt:   currentUser.CreatedAt,
		IsActive:    currentUser.IsActive,
		IsSuperuser: currentUser.IsSuperuser,
	}, http.StatusOK)
}

// Logout acknowledges a logout. Tokens are stateless, so the client discards its token.
// @Summary      User logout
// @Description  Stateless logout. The token stays valid until it expires; clients must discard it.
// @Tags         auth
// @Produce      json
// @Success      200 {object} httputil.MessageResponse
// @Router       /auth/logout [post]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	logging.GetLoggerFromContext(r.Context()).Debug("logout acknowledged")
	h.metrics.RecordAuthEvent(operationLogout, metrics.OutcomeSuccess)

	httputil.RespondMessage(w, "Logout successful.", http.StatusOK)
}

// writeServiceError maps err through serviceErrors; anything unmapped is a 500
func (h *Handler) writeServiceError(w http.ResponseWriter, logger *logging.Logger, operation string, err error) {
	for _, m := range serviceErrors {
		if !errors.Is(err, m.err) {
			continue
		}

		h.metrics.RecordAuthEvent(operation, m.outcome)
		if m.status >= http.StatusInternalServerError {
			logger.Error(operation+" failed", logging.ErrorAttrs(err)...)
		} else {
			logger.Warn(operation+" failed", "reason", m.code)
		}
		if m.status == http.StatusUnauthorized {
			w.Header().Set("WWW-Authenticate", "Bearer")
		}

		httputil.RespondErrorWithCode(w, m.message, m.code, m.status)
		return
	}

	h.metrics.RecordAuthEvent(operation, metrics.OutcomeError)
	logger.Error(operation+" failed: internal error", logging.ErrorAttrs(err)...)
	httputil.RespondErrorWithCode(w, "internal server error", httputil.CodeInternalError, http.StatusInternalServerError)
}
