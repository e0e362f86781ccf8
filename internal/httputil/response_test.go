package httputil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondErrorWithCode(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondErrorWithCode(rec, "email already registered", CodeEmailAlreadyExists, http.StatusBadRequest)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"email already registered","code":"EMAIL_ALREADY_EXISTS"}`, rec.Body.String())
}

func TestRespondMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondMessage(rec, "Logout successful.", http.StatusOK)

	assert.JSONEq(t, `{"message":"Logout successful."}`, rec.Body.String())
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Email string `json:"email"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"email":"a@example.com"}`, false},
		{"unknown fields are ignored", `{"email":"a@example.com","extra":1}`, false},
		{"empty", ``, true},
		{"malformed", `{"email":`, true},
		{"wrong type", `{"email":42}`, true},
		{"trailing object", `{"email":"a"}{"email":"b"}`, true},
		{"too large", `{"email":"` + strings.Repeat("a", MaxBodyBytes) + `"}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var dst payload

			err := DecodeJSON(httptest.NewRecorder(), req, &dst)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidBody)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "a@example.com", dst.Email)
		})
	}
}
