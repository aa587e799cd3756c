package errors

import (
	"bytes"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/binpack/internal/logging"
)

var errCause = stderrors.New("engine unavailable")

func TestErrorFormatting(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"message only", New("boom"), "boom"},
		{"all parts", Wrap(errCause, "optimization failed").WithComponent("gophersat").WithOperation("search"),
			"gophersat: search: optimization failed: engine unavailable"},
		{"no message", Wrap(errCause, "").WithOperation("encode"), "encode: engine unavailable"},
		{"formatted", Errorf("item %d too large", 3), "item 3 too large"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}

	var nilErr *Error
	assert.Equal(t, "<nil>", nilErr.Error())
	assert.Nil(t, nilErr.Unwrap())
}

func TestWrapKeepsChain(t *testing.T) {
	assert.Nil(t, Wrap(nil, "ignored"))
	assert.Nil(t, Wrapf(nil, "ignored %d", 1))

	inner := Wrap(errCause, "inner")
	require.NotEmpty(t, inner.StackTrace())

	outer := Wrapf(inner, "outer %s", "context")
	assert.True(t, Is(outer, errCause))
	assert.Equal(t, inner.StackTrace(), outer.StackTrace())
	assert.Equal(t, inner, Unwrap(outer))

	var target *Error
	require.True(t, As(outer, &target))
	assert.Equal(t, "outer context", target.Message)
	assert.False(t, As(nil, &target))
}

func TestRecoveryMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(logging.DebugLevel, &buf)

	handler := RecoveryMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("solver exploded")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/solve", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"Internal Server Error"}`, rr.Body.String())
	assert.Contains(t, buf.String(), "solver exploded")
}

func TestErrorHandlerLogsFailures(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(logging.DebugLevel, &buf)

	handler := ErrorHandler(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusBadRequest, New("invalid instance"))
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/solve", nil))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, buf.String(), `"status":400`)
}
