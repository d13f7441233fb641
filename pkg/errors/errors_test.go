package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Unwrap(t *testing.T) {
	err := NotFound("order", 42)

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "NOT_FOUND", err.Code)
	assert.Contains(t, err.Error(), "order 42 not found")
}

func TestHTTPStatus_AppError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", NotFound("order", 1), http.StatusNotFound},
		{"already exists", AlreadyExists("user", "email", "a@b.c"), http.StatusConflict},
		{"invalid input", InvalidInput("bad"), http.StatusBadRequest},
		{"unauthorized", Unauthorized("no token"), http.StatusUnauthorized},
		{"forbidden", Forbidden("admins only"), http.StatusForbidden},
		{"empty cart", EmptyCart(), http.StatusUnprocessableEntity},
		{"checkout in progress", CheckoutInProgress(), http.StatusConflict},
		{"order not saved", OrderNotSaved(errors.New("tx aborted")), http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestHTTPStatus_WrappedSentinel(t *testing.T) {
	err := fmt.Errorf("load cart: %w", ErrNotFound)
	assert.Equal(t, http.StatusNotFound, HTTPStatus(err))

	err = fmt.Errorf("checkout: %w", ErrCheckoutInProgress)
	assert.Equal(t, http.StatusConflict, HTTPStatus(err))
}

func TestOrderNotSaved_KeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := OrderNotSaved(cause)

	assert.True(t, errors.Is(err, ErrOrderNotSaved))
	assert.True(t, errors.Is(err, cause))
}
