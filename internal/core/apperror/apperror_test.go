package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactoryStatusCodes(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		code string
		http int
	}{
		{"validation", NewValidation("bad"), CodeValidation, http.StatusBadRequest},
		{"not found", NewNotFound("product", "p1"), CodeNotFound, http.StatusNotFound},
		{"invalid state", NewInvalidState("sale", "LOCKED", "DRAFT"), CodeInvalidState, http.StatusUnprocessableEntity},
		{"insufficient stock", NewInsufficientStock("p1", "Widget", 5, 2), CodeInsufficientStock, http.StatusUnprocessableEntity},
		{"over return", NewOverReturn("p1", "Widget", 3, 1), CodeOverReturn, http.StatusUnprocessableEntity},
		{"ineligible", NewIneligible("window expired"), CodeIneligible, http.StatusUnprocessableEntity},
		{"already verified", NewAlreadyVerified("c1"), CodeAlreadyVerified, http.StatusUnprocessableEntity},
		{"already processed", NewAlreadyProcessed("stock opname", "o1"), CodeAlreadyProcessed, http.StatusUnprocessableEntity},
		{"already synced", NewAlreadySynced("s1"), CodeAlreadySynced, http.StatusUnprocessableEntity},
		{"duplicate", NewDuplicate("product", "sku", "SKU-1"), CodeDuplicate, http.StatusConflict},
		{"unauthorized", NewUnauthorized("no token"), CodeUnauthorized, http.StatusUnauthorized},
		{"forbidden", NewForbidden("role"), CodeForbidden, http.StatusForbidden},
		{"internal", NewInternal(errors.New("boom")), CodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.http, tt.err.HTTPStatus)
			assert.Equal(t, tt.http, GetHTTPStatus(tt.err))
		})
	}
}

func TestErrorChain(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewInternal(cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection reset")

	wrapped := fmt.Errorf("saving product: %w", err)
	got, ok := AsAppError(wrapped)
	require.True(t, ok)
	assert.Equal(t, CodeInternal, got.Code)
	assert.True(t, IsAppError(wrapped))
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus(wrapped))
}

func TestCodeHelpers(t *testing.T) {
	err := NewNotFound("sale", "s1")
	assert.True(t, IsNotFound(err))
	assert.True(t, IsCode(err, CodeNotFound))
	assert.False(t, IsCode(err, CodeConflict))
	assert.False(t, IsNotFound(errors.New("plain")))
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus(errors.New("plain")))
}

func TestWithDetail(t *testing.T) {
	err := NewValidation("quantity must be positive").
		WithDetail("field", "quantity").
		WithDetail("got", -1)

	require.NotNil(t, err.Details)
	assert.Equal(t, "quantity", err.Details["field"])
	assert.Equal(t, -1, err.Details["got"])
}
