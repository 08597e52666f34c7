package platformerrors

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewErrorCarriesRequestID(t *testing.T) {
	ctx := ContextWithRequestID(context.Background(), "req-1")
	err := NewError(ctx, LayerDomain, ErrorTypeNotFound, "session not found", nil, "session-missing")

	assert.Equal(t, "req-1", err.RequestID)
	assert.Equal(t, "[domain][NOT_FOUND][session-missing] session not found", err.Error())
}

func TestAsErrorKeepsType(t *testing.T) {
	inner := NewError(context.Background(), LayerRepository, ErrorTypeConflict, "lane busy", nil, "lane-busy")
	wrapped := AsError(context.Background(), LayerDomain, inner, "create session")

	require.NotNil(t, wrapped)
	assert.True(t, IsErrorType(wrapped, ErrorTypeConflict))
	assert.True(t, errors.Is(wrapped, inner))

	plain := AsError(context.Background(), LayerDomain, errors.New("boom"), "create session")
	assert.True(t, IsErrorType(plain, ErrorTypeInternal))
	assert.Nil(t, AsError(context.Background(), LayerDomain, nil, "noop"))
}

func TestErrorTypeToHTTPStatus(t *testing.T) {
	tests := []struct {
		errType ErrorType
		want    int
	}{
		{ErrorTypeNotFound, http.StatusNotFound},
		{ErrorTypeValidation, http.StatusBadRequest},
		{ErrorTypeConflict, http.StatusConflict},
		{ErrorTypeExternal, http.StatusBadGateway},
		{ErrorTypeTimeout, http.StatusGatewayTimeout},
		{ErrorTypeDatabaseError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.errType), func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorTypeToHTTPStatus(tt.errType))
		})
	}
}
