package weather

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindForStatus(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorKind
	}{
		{http.StatusNotFound, KindNotFound},
		{http.StatusUnauthorized, KindUnauthorized},
		{http.StatusTooManyRequests, KindRateLimited},
		{http.StatusInternalServerError, KindUnknown},
		{http.StatusBadRequest, KindUnknown},
		{http.StatusForbidden, KindUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, KindForStatus(tt.status), "status %d", tt.status)
	}
}

func TestMessages(t *testing.T) {
	assert.Equal(t, "City not found. Please check the spelling and try again.", MessageFor(StatusError(404, "city not found")))
	assert.Equal(t, "API key invalid or not activated yet. New API keys may take 2 hours to activate.", MessageFor(StatusError(401, "")))
	assert.Equal(t, "Too many requests. Please wait a moment and try again.", MessageFor(StatusError(429, "")))
	assert.Equal(t, "Network error. Please check your connection and try again.", MessageFor(NewError(KindNetworkUnavailable, nil)))
	assert.Equal(t, GenericMessage, MessageFor(StatusError(500, "")))
	assert.Equal(t, GenericMessage, MessageFor(errors.New("anything")))
	assert.Equal(t, GenericMessage, ErrorKind("bogus").Message())
	assert.Empty(t, MessageFor(nil))
}

func TestTransient(t *testing.T) {
	assert.False(t, IsTransient(ErrNotFound))
	assert.False(t, IsTransient(ErrUnauthorized))
	assert.True(t, IsTransient(ErrRateLimited))
	assert.True(t, IsTransient(ErrNetworkUnavailable))
	assert.True(t, IsTransient(ErrUnknown))
	assert.True(t, IsTransient(errors.New("raw")))
	assert.False(t, IsTransient(nil))
}

func TestErrorMatchingAndWrapping(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := fmt.Errorf("fetch current: %w", NewError(KindNetworkUnavailable, cause))

	assert.ErrorIs(t, err, ErrNetworkUnavailable)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, KindNetworkUnavailable, KindOf(err))

	n := Normalize(err)
	assert.Equal(t, KindNetworkUnavailable, n.Kind)
	assert.Nil(t, Normalize(nil))
	assert.Equal(t, ErrorKind(""), KindOf(nil))
}

func TestErrorString(t *testing.T) {
	assert.Equal(t, "not_found (status 404): city not found", StatusError(404, "city not found").Error())
	assert.Equal(t, "unknown (status 502)", StatusError(502, "").Error())
	assert.Equal(t, "network_unavailable: timeout", NewError(KindNetworkUnavailable, errors.New("timeout")).Error())
	assert.Equal(t, "rate_limited", ErrRateLimited.Error())
}
