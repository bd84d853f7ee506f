package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/markdave123-py/botgpt/internal/core"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: conversation x", core.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: bad", core.ErrValidation), http.StatusBadRequest},
		{core.ErrForbidden, http.StatusForbidden},
		{core.ErrConflict, http.StatusConflict},
		{core.ErrTransientModel, http.StatusServiceUnavailable},
		{fmt.Errorf("%w: gave up", core.ErrFatalModel), http.StatusBadGateway},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestRespondErrorFor(t *testing.T) {
	rec := httptest.NewRecorder()
	respondErrorFor(rec, zap.NewNop(), fmt.Errorf("%w: gave up after 4 attempts", core.ErrFatalModel), "conv-1")

	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var body errorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, errorBody{
		Error:          "Bad Gateway",
		Detail:         "model request failed: gave up after 4 attempts",
		StatusCode:     http.StatusBadGateway,
		ConversationID: "conv-1",
	}, body)
}

func TestRespondError_HidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	respondError(rec, zap.NewNop(), errors.New("pq: password authentication failed"))

	var body errorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "internal error", body.Detail)
	assert.Empty(t, body.ConversationID)
}

func TestDecodeJSON(t *testing.T) {
	var dst createUserRequest

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"username":"alice"}`))
	require.NoError(t, decodeJSON(httptest.NewRecorder(), req, &dst))
	assert.Equal(t, "alice", dst.Username)

	for _, body := range []string{"", "{", `{"username":"a","admin":true}`} {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		err := decodeJSON(httptest.NewRecorder(), req, &dst)
		require.ErrorIs(t, err, core.ErrValidation, "body %q", body)
	}
}

func TestQueryInt(t *testing.T) {
	n, err := queryInt("", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	n, err = queryInt("3", 7)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = queryInt("three", 7)
	require.ErrorIs(t, err, core.ErrValidation)
}

type downDB struct{}

func (downDB) Ping(context.Context) error { return errors.New("connection refused") }

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHealthHandler(downDB{}, "mock", zap.NewNop()).Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body healthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, healthResponse{Status: "unhealthy", Database: "unreachable", LLMProvider: "mock"}, body)
}
