package httpx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	t.Run("valid body decodes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"ada"}`))
		rec := httptest.NewRecorder()

		var dst payload
		ok := DecodeJSON(rec, req, &dst)

		assert.True(t, ok)
		assert.Equal(t, "ada", dst.Name)
	})

	t.Run("unknown fields are rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"ada","extra":1}`))
		rec := httptest.NewRecorder()

		var dst payload
		ok := DecodeJSON(rec, req, &dst)

		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "invalid_json")
	})
}

func TestWriteEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()

	WriteEnvelope(rec, http.StatusOK, map[string]string{"id": "u1"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.True(t, env.Success)
	assert.Empty(t, env.Error)
}

func TestWriteEnvelopeError(t *testing.T) {
	rec := httptest.NewRecorder()

	WriteEnvelopeError(rec, http.StatusUnauthorized, "authentication required")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.False(t, env.Success)
	assert.Nil(t, env.Data)
	assert.Equal(t, "authentication required", env.Error)
}
