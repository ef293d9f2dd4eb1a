package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pizzariabella/reservas-api/internal/config"
)

func contextFor(method, target, path string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath(path)
	return c
}

func TestCacheKeyFromVariaPorQuery(t *testing.T) {
	cfg := config.CacheConfig{Prefix: "cache", KeyStrategy: "route_query"}

	a := cacheKeyFrom(cfg, contextFor(http.MethodGet, "/disponibilidade?data_reserva=2026-06-01", "/disponibilidade"))
	b := cacheKeyFrom(cfg, contextFor(http.MethodGet, "/disponibilidade?data_reserva=2026-06-02", "/disponibilidade"))
	c := cacheKeyFrom(cfg, contextFor(http.MethodGet, "/disponibilidade?data_reserva=2026-06-01", "/disponibilidade"))

	assert.NotEqual(t, a, b)
	assert.Equal(t, a, c)
	assert.Contains(t, a, "cache:")
}

func TestCacheKeyFromEstrategiaRoute(t *testing.T) {
	cfg := config.CacheConfig{Prefix: "cache", KeyStrategy: "route"}

	a := cacheKeyFrom(cfg, contextFor(http.MethodGet, "/reservas?status=pendente", "/reservas"))
	b := cacheKeyFrom(cfg, contextFor(http.MethodGet, "/reservas?status=cancelada", "/reservas"))

	// A query não participa da chave nessa estratégia.
	assert.Equal(t, a, b)
}

func TestEncodeDecodePayload(t *testing.T) {
	hdr := http.Header{}
	hdr.Set("Content-Type", "application/json")
	body := []byte(`{"total":3}`)

	raw, err := encodePayload(http.StatusOK, hdr, body)
	require.NoError(t, err)

	status, gotHdr, gotBody, ok := decodePayload(raw)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", gotHdr.Get("Content-Type"))
	assert.Equal(t, body, gotBody)
}

func TestDecodePayloadCorrompido(t *testing.T) {
	_, _, _, ok := decodePayload([]byte{1, 2, 3})
	assert.False(t, ok)

	// Comprimento de header maior que o restante do buffer.
	raw, err := encodePayload(200, http.Header{}, nil)
	require.NoError(t, err)
	raw[7] = 0xFF
	_, _, _, ok = decodePayload(raw)
	assert.False(t, ok)
}

func TestBuildRateKey(t *testing.T) {
	cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip_route"}
	c := contextFor(http.MethodPost, "/reservas", "/reservas")
	c.Request().RemoteAddr = "10.0.0.7:51234"

	key := buildRateKey(cfg, c)
	assert.Contains(t, key, "rl:")
	assert.Contains(t, key, "10.0.0.7")
	assert.Contains(t, key, "POST /reservas")

	cfg.KeyStrategy = "route"
	key = buildRateKey(cfg, c)
	assert.NotContains(t, key, "10.0.0.7")
}
