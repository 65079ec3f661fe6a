package http

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCORSRouter(t *testing.T, enabled bool, origins string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	if middleware := createCORSMiddleware(enabled, origins, slog.Default()); middleware != nil {
		router.Use(middleware)
	}
	router.POST("/v1/appointments", func(c *gin.Context) {
		c.Header("X-Request-Id", "req-1")
		c.JSON(http.StatusAccepted, gin.H{"appointment_id": "a1"})
	})
	router.GET("/v1/appointments", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"data": []string{}})
	})
	return router
}

func TestCreateCORSMiddleware(t *testing.T) {
	tests := []struct {
		name    string
		enabled bool
		origins string
		wantNil bool
	}{
		{name: "disabled", enabled: false, origins: "https://clinic.example.com", wantNil: true},
		{name: "no origins", enabled: true, origins: "", wantNil: true},
		{name: "only separators", enabled: true, origins: " , ,", wantNil: true},
		{name: "single origin", enabled: true, origins: "https://clinic.example.com"},
		{name: "several origins", enabled: true, origins: "https://pe.clinic.example.com, https://cl.clinic.example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			middleware := createCORSMiddleware(tt.enabled, tt.origins, slog.Default())
			if tt.wantNil {
				assert.Nil(t, middleware)
				return
			}
			assert.NotNil(t, middleware)
		})
	}
}

func TestParseOrigins(t *testing.T) {
	assert.Equal(t,
		[]string{"https://pe.clinic.example.com", "https://cl.clinic.example.com"},
		parseOrigins(" https://pe.clinic.example.com ,, https://cl.clinic.example.com "),
	)
	assert.Nil(t, parseOrigins(""))
}

func TestCORS_IntakeFromAllowedOrigin(t *testing.T) {
	router := newCORSRouter(t, true, "https://clinic.example.com")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(
		http.MethodPost,
		"/v1/appointments",
		bytes.NewBufferString(`{"subject_id":"S1","schedule_slot":1,"country_code":"PE"}`),
	)
	req.Header.Set("Origin", "https://clinic.example.com")
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "https://clinic.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "X-Request-Id")
	assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "Retry-After")
}

func TestCORS_Preflight(t *testing.T) {
	router := newCORSRouter(t, true, "https://clinic.example.com")

	t.Run("intake allowed", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodOptions, "/v1/appointments", nil)
		req.Header.Set("Origin", "https://clinic.example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
		assert.NotContains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodDelete)
	})

	t.Run("unknown origin rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodOptions, "/v1/appointments", nil)
		req.Header.Set("Origin", "https://elsewhere.example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestCORS_DisabledAddsNoHeaders(t *testing.T) {
	router := newCORSRouter(t, false, "https://clinic.example.com")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/appointments?subject_id=S1", nil)
	req.Header.Set("Origin", "https://clinic.example.com")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
