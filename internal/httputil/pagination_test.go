package httputil_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/allisson/appointments/internal/httputil"
)

func TestParsePagination_DeadLetterPage(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		url            string
		expectedOffset int
		expectedLimit  int
		errorMsg       string
	}{
		{name: "defaults", url: "/v1/dead-letters", expectedLimit: 50},
		{name: "custom values", url: "/v1/dead-letters?offset=10&limit=20", expectedOffset: 10, expectedLimit: 20},
		{name: "channel filter ignored", url: "/v1/dead-letters?channel=dispatch.pe&limit=5", expectedLimit: 5},
		{name: "max limit", url: "/v1/dead-letters?limit=200", expectedLimit: 200},
		{
			name:     "limit over max",
			url:      "/v1/dead-letters?limit=201",
			errorMsg: "invalid limit parameter: must be between 1 and 200",
		},
		{
			name:     "limit zero",
			url:      "/v1/dead-letters?limit=0",
			errorMsg: "invalid limit parameter: must be between 1 and 200",
		},
		{
			name:     "limit not an integer",
			url:      "/v1/dead-letters?limit=all",
			errorMsg: "invalid limit parameter: must be between 1 and 200",
		},
		{
			name:     "negative offset",
			url:      "/v1/dead-letters?offset=-1",
			errorMsg: "invalid offset parameter: must be a non-negative integer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, tt.url, nil)

			offset, limit, err := httputil.ParsePagination(c, httputil.DeadLetterPage)

			if tt.errorMsg != "" {
				assert.EqualError(t, err, tt.errorMsg)
				assert.Zero(t, offset)
				assert.Zero(t, limit)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expectedOffset, offset)
			assert.Equal(t, tt.expectedLimit, limit)
		})
	}
}

func TestPage_CheckLimit(t *testing.T) {
	page := httputil.Page{DefaultLimit: 10, MaxLimit: 25}

	assert.NoError(t, page.CheckLimit(1))
	assert.NoError(t, page.CheckLimit(25))
	assert.EqualError(t, page.CheckLimit(26), "invalid limit parameter: must be between 1 and 25")
}
