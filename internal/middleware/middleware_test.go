package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/mellowboard/internal/service"
)

func cronRouter(secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/run", CronSecret(secret), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return router
}

func TestCronSecret(t *testing.T) {
	const secret = "0123456789abcdef"
	cases := []struct {
		name   string
		secret string
		header string
		want   int
	}{
		{name: "valid", secret: secret, header: "Bearer " + secret, want: http.StatusNoContent},
		{name: "case insensitive scheme", secret: secret, header: "bearer " + secret, want: http.StatusNoContent},
		{name: "missing header", secret: secret, want: http.StatusUnauthorized},
		{name: "wrong scheme", secret: secret, header: "Basic " + secret, want: http.StatusUnauthorized},
		{name: "wrong secret", secret: secret, header: "Bearer nope", want: http.StatusUnauthorized},
		{name: "disabled", secret: "", header: "Bearer ", want: http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/run", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			cronRouter(tc.secret).ServeHTTP(recorder, req)
			assert.Equal(t, tc.want, recorder.Code)
		})
	}
}

func TestMetricsUsesRouteTemplates(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	router := gin.New()
	router.Use(Metrics(metrics, "/metrics"))
	router.GET("/leaderboard/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/metrics", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/leaderboard/a", "/leaderboard/b", "/nowhere", "/metrics"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, uint64(3), metrics.Snapshot().RequestsTotal)
	series, err := testutil.GatherAndCount(metrics.Registry(), "http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, series)
}

func TestResponseMetaCollectsValues(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var meta map[string]interface{}
	router := gin.New()
	router.Use(WithResponseMeta())
	router.GET("/leaderboard", func(c *gin.Context) {
		SetCacheHit(c, true)
		SetMeta(c, "count", 3)
		meta = ResponseMeta(c)
		c.Status(http.StatusOK)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/leaderboard", nil))

	require.NotNil(t, meta)
	assert.Equal(t, true, meta["cache_hit"])
	assert.Equal(t, 3, meta["count"])
	assert.Contains(t, meta, "processing_time_ms")
}
