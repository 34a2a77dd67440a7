package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryExposesCounters(t *testing.T) {
	m := New()
	m.Login.WithLabelValues("success").Inc()
	m.Login.WithLabelValues("invalid_credentials").Add(2)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Login.WithLabelValues("invalid_credentials")))

	series, err := testutil.GatherAndCount(m.Gatherer(), "auth_login_total")
	require.NoError(t, err)
	assert.Equal(t, 2, series)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `auth_login_total{outcome="success"} 1`)
}

func TestRegistriesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.RateLimited.Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(a.RateLimited))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.RateLimited))
}
