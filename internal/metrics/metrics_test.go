package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_Idempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, Register(reg))
	require.NoError(t, Register(reg))
}

func TestHandler_ExposesCounters(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)

	before := testutil.ToFloat64(RegistrationsTotal.WithLabelValues("GROUP"))
	RegistrationsTotal.WithLabelValues("GROUP").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(RegistrationsTotal.WithLabelValues("GROUP")))

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `campusfest_registrations_total{program_type="GROUP"}`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
