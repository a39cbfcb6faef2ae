package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddleware_LabelsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/api/containers/{id}/events", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/api/containers/{id}/events"))
	for _, id := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/containers/"+id+"/events", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	}
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/api/containers/{id}/events"))
	assert.Equal(t, 2.0, after-before)
}

func TestServerCall(t *testing.T) {
	ok := serverCallsTotal.WithLabelValues("updateRange", "ok")
	failed := serverCallsTotal.WithLabelValues("updateRange", "error")
	okBefore, failedBefore := testutil.ToFloat64(ok), testutil.ToFloat64(failed)

	ServerCall("updateRange", nil)
	ServerCall("updateRange", errors.New("boom"))
	ServerCall("updateRange", nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(ok)-okBefore)
	assert.Equal(t, 1.0, testutil.ToFloat64(failed)-failedBefore)
}

func TestContainersGauge(t *testing.T) {
	before := testutil.ToFloat64(containersActive)
	ContainerAttached()
	ContainerAttached()
	ContainerDetached()
	assert.Equal(t, 1.0, testutil.ToFloat64(containersActive)-before)
}
