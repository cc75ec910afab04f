package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutcome(t *testing.T) {
	notFound := errors.New("not found")
	denied := errors.New("forbidden")

	assert.Equal(t, "ok", Outcome(nil, notFound))
	assert.Equal(t, "not found", Outcome(fmt.Errorf("lookup: %w", notFound), denied, notFound))
	assert.Equal(t, "error", Outcome(errors.New("boom"), notFound))
}

func TestHandlerExposesCounters(t *testing.T) {
	Operations.WithLabelValues("test_op", "ok").Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `vidspace_operations_total{op="test_op",outcome="ok"}`)
}
