package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/josephgoksu/ReqWing/internal/dashboard"
	"github.com/josephgoksu/ReqWing/internal/project"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics_Shared(t *testing.T) {
	assert.Same(t, NewMetrics(), NewMetrics())
}

func TestStepDoneAndTransitions(t *testing.T) {
	m := NewMetrics()
	ok := m.StepsTotal.WithLabelValues("extract", "true")
	failed := m.StepsTotal.WithLabelValues("extract", "false")
	beforeOK, beforeFailed := testutil.ToFloat64(ok), testutil.ToFloat64(failed)

	m.StepDone("extract", 120*time.Millisecond, nil)
	m.StepDone("extract", time.Second, errors.New("boom"))

	assert.Equal(t, beforeOK+1, testutil.ToFloat64(ok))
	assert.Equal(t, beforeFailed+1, testutil.ToFloat64(failed))

	tr := m.Transitions.WithLabelValues("initial", "clarification")
	before := testutil.ToFloat64(tr)
	m.Transitioned(project.StageInitial, project.StageClarification)
	assert.Equal(t, before+1, testutil.ToFloat64(tr))
}

func TestStageDone_CountsErrorsOnly(t *testing.T) {
	m := NewMetrics()
	c := m.StageErrors.WithLabelValues("validate")
	before := testutil.ToFloat64(c)

	m.StageDone("validate", time.Millisecond, nil)
	m.StageDone("validate", time.Millisecond, errors.New("bad"))

	assert.Equal(t, before+1, testutil.ToFloat64(c))
}

func TestRecordDashboard(t *testing.T) {
	m := NewMetrics()
	r := project.New()
	r.Requirements = []string{"a", "b", "c"}
	r.PriorityScores = map[string]int{"a": 9, "b": 6}

	m.RecordDashboard(dashboard.Compute([]*project.Record{r}))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Projects))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Requirements))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PriorityBuckets.WithLabelValues("Critical")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PriorityBuckets.WithLabelValues("High")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PriorityBuckets.WithLabelValues("Medium")))
}

func TestHandler_ExposesMetrics(t *testing.T) {
	m := NewMetrics()
	m.RecordHTTP("GET", "/api/dashboard", 200, 5*time.Millisecond)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "reqwing_http_requests_total"))
}
