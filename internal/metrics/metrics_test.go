package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCountersIncrement(t *testing.T) {
	before := testutil.ToFloat64(GroupToggles.WithLabelValues("activate"))
	GroupToggles.WithLabelValues("activate").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(GroupToggles.WithLabelValues("activate")))

	before = testutil.ToFloat64(TrashRecordsPruned.WithLabelValues("groups"))
	TrashRecordsPruned.WithLabelValues("groups").Add(3)
	assert.Equal(t, before+3, testutil.ToFloat64(TrashRecordsPruned.WithLabelValues("groups")))
}

func TestObserveRequest(t *testing.T) {
	ObserveRequest("GET", "200", 15*time.Millisecond)
	assert.Equal(t, 1, testutil.CollectAndCount(HTTPRequestDuration))
}
