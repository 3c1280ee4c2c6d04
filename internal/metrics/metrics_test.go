package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordingsCounter(t *testing.T) {
	before := testutil.ToFloat64(Recordings.WithLabelValues(ResultSkipped))
	Recordings.WithLabelValues(ResultSkipped).Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(Recordings.WithLabelValues(ResultSkipped)))
}
