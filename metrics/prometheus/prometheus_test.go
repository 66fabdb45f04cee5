package prometheus

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/qecflow/rtdec/kernel"
)

func TestCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSubmit(nil)
	c.RecordSubmit(errors.New("rejected"))
	c.RecordDecode(kernel.StatusOK, 5*time.Microsecond, nil)
	c.RecordDecode(kernel.StatusTimeout, time.Millisecond, nil)
	c.RecordBuild(10*time.Millisecond, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.submits.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.submits.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.decodes.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.decodes.WithLabelValues("timeout")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.builds.WithLabelValues("ok")))
}

func TestCollector_DecodeErrorLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordDecode(kernel.StatusOK, time.Microsecond, errors.New("unmatchable"))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.decodes.WithLabelValues("error")))
}
