package compiler

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordCacheLookup("file", true)
		m.RecordFetch("http", nil, time.Millisecond)
		m.RecordParse()
		m.RecordRefResolution(errors.New("x"))
		m.RecordExtensionCall("h", "handled")
	})
}

func TestMetricsRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.RecordParse()
	m.RecordCacheLookup("info", false)

	expected := `
# HELP apicompiler_parses_total Total number of documents parsed into node trees
# TYPE apicompiler_parses_total counter
apicompiler_parses_total 1
`
	require.NoError(t, promtestutil.GatherAndCompare(reg, strings.NewReader(expected), "apicompiler_parses_total"))

	assert.Panics(t, func() { NewMetrics(reg) }, "collectors cannot be registered twice")
}

func TestMetricsRecordExtensionCalls(t *testing.T) {
	m := NewMetrics(nil)
	c := NewRootContextWithExtensions("$root", []ExtensionHandler{
		staticHandler("decliner", nil),
		staticHandler("handler", []byte("ok")),
	})

	_, _, err := CallExtensionWithMetrics(context.Background(), c, NewNullNode(), "x-test", m)
	require.NoError(t, err)

	assert.InDelta(t, 1, promtestutil.ToFloat64(m.extensionCalls.WithLabelValues("decliner", "declined")), 0)
	assert.InDelta(t, 1, promtestutil.ToFloat64(m.extensionCalls.WithLabelValues("handler", "handled")), 0)
}

func TestMetricsRefResolutions(t *testing.T) {
	m := NewMetrics(nil)
	r := NewReader(WithMetrics(m))
	_, err := r.ReadInfoFromBytes("doc.yaml", []byte("a: 1\n"))
	require.NoError(t, err)

	_, err = r.ReadInfoForRef("doc.yaml", "#/a")
	require.NoError(t, err)
	_, err = r.ReadInfoForRef("doc.yaml", "#/b")
	require.Error(t, err)

	assert.InDelta(t, 1, promtestutil.ToFloat64(m.refResolutions.WithLabelValues("success")), 0)
	assert.InDelta(t, 1, promtestutil.ToFloat64(m.refResolutions.WithLabelValues("error")), 0)
}
