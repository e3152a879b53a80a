package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveEdit(t *testing.T) {
	m := New()
	m.ObserveEdit("cut", time.Now(), nil)
	m.ObserveEdit("cut", time.Now(), nil)
	m.ObserveEdit("merge", time.Now(), errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.editsTotal.WithLabelValues("cut", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.editsTotal.WithLabelValues("merge", OutcomeError)))
}

func TestObserveValidation(t *testing.T) {
	m := New()
	m.ObserveValidation(map[string]int{"orphan_cells": 3, "cycles": 0})
	m.TrackCreated()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.validationRuns))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.validationFindings.WithLabelValues("orphan_cells")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tracksCreated))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveEdit("cut", time.Now(), nil)
	m.ObserveValidation(map[string]int{"x": 1})
	m.TrackCreated()
	assert.Nil(t, m.Registry())
	assert.Error(t, m.WriteTextfile(filepath.Join(t.TempDir(), "x.prom")))
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.ObserveEdit("delete", time.Now(), nil)

	path := filepath.Join(t.TempDir(), "gardener.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `gardener_edits_total{op="delete",outcome="ok"} 1`)
}
