package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	. "github.com/smartystreets/goconvey/convey"
)

func counterValue(t *testing.T, vec *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()
	m := &dto.Metric{}
	if err := vec.WithLabelValues(labels...).Write(m); err != nil {
		t.Fatalf("Write: %v", err)
	}
	return m.GetCounter().GetValue()
}

func gaugeValue(t *testing.T, vec *prometheus.GaugeVec, labels ...string) float64 {
	t.Helper()
	m := &dto.Metric{}
	if err := vec.WithLabelValues(labels...).Write(m); err != nil {
		t.Fatalf("Write: %v", err)
	}
	return m.GetGauge().GetValue()
}

func TestManager_CountersIncrementPerMode(t *testing.T) {
	Convey("Given a fresh manager with its own registry", t, func() {
		reg := prometheus.NewRegistry()
		m := NewManager(WithPrometheusRegistry(reg))

		Convey("Startups increments only the labeled mode", func() {
			m.Startups("osu")
			m.Startups("osu")
			m.Startups("taiko")

			So(counterValue(t, m.startups, "osu"), ShouldEqual, 2)
			So(counterValue(t, m.startups, "taiko"), ShouldEqual, 1)
		})

		Convey("ScoresUpdated adds n and ignores non-positive n", func() {
			m.ScoresUpdated("osu", 3)
			m.ScoresUpdated("osu", 0)
			m.ScoresUpdated("osu", -5)

			So(counterValue(t, m.scoresUpdated, "osu"), ShouldEqual, 3)
		})

		Convey("PendingQueries sets a gauge per mode and connection", func() {
			m.PendingQueries("osu", "main", 7)
			m.PendingQueries("osu", "background", 2)

			So(gaugeValue(t, m.pendingQueries, "osu", "main"), ShouldEqual, 7)
			So(gaugeValue(t, m.pendingQueries, "osu", "background"), ShouldEqual, 2)
		})

		Convey("disabling the manager suppresses all writes", func() {
			m.enabled = false
			m.Startups("osu")
			So(counterValue(t, m.startups, "osu"), ShouldEqual, 0)
		})
	})
}
