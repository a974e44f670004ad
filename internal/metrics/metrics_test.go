package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManager(t *testing.T) {
	Convey("Given a manager on its own registry", t, func() {
		reg := prometheus.NewRegistry()
		m := NewManager(WithRegistry(reg), WithNamespace("test"))

		Convey("When backend requests are recorded", func() {
			m.RecordBackendRequest("simulate", OutcomeOK, 2*time.Second)
			m.RecordBackendRequest("simulate", OutcomeTimeout, 240*time.Second)
			m.RecordBackendRequest("fetch_before", OutcomeOK, time.Second)

			Convey("Then counters are split by endpoint and outcome", func() {
				So(counterValue(m.backendRequests.WithLabelValues("simulate", OutcomeOK)), ShouldEqual, 1)
				So(counterValue(m.backendRequests.WithLabelValues("simulate", OutcomeTimeout)), ShouldEqual, 1)
				So(counterValue(m.backendRequests.WithLabelValues("fetch_before", OutcomeOK)), ShouldEqual, 1)
			})
		})

		Convey("When hotspots are recorded", func() {
			m.RecordHotspots(3, 1)
			m.RecordHotspots(2, 0)

			Convey("Then rendered and skipped accumulate", func() {
				So(counterValue(m.hotspots.WithLabelValues("rendered")), ShouldEqual, 5)
				So(counterValue(m.hotspots.WithLabelValues("skipped")), ShouldEqual, 1)
			})
		})
	})
}

func TestHandler(t *testing.T) {
	Convey("Given the process-wide registry", t, func() {
		RecordRun("simulation", OutcomeOK)

		Convey("Then the handler exposes it", func() {
			rec := httptest.NewRecorder()
			Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(strings.Contains(rec.Body.String(), "floodsim_runs_total"), ShouldBeTrue)
		})
	})
}

func counterValue(c prometheus.Counter) float64 {
	var out dto.Metric
	if err := c.Write(&out); err != nil {
		return -1
	}
	return out.GetCounter().GetValue()
}
