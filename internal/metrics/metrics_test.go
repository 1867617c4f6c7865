package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRecorder(t *testing.T) {
	Convey("Recorder", t, func() {
		Convey("计数按标签累加", func() {
			r := NewRecorder(prometheus.NewRegistry())
			r.TxSubmitted("createEvent")
			r.TxSubmitted("createEvent")
			r.TxFailed("finalizeEvent", "rejected")
			r.ChainEventSkipped()
			r.EventCreated()

			So(testutil.ToFloat64(r.txSubmitted.WithLabelValues("createEvent")), ShouldEqual, 2)
			So(testutil.ToFloat64(r.txFailed.WithLabelValues("finalizeEvent", "rejected")), ShouldEqual, 1)
			So(testutil.ToFloat64(r.chainSkipped), ShouldEqual, 1)
			So(testutil.ToFloat64(r.eventsCreated), ShouldEqual, 1)
		})

		Convey("nil Recorder 不会 panic", func() {
			var r *Recorder
			So(func() {
				r.TxSubmitted("createEvent")
				r.TxFailed("createEvent", "failed")
				r.TxConfirmed("createEvent", 1)
				r.ChainEventSkipped()
				r.WalletConnect("ok")
				r.EventCreated()
				r.EventDeleted()
			}, ShouldNotPanic)
		})
	})
}
