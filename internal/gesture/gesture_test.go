package gesture

import (
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/gestured/gestured/internal/geom"
)

func TestGestureString(t *testing.T) {
	convey.Convey("Given tap and swipe gestures", t, func() {
		convey.So(NewTap(1).String(), convey.ShouldEqual, "1-finger tap")
		convey.So(NewTap(3).String(), convey.ShouldEqual, "3-finger tap")
		convey.So(NewSwipe(3, geom.Left).String(), convey.ShouldEqual, "3-finger swipe left")
		convey.So(NewSwipe(4, geom.Down).String(), convey.ShouldEqual, "4-finger swipe down")
	})
}

func TestGestureComparable(t *testing.T) {
	convey.Convey("Given gestures used as map keys", t, func() {
		m := map[Gesture]string{
			NewTap(2):               "tap2",
			NewSwipe(3, geom.Right): "swipe3r",
			NewSwipe(3, geom.Left):  "swipe3l",
		}

		convey.Convey("Then equal gestures collide and different ones do not", func() {
			convey.So(m[NewTap(2)], convey.ShouldEqual, "tap2")
			convey.So(m[NewSwipe(3, geom.Right)], convey.ShouldEqual, "swipe3r")
			convey.So(m[NewSwipe(3, geom.Up)], convey.ShouldEqual, "")
			convey.So(m[NewTap(3)], convey.ShouldEqual, "")
		})
	})
}

func TestParseDirection(t *testing.T) {
	convey.Convey("Given direction strings", t, func() {
		for s, want := range map[string]geom.Direction{
			"up": geom.Up, "down": geom.Down, "left": geom.Left, "right": geom.Right,
		} {
			d, err := ParseDirection(s)
			convey.So(err, convey.ShouldBeNil)
			convey.So(d, convey.ShouldEqual, want)
		}

		convey.Convey("Then anything else is rejected", func() {
			_, err := ParseDirection("diagonal")
			convey.So(err, convey.ShouldNotBeNil)
			_, err = ParseDirection("UP")
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestDefaultTuning(t *testing.T) {
	convey.Convey("Given the default tuning", t, func() {
		tuning := DefaultTuning()
		convey.So(tuning.MaxTapDistance, convey.ShouldEqual, 100)
		convey.So(tuning.Debounce.Seconds(), convey.ShouldEqual, 0.1)
		convey.So(tuning.EventTimeout.Seconds(), convey.ShouldEqual, 10)
		convey.So(tuning.DirectionBias, convey.ShouldEqual, geom.DefaultBias)
		convey.So(tuning.InitialSlots, convey.ShouldEqual, 5)
	})
}
