package cache

import (
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestAlignmentCacheKey(t *testing.T) {
	Convey("AlignmentCacheKey", t, func() {
		Convey("is stable for the same inputs", func() {
			So(AlignmentCacheKey("script", "1-1"), ShouldEqual, AlignmentCacheKey("script", "1-1"))
		})

		Convey("separates parts", func() {
			So(AlignmentCacheKey("ab", "c"), ShouldNotEqual, AlignmentCacheKey("a", "bc"))
		})

		Convey("carries the prefix", func() {
			key := AlignmentCacheKey("x")
			So(strings.HasPrefix(key, AlignmentCacheKeyPrefix), ShouldBeTrue)
			So(len(key), ShouldEqual, len(AlignmentCacheKeyPrefix)+64)
		})
	})
}
