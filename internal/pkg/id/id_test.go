package id

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestIDs(t *testing.T) {
	Convey("New returns valid UUIDs", t, func() {
		a, b := New(), New()
		So(IsValid(a), ShouldBeTrue)
		So(a, ShouldNotEqual, b)
		So(IsValid("not-a-uuid"), ShouldBeFalse)
	})

	Convey("Short ids are 10 url-safe characters and do not repeat", t, func() {
		seen := make(map[string]bool)
		for i := 0; i < 1000; i++ {
			s := Short()
			So(IsShort(s), ShouldBeTrue)
			So(seen[s], ShouldBeFalse)
			seen[s] = true
		}
		So(IsShort("abc"), ShouldBeFalse)
		So(IsShort("abcdefghi!"), ShouldBeFalse)
	})
}
