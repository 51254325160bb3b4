package project

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestPlanPartitions(t *testing.T) {
	tests := []struct {
		name       string
		scenes     int
		splitSize  int
		wantRanges [][2]int
	}{
		{"whole script", 7, 0, [][2]int{{0, 6}}},
		{"even split", 20, 10, [][2]int{{0, 9}, {10, 19}}},
		{"remainder", 23, 10, [][2]int{{0, 9}, {10, 19}, {20, 22}}},
		{"split larger than scenes", 3, 5, [][2]int{{0, 2}}},
		{"one per file", 3, 1, [][2]int{{0, 0}, {1, 1}, {2, 2}}},
		{"no scenes", 0, 10, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parts, err := PlanPartitions(tt.scenes, tt.splitSize)
			if err != nil {
				t.Fatalf("PlanPartitions() error = %v", err)
			}
			if len(parts) != len(tt.wantRanges) {
				t.Fatalf("PlanPartitions() = %d partitions, want %d", len(parts), len(tt.wantRanges))
			}
			for i, p := range parts {
				if p.Index != i || p.Start != tt.wantRanges[i][0] || p.End != tt.wantRanges[i][1] {
					t.Errorf("partition %d = %+v, want %v", i, p, tt.wantRanges[i])
				}
			}
		})
	}
}

func TestPlanPartitionsInvalid(t *testing.T) {
	Convey("a negative split size is rejected", t, func() {
		_, err := PlanPartitions(5, -1)
		So(errors.Is(err, ErrInvalidSplit), ShouldBeTrue)
	})
}

func TestPartitionNames(t *testing.T) {
	Convey("partition names", t, func() {
		So(Partition{Index: 0}.FileName("대본"), ShouldEqual, "대본_장면1.vrew")
		So(Partition{Index: 2}.FileName("story"), ShouldEqual, "story_장면3.vrew")
		So(Partition{Start: 10, End: 19}.Len(), ShouldEqual, 10)

		So(ScriptStem("대본.txt"), ShouldEqual, "대본")
		So(ScriptStem(`C:\scripts\ep1.txt`), ShouldEqual, "ep1")
		So(ScriptStem("../../etc/passwd"), ShouldEqual, "passwd")
		So(ScriptStem(""), ShouldEqual, "vrew")
	})
}
