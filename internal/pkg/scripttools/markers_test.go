package scripttools

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestParseMarkerID(t *testing.T) {
	tests := []struct {
		in    string
		scene int
		shot  int
		ok    bool
	}{
		{in: "1-1", scene: 1, shot: 1, ok: true},
		{in: " 12 - 3 ", scene: 12, shot: 3, ok: true},
		{in: "1", ok: false},
		{in: "a-1", ok: false},
		{in: "1-b", ok: false},
		{in: "0-1", ok: false},
		{in: "1-0", ok: false},
		{in: "1-2-3", ok: false},
		{in: "-1-2", ok: false},
		{in: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			scene, shot, ok := ParseMarkerID(tt.in)
			if ok != tt.ok || scene != tt.scene || shot != tt.shot {
				t.Errorf("ParseMarkerID(%q) = %d, %d, %v; want %d, %d, %v",
					tt.in, scene, shot, ok, tt.scene, tt.shot, tt.ok)
			}
		})
	}
}

func TestExtractMarkers(t *testing.T) {
	Convey("ExtractMarkers keeps valid rows in order", t, func() {
		rows := []Row{
			NewRow(1, []string{"씬", "시작문장", "프롬프트"}),
			NewRow(2, []string{"1-1", " 안녕하세요 ", "a cat"}),
			NewRow(3, []string{"1-2", ""}),
			NewRow(4, []string{"x-2", "무시됩니다", "p"}),
			NewRow(5, []string{"2-1", "두 번째"}),
			NewRow(6, []string{"1-1", "중복", "dup"}),
		}
		markers := ExtractMarkers(rows)

		So(markers, ShouldHaveLength, 2)
		So(markers[0], ShouldResemble, Marker{Scene: 1, Shot: 1, RawID: "1-1", StartText: "안녕하세요", Prompt: "a cat"})
		So(markers[1].RawID, ShouldEqual, "2-1")
		So(markers[1].Prompt, ShouldEqual, "")
	})

	Convey("NewRow pads missing cells", t, func() {
		So(NewRow(7, nil), ShouldResemble, Row{Line: 7})
	})
}

func TestExportPrompts(t *testing.T) {
	Convey("prompts are numbered with the slot A image number", t, func() {
		scenes := []Scene{{Prompt: "p"}, {Prompt: "q"}}
		So(ExportPrompts(scenes), ShouldEqual, "001 p\n\n003 q\n")
		So(ExportPrompts(nil), ShouldEqual, "")
	})

	Convey("Summarize counts distinct scenes", t, func() {
		scenes := []Scene{
			{Scene: 1, Shot: 1, Text: "a"},
			{Scene: 1, Shot: 2},
			{Scene: 2, Shot: 1, Text: "b"},
		}
		s := Summarize(scenes, make([]Clip, 2))
		So(s, ShouldResemble, Summary{Scenes: 2, Shots: 3, Clips: 2, Unresolved: 1})
	})
}
