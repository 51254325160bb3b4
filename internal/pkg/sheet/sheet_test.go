package sheet

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"

	"vrewgen/internal/pkg/scripttools"
)

func TestReadDelimited(t *testing.T) {
	Convey("Read parses delimited sheets", t, func() {
		Convey("CSV with a header row", func() {
			src := "씬,시작문장,프롬프트\n1-1,안녕하세요,\"a cat, sitting\"\n1-2,두 번째\n"
			rows, err := Read("markers.csv", strings.NewReader(src))
			So(err, ShouldBeNil)
			So(rows, ShouldHaveLength, 2)
			So(rows[0], ShouldResemble, scripttools.Row{Line: 2, ID: "1-1", StartText: "안녕하세요", Prompt: "a cat, sitting"})
			So(rows[1].Prompt, ShouldEqual, "")
		})

		Convey("TSV without a header keeps the first row", func() {
			src := "1-1\t첫 문장\tp1\n\n2-1\t둘째 문장\tp2\n"
			rows, err := Read("markers.tsv", strings.NewReader(src))
			So(err, ShouldBeNil)
			So(rows, ShouldHaveLength, 2)
			So(rows[0].ID, ShouldEqual, "1-1")
			So(rows[1].StartText, ShouldEqual, "둘째 문장")
		})

		Convey("UTF-8 BOM is stripped", func() {
			rows, err := Read("m.csv", strings.NewReader("\ufeff1-1,start,prompt\n"))
			So(err, ShouldBeNil)
			So(rows[0].ID, ShouldEqual, "1-1")
		})

		Convey("EUC-KR input is decoded", func() {
			encoded, _, err := transform.Bytes(korean.EUCKR.NewEncoder(), []byte("1-1,안녕하세요,고양이\n"))
			So(err, ShouldBeNil)
			rows, err := Read("m.csv", bytes.NewReader(encoded))
			So(err, ShouldBeNil)
			So(rows[0].StartText, ShouldEqual, "안녕하세요")
			So(rows[0].Prompt, ShouldEqual, "고양이")
		})

		Convey("decomposed Hangul is composed", func() {
			rows, err := Read("m.csv", strings.NewReader("1-1,\u1100\u1161,p\n"))
			So(err, ShouldBeNil)
			So(rows[0].StartText, ShouldEqual, "가")
		})

		Convey("blank input is empty", func() {
			_, err := Read("m.csv", strings.NewReader(" \n"))
			So(err, ShouldEqual, ErrEmpty)
		})
	})
}

func TestReadYAML(t *testing.T) {
	Convey("Read parses YAML marker lists", t, func() {
		src := "- id: \"1-1\"\n  start: 안녕하세요\n  prompt: a cat\n- id: \"1-2\"\n  start: 두 번째\n"
		rows, err := Read("markers.yaml", strings.NewReader(src))
		So(err, ShouldBeNil)
		So(rows, ShouldHaveLength, 2)
		So(rows[0].Prompt, ShouldEqual, "a cat")
		So(rows[1].ID, ShouldEqual, "1-2")
	})
}

func TestLoadXLSX(t *testing.T) {
	Convey("Load reads the first worksheet of a workbook", t, func() {
		f := excelize.NewFile()
		sheetName := f.GetSheetName(0)
		values := [][]string{
			{"ID", "Start", "Prompt"},
			{"1-1", "안녕하세요", "p1"},
			{"1-2", "반갑습니다", ""},
		}
		for r, row := range values {
			for c, v := range row {
				cell, err := excelize.CoordinatesToCellName(c+1, r+1)
				So(err, ShouldBeNil)
				So(f.SetCellValue(sheetName, cell, v), ShouldBeNil)
			}
		}
		path := filepath.Join(t.TempDir(), "markers.xlsx")
		So(f.SaveAs(path), ShouldBeNil)
		So(f.Close(), ShouldBeNil)

		rows, err := Load(path)
		So(err, ShouldBeNil)
		So(rows, ShouldHaveLength, 2)
		So(rows[0].ID, ShouldEqual, "1-1")
		So(rows[1].StartText, ShouldEqual, "반갑습니다")

		markers := scripttools.ExtractMarkers(rows)
		So(markers, ShouldHaveLength, 2)
	})

	Convey("legacy formats are rejected", t, func() {
		path := filepath.Join(t.TempDir(), "old.xls")
		So(os.WriteFile(path, []byte("x"), 0o644), ShouldBeNil)
		_, err := Load(path)
		So(errors.Is(err, ErrUnsupportedFormat), ShouldBeTrue)
	})
}

func TestReadScript(t *testing.T) {
	Convey("ReadScript canonicalises script text", t, func() {
		Convey("strips the BOM", func() {
			got, err := ReadScript(strings.NewReader("\ufeff첫 문장입니다."))
			So(err, ShouldBeNil)
			So(got, ShouldEqual, "첫 문장입니다.")
		})

		Convey("decodes EUC-KR", func() {
			encoded, _, err := transform.Bytes(korean.EUCKR.NewEncoder(), []byte("오늘은 날씨가 좋네요."))
			So(err, ShouldBeNil)
			got, err := ReadScript(bytes.NewReader(encoded))
			So(err, ShouldBeNil)
			So(got, ShouldEqual, "오늘은 날씨가 좋네요.")
		})

		Convey("composes decomposed Hangul", func() {
			got, err := ReadScript(strings.NewReader("\u1100\u1161"))
			So(err, ShouldBeNil)
			So(got, ShouldEqual, "가")
		})
	})
}
