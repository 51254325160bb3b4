package vrew

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
	. "github.com/smartystreets/goconvey/convey"

	"vrewgen/internal/pkg/ffmpeg"
)

const templateProject = `{
	"version": 15,
	"files": [{"mediaId": "old"}],
	"props": {
		"assets": {"old-asset": {}},
		"ttsClipInfosMap": {"old-tts": {}},
		"originalClipsMap": {"old": 1},
		"globalCaptionStyle": {"fontSize": 12345678901234567890}
	},
	"transcript": {"scenes": [{"id": "old-scene", "clips": []}]},
	"comment": "kept"
}`

func writeZip(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create zip: %v", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for name, body := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip entry %s: %v", name, err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
}

func writeTemplate(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "TEMPLATE.vrew")
	writeZip(t, path, map[string]string{
		"project.json":    templateProject,
		"media/old.png":   "old media",
		"fonts/font.json": `{"name":"kept"}`,
	})
	return path
}

func writeFile(t *testing.T, path string, size int) string {
	t.Helper()
	if err := os.WriteFile(path, []byte(strings.Repeat("x", size)), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func readProject(t *testing.T, path string) map[string]any {
	t.Helper()
	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer zr.Close()
	for _, f := range zr.File {
		if f.Name != "project.json" {
			continue
		}
		data, err := readZipFile(f)
		if err != nil {
			t.Fatalf("read project: %v", err)
		}
		var out map[string]any
		if err := json.Unmarshal(data, &out); err != nil {
			t.Fatalf("decode project: %v", err)
		}
		return out
	}
	t.Fatalf("no project.json in %s", path)
	return nil
}

type stubInspector struct {
	info *ffmpeg.VideoInfo
	err  error
}

func (p stubInspector) GetVideoInfo(context.Context, string) (*ffmpeg.VideoInfo, error) {
	return p.info, p.err
}

func TestSynthesizerImageClip(t *testing.T) {
	Convey("a single image with a short caption", t, func() {
		dir := t.TempDir()
		s, err := NewSynthesizer(writeTemplate(t, dir))
		So(err, ShouldBeNil)

		img := writeFile(t, filepath.Join(dir, "001.jpg"), 64)
		out := filepath.Join(dir, "out", "script_장면1.vrew")
		res, err := s.Create(context.Background(), Request{
			Items:      []Item{{MediaPath: img, Caption: "안녕"}},
			OutputPath: out,
		})
		So(err, ShouldBeNil)
		So(res.Clips, ShouldEqual, 1)
		So(res.Media, ShouldEqual, 1)
		So(res.TTS, ShouldEqual, 1)
		So(res.Skipped, ShouldBeEmpty)
		So(res.Size, ShouldBeGreaterThan, 0)

		c, err := OpenContainer(out)
		So(err, ShouldBeNil)
		doc := c.Document

		Convey("builds one image clip with speech, silence and end words", func() {
			clips := doc.Clips()
			So(clips, ShouldHaveLength, 1)
			words := clips[0].Words
			So(len(words), ShouldBeGreaterThanOrEqualTo, 3)
			So(words[0].Type, ShouldEqual, WordSpeech)
			So(words[0].Text, ShouldEqual, "안녕")
			So(words[len(words)-2].Type, ShouldEqual, WordSilence)
			So(words[len(words)-1].Type, ShouldEqual, WordEnd)
			So(words[len(words)-1].Duration, ShouldEqual, 0)
			So(clips[0].CaptionMode, ShouldEqual, CaptionModeManual)
			So(clips[0].Captions[0].Text[0].Insert, ShouldEqual, "안녕\n")
			So(clips[0].Captions[1].Text[0].Insert, ShouldEqual, "\n")
		})

		Convey("registers one asset with the first animation preset", func() {
			So(doc.Props.Assets, ShouldHaveLength, 1)
			for assetID, asset := range doc.Props.Assets {
				So(asset.KenBurns, ShouldResemble, KenBurnsPreset(0))
				So(asset.ZIndex, ShouldEqual, 0)
				So(asset.OriginalWidthHeightRatio, ShouldEqual, widthHeightRatio)
				So(doc.Clips()[0].AssetIDs, ShouldResemble, []string{assetID})
			}
		})

		Convey("records TTS metadata keyed by the speech media id", func() {
			speechMedia := doc.Clips()[0].Words[0].MediaID
			info, ok := doc.Props.TTSClipInfosMap[speechMedia]
			So(ok, ShouldBeTrue)
			So(info.Duration, ShouldEqual, 1.5)
			So(info.Text.Raw, ShouldEqual, "안녕")
			So(info.Speaker.SpeakerID, ShouldEqual, DefaultVoice)
			So(doc.Props.LastTTSSettings, ShouldNotBeNil)
			So(doc.Props.LastTTSSettings.Speaker.Name, ShouldEqual, DefaultVoice)

			var tts *MediaFile
			for i := range doc.Files {
				if doc.Files[i].MediaID == speechMedia {
					tts = &doc.Files[i]
				}
			}
			So(tts, ShouldNotBeNil)
			So(tts.Name, ShouldEqual, "안녕.mp3")
			So(tts.SourceFileType, ShouldEqual, "TTS")
			So(tts.FileSize, ShouldEqual, DefaultDummyTTSSize)
		})

		Convey("replaces template media and keeps unrelated template content", func() {
			So(doc.Files, ShouldHaveLength, 2)
			So(doc.Statistics.ProjectStartMode, ShouldEqual, StartModeAIVoice)
			So(c.Entries, ShouldContain, "fonts/font.json")
			So(c.Entries, ShouldNotContain, "media/old.png")
			So(c.Media, ShouldHaveLength, 1)
			for name, size := range c.Media {
				So(name, ShouldEndWith, ".jpg")
				So(size, ShouldEqual, 64)
			}

			raw := readProject(t, out)
			So(raw["comment"], ShouldEqual, "kept")
			props := raw["props"].(map[string]any)
			So(props["originalClipsMap"], ShouldBeEmpty)
			So(props["ttsClipInfosMap"], ShouldHaveLength, 1)
			So(props["globalCaptionStyle"], ShouldNotBeNil)
		})
	})
}

func TestSynthesizerTimeline(t *testing.T) {
	Convey("word timelines are contiguous and end with a zero length marker", t, func() {
		dir := t.TempDir()
		s, err := NewSynthesizer(writeTemplate(t, dir))
		So(err, ShouldBeNil)
		img := writeFile(t, filepath.Join(dir, "001.png"), 10)

		captions := []string{
			"오늘은 날씨가 정말 좋네요.",
			"산책을 가야겠어요, 그리고",
			"고양이가",
			"x",
			"",
		}
		items := make([]Item, len(captions))
		for i, c := range captions {
			items[i] = Item{MediaPath: img, Caption: c}
		}
		out := filepath.Join(dir, "timeline.vrew")
		_, err = s.Create(context.Background(), Request{Items: items, OutputPath: out})
		So(err, ShouldBeNil)

		c, err := OpenContainer(out)
		So(err, ShouldBeNil)
		clips := c.Document.Clips()
		So(clips, ShouldHaveLength, len(captions))

		for _, clip := range clips {
			words := clip.Words
			for i := 1; i < len(words); i++ {
				So(words[i].StartTime, ShouldAlmostEqual, words[i-1].StartTime+words[i-1].Duration, 0.011)
			}
			last := words[len(words)-1]
			So(last.Type, ShouldEqual, WordEnd)
			So(last.Duration, ShouldEqual, 0)
		}

		So(clips[0].Words[len(clips[0].Words)-2].Duration, ShouldEqual, 0.8)
		So(clips[2].Words[len(clips[2].Words)-2].Duration, ShouldEqual, 0.1)
		So(clips[4].Words[len(clips[4].Words)-2].Duration, ShouldEqual, 0.5)

		Convey("a reused image keeps one asset whose animation follows its last use", func() {
			So(c.Document.Props.Assets, ShouldHaveLength, 1)
			for _, asset := range c.Document.Props.Assets {
				So(asset.KenBurns, ShouldResemble, KenBurnsPreset(len(captions)-1))
			}
			So(c.Media, ShouldHaveLength, 1)
			So(c.Document.Files, ShouldHaveLength, 1+len(captions))
		})
	})
}

func TestSynthesizerVideoClip(t *testing.T) {
	Convey("video clips play the video without narration", t, func() {
		dir := t.TempDir()
		video := writeFile(t, filepath.Join(dir, "003.mp4"), 32)

		Convey("using inspected metadata", func() {
			inspector := stubInspector{info: &ffmpeg.VideoInfo{Width: 1280, Height: 720, FPS: 25, Duration: 3.456}}
			s, err := NewSynthesizer(writeTemplate(t, dir), WithInspector(inspector))
			So(err, ShouldBeNil)

			out := filepath.Join(dir, "video.vrew")
			res, err := s.Create(context.Background(), Request{
				Items:      []Item{{MediaPath: video, Caption: "영상 자막"}},
				OutputPath: out,
			})
			So(err, ShouldBeNil)
			So(res.TTS, ShouldEqual, 0)

			c, err := OpenContainer(out)
			So(err, ShouldBeNil)
			clip := c.Document.Clips()[0]
			So(clip.Words, ShouldHaveLength, 4)
			for i := 0; i < 3; i++ {
				So(clip.Words[i].Type, ShouldEqual, WordVideoFrame)
				So(clip.Words[i].StartTime, ShouldEqual, float64(i))
				So(clip.Words[i].Aligned, ShouldBeTrue)
			}
			So(clip.Words[3].Type, ShouldEqual, WordEnd)
			So(clip.Words[3].StartTime, ShouldEqual, 3)
			So(clip.AssetIDs, ShouldBeEmpty)
			So(clip.Dirty.Caption, ShouldBeTrue)
			So(c.Document.Props.Assets, ShouldBeEmpty)

			meta := c.Document.Files[0].VideoAudioMetaInfo
			So(meta.VideoInfo.Size, ShouldResemble, FrameSize{Width: 1280, Height: 720})
			So(meta.Duration, ShouldEqual, 3.46)
		})

		Convey("falling back to defaults when probing fails", func() {
			s, err := NewSynthesizer(writeTemplate(t, dir), WithInspector(stubInspector{err: errors.New("boom")}))
			So(err, ShouldBeNil)

			out := filepath.Join(dir, "video-default.vrew")
			_, err = s.Create(context.Background(), Request{
				Items:      []Item{{MediaPath: video, Caption: "자막"}},
				OutputPath: out,
			})
			So(err, ShouldBeNil)

			c, err := OpenContainer(out)
			So(err, ShouldBeNil)
			So(c.Document.Clips()[0].Words, ShouldHaveLength, 6)
			meta := c.Document.Files[0].VideoAudioMetaInfo
			So(meta.VideoInfo.Size, ShouldResemble, FrameSize{Width: 1920, Height: 1080})
			So(meta.VideoInfo.FrameRate, ShouldEqual, 30)
		})
	})
}

func TestSynthesizerRecoverableAndFatal(t *testing.T) {
	Convey("Create", t, func() {
		dir := t.TempDir()
		tmpl := writeTemplate(t, dir)
		img := writeFile(t, filepath.Join(dir, "001.webp"), 8)

		Convey("skips items whose media is missing", func() {
			s, err := NewSynthesizer(tmpl)
			So(err, ShouldBeNil)
			out := filepath.Join(dir, "skip.vrew")
			res, err := s.Create(context.Background(), Request{
				Items: []Item{
					{MediaPath: filepath.Join(dir, "missing.png"), Caption: "없음"},
					{MediaPath: img, Caption: "있음"},
					{MediaPath: filepath.Join(dir, "missing.png"), Caption: "또 없음"},
				},
				OutputPath: out,
			})
			So(err, ShouldBeNil)
			So(res.Clips, ShouldEqual, 1)
			So(res.Skipped, ShouldHaveLength, 2)
			So(res.Skipped[0].Index, ShouldEqual, 0)
			So(res.Skipped[1].Index, ShouldEqual, 2)
			So(res.Skipped[0].Reason, ShouldEqual, SkipMissingMedia)

			c, err := OpenContainer(out)
			So(err, ShouldBeNil)
			for name := range c.Media {
				So(name, ShouldEndWith, ".png")
			}
		})

		Convey("records the dummy narration size found next to the template", func() {
			writeFile(t, filepath.Join(dir, DummyTTSName), 100)
			s, err := NewSynthesizer(tmpl)
			So(err, ShouldBeNil)
			out := filepath.Join(dir, "dummy.vrew")
			_, err = s.Create(context.Background(), Request{Items: []Item{{MediaPath: img, Caption: "a"}}, OutputPath: out})
			So(err, ShouldBeNil)

			c, err := OpenContainer(out)
			So(err, ShouldBeNil)
			So(c.Document.Files[1].FileSize, ShouldEqual, 100)
		})

		Convey("writes captions without HTML escaping", func() {
			s, err := NewSynthesizer(tmpl)
			So(err, ShouldBeNil)
			out := filepath.Join(dir, "html.vrew")
			_, err = s.Create(context.Background(), Request{Items: []Item{{MediaPath: img, Caption: "<b>&</b>"}}, OutputPath: out})
			So(err, ShouldBeNil)

			zr, err := zip.OpenReader(out)
			So(err, ShouldBeNil)
			defer zr.Close()
			for _, f := range zr.File {
				if f.Name == "project.json" {
					data, err := readZipFile(f)
					So(err, ShouldBeNil)
					So(string(data), ShouldContainSubstring, "<b>&</b>")
				}
			}
		})

		Convey("reports an unreadable template", func() {
			_, err := NewSynthesizer(filepath.Join(dir, "nope.vrew"))
			So(errors.Is(err, ErrTemplateUnreadable), ShouldBeTrue)

			broken := filepath.Join(dir, "broken.vrew")
			writeZip(t, broken, map[string]string{"other.json": "{}"})
			_, err = NewSynthesizer(broken)
			So(errors.Is(err, ErrTemplateUnreadable), ShouldBeTrue)

			writeZip(t, broken, map[string]string{"project.json": "[1,2]"})
			_, err = NewSynthesizer(broken)
			So(errors.Is(err, ErrTemplateUnreadable), ShouldBeTrue)
		})

		Convey("reports an output directory that cannot be created", func() {
			s, err := NewSynthesizer(tmpl)
			So(err, ShouldBeNil)
			blocker := writeFile(t, filepath.Join(dir, "blocker"), 1)

			_, err = s.Create(context.Background(), Request{
				Items:      []Item{{MediaPath: img, Caption: "a"}},
				OutputPath: filepath.Join(blocker, "out.vrew"),
			})
			So(errors.Is(err, ErrOutputUnwritable), ShouldBeTrue)

			var gerr *GenerationError
			So(errors.As(err, &gerr), ShouldBeTrue)
			So(gerr.Stage, ShouldEqual, StageWrite)
			So(gerr.Partial, ShouldBeFalse)
		})

		Convey("stops before writing when the context is cancelled", func() {
			s, err := NewSynthesizer(tmpl)
			So(err, ShouldBeNil)
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			out := filepath.Join(dir, "cancelled.vrew")
			_, err = s.Create(ctx, Request{Items: []Item{{MediaPath: img, Caption: "a"}}, OutputPath: out})
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
			_, statErr := os.Stat(out)
			So(os.IsNotExist(statErr), ShouldBeTrue)
		})
	})
}
