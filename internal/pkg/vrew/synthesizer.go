package vrew

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"vrewgen/internal/pkg/ffmpeg"
	"vrewgen/internal/pkg/id"
	"vrewgen/internal/pkg/mediabind"
)

// DummyTTSName is the placeholder narration file looked up next to the template.
const DummyTTSName = "dummy.mpga"

var defaultVideo = ffmpeg.VideoInfo{Width: 1920, Height: 1080, FPS: 30, Duration: 5}

// VideoInspector reads technical metadata of a video file.
type VideoInspector interface {
	GetVideoInfo(ctx context.Context, path string) (*ffmpeg.VideoInfo, error)
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithInspector sets the video inspector. Without one every video uses default metadata.
func WithInspector(p VideoInspector) Option {
	return func(s *Synthesizer) { s.inspector = p }
}

// WithDummyTTS overrides the placeholder narration file whose size is recorded for TTS media.
func WithDummyTTS(path string) Option {
	return func(s *Synthesizer) {
		if path != "" {
			s.dummyTTSPath = path
		}
	}
}

// Synthesizer builds project containers from a template.
// It is safe for concurrent use; every Create works on its own copy of the template.
type Synthesizer struct {
	tmpl         *Template
	inspector    VideoInspector
	dummyTTSPath string
	dummyTTSSize int64
}

// NewSynthesizer loads the template at templatePath.
func NewSynthesizer(templatePath string, opts ...Option) (*Synthesizer, error) {
	tmpl, err := LoadTemplate(templatePath)
	if err != nil {
		return nil, err
	}

	s := &Synthesizer{
		tmpl:         tmpl,
		dummyTTSPath: filepath.Join(filepath.Dir(templatePath), DummyTTSName),
		dummyTTSSize: DefaultDummyTTSSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	if info, err := os.Stat(s.dummyTTSPath); err == nil && !info.IsDir() {
		s.dummyTTSSize = info.Size()
	}
	return s, nil
}

// Item pairs a media file with one caption. Items sharing a media path share one media entry.
type Item struct {
	MediaPath string `json:"media_path"`
	Caption   string `json:"caption"`
}

type Request struct {
	Items      []Item
	OutputPath string
	Voice      string
}

// Result summarises a written container.
type Result struct {
	OutputPath string    `json:"output_path"`
	Clips      int       `json:"clips"`
	Media      int       `json:"media"`
	TTS        int       `json:"tts"`
	Size       int64     `json:"size"`
	Skipped    []Skipped `json:"skipped,omitempty"`
}

// Create writes one container for req. Items whose media is missing are skipped and
// listed in the result; template, serialization and filesystem failures are returned
// as *GenerationError.
func (s *Synthesizer) Create(ctx context.Context, req Request) (*Result, error) {
	if req.OutputPath == "" {
		return nil, &GenerationError{Stage: StageWrite, Err: fmt.Errorf("%w: empty output path", ErrOutputUnwritable)}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	project, err := s.tmpl.decode()
	if err != nil {
		return nil, &GenerationError{Stage: StageTemplate, OutputPath: req.OutputPath, Err: err}
	}

	voice := req.Voice
	if voice == "" {
		voice = DefaultVoice
	}

	b := newBuilder(ctx, s, voice)
	defer b.close()
	for i, item := range req.Items {
		caption := CleanCaption(item.Caption)
		reg, reason := b.register(item.MediaPath)
		if reg == nil {
			b.skipped = append(b.skipped, Skipped{Index: i, MediaPath: item.MediaPath, Reason: reason})
			continue
		}
		if reg.video {
			b.clips = append(b.clips, b.videoClip(reg, caption))
		} else {
			b.clips = append(b.clips, b.imageClip(reg, caption))
		}
	}

	b.apply(project)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(project); err != nil {
		return nil, &GenerationError{Stage: StageSerialize, OutputPath: req.OutputPath, Err: fmt.Errorf("%w: %v", ErrSerialize, err)}
	}
	data := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := writeContainer(req.OutputPath, data, s.tmpl.extras, b.media); err != nil {
		return nil, err
	}

	res := &Result{
		OutputPath: req.OutputPath,
		Clips:      len(b.clips),
		Media:      len(b.media),
		TTS:        len(b.tts),
		Skipped:    b.skipped,
	}
	if info, err := os.Stat(req.OutputPath); err == nil {
		res.Size = info.Size()
	}

	log.Info().
		Str("output", req.OutputPath).
		Int("clips", res.Clips).
		Int("media", res.Media).
		Int("tts", res.TTS).
		Int("skipped", len(res.Skipped)).
		Msg("project written")
	return res, nil
}

type registered struct {
	mediaID  string
	assetID  string // images only
	video    bool
	duration float64
	uses     int
}

type builder struct {
	ctx   context.Context
	s     *Synthesizer
	voice string

	byPath  map[string]*registered
	failed  map[string]SkipReason
	files   []MediaFile
	assets  map[string]Asset
	tts     map[string]TTSClipInfo
	media   []mediaEntry
	clips   []Clip
	skipped []Skipped
	zIndex  int
}

func newBuilder(ctx context.Context, s *Synthesizer, voice string) *builder {
	return &builder{
		ctx:    ctx,
		s:      s,
		voice:  voice,
		byPath: make(map[string]*registered),
		failed: make(map[string]SkipReason),
		files:  []MediaFile{},
		assets: make(map[string]Asset),
		tts:    make(map[string]TTSClipInfo),
		clips:  []Clip{},
	}
}

// register adds path to the media registry on first use.
func (b *builder) register(path string) (*registered, SkipReason) {
	if reg, ok := b.byPath[path]; ok {
		return reg, ""
	}
	if reason, ok := b.failed[path]; ok {
		return nil, reason
	}

	f, info, reason := openMedia(path)
	if f == nil {
		log.Warn().Str("path", path).Str("reason", string(reason)).Msg("media skipped")
		b.failed[path] = reason
		return nil, reason
	}

	ext := strings.ToLower(filepath.Ext(path))
	reg := &registered{mediaID: id.New(), video: ext == ".mp4"}
	name := reg.mediaID + mediabind.NormalizeExt(ext)

	if reg.video {
		v := b.videoInfo(path)
		reg.duration = v.Duration
		b.files = append(b.files, MediaFile{
			Version:      mediaFileVersion,
			MediaID:      reg.mediaID,
			SourceOrigin: originUser,
			FileSize:     info.Size(),
			Name:         name,
			Type:         mediaTypeAV,
			VideoAudioMetaInfo: &VideoAudioMetaInfo{
				VideoInfo: &VideoStreamInfo{
					Size:      FrameSize{Width: v.Width, Height: v.Height},
					FrameRate: v.FPS,
					Codec:     defaultVideoCodec,
				},
				AudioInfo:      &AudioStreamInfo{SampleRate: 48000, Codec: "aac", ChannelCount: 2},
				Duration:       v.Duration,
				PresumedDevice: "unknown",
				MediaContainer: "mp4",
			},
			SourceFileType: fileTypeVideo,
			FileLocation:   locationInMemory,
		})
	} else {
		transparent := false
		b.files = append(b.files, MediaFile{
			Version:       mediaFileVersion,
			MediaID:       reg.mediaID,
			SourceOrigin:  originUser,
			FileSize:      info.Size(),
			Name:          name,
			Type:          mediaTypeImage,
			IsTransparent: &transparent,
			FileLocation:  locationInMemory,
		})

		reg.assetID = id.New()
		b.assets[reg.assetID] = Asset{
			MediaID:                  reg.mediaID,
			Height:                   1,
			Width:                    1,
			ZIndex:                   b.zIndex,
			Type:                     assetTypeImage,
			OriginalWidthHeightRatio: widthHeightRatio,
			ImportType:               importTypeUser,
			KenBurns:                 KenBurnsPreset(0),
			Stats:                    AssetStats{FillType: "cut", FillMenu: "floating"},
		}
		b.zIndex++
	}

	b.media = append(b.media, mediaEntry{name: name, src: path, f: f})
	b.byPath[path] = reg
	return reg, ""
}

// openMedia opens path for the archive copy. A nil file comes with the skip reason.
func openMedia(path string) (*os.File, os.FileInfo, SkipReason) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, SkipMissingMedia
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, SkipMissingMedia
	}
	if info.IsDir() {
		f.Close()
		return nil, nil, SkipNotAFile
	}
	return f, info, ""
}

func (b *builder) close() {
	for _, m := range b.media {
		if m.f != nil {
			m.f.Close()
		}
	}
}

// videoInfo returns video metadata, substituting defaults for anything ffprobe cannot report.
func (b *builder) videoInfo(path string) ffmpeg.VideoInfo {
	info := defaultVideo
	if b.s.inspector == nil {
		return info
	}

	got, err := b.s.inspector.GetVideoInfo(b.ctx, path)
	if err != nil || got == nil {
		if err == nil {
			err = errors.New("no video info")
		}
		log.Warn().Err(err).Str("path", path).Msg("video metadata unavailable, using defaults")
		return info
	}
	if got.Width > 0 && got.Height > 0 {
		info.Width, info.Height = got.Width, got.Height
	}
	if got.FPS > 0 {
		info.FPS = round2(got.FPS)
	}
	if got.Duration > 0 {
		info.Duration = round2(got.Duration)
	}
	return info
}

func newWord(mediaID string, typ WordType, text string, start, duration float64) Word {
	return Word{
		ID:                id.Short(),
		Text:              text,
		StartTime:         start,
		Duration:          duration,
		Type:              typ,
		OriginalDuration:  duration,
		OriginalStartTime: start,
		TruncatedWords:    []string{},
		MediaID:           mediaID,
		AudioIDs:          []string{},
		AssetIDs:          []string{},
		PlaybackRate:      1,
	}
}

func newClip(words []Word, caption string, assetIDs []string) Clip {
	return Clip{
		ID:          id.Short(),
		Words:       words,
		CaptionMode: CaptionModeManual,
		Captions: []Caption{
			{Text: []Insert{{Insert: caption + "\n"}}},
			{Text: []Insert{{Insert: "\n"}}},
		},
		AssetIDs: assetIDs,
		AudioIDs: []string{},
	}
}

// videoClip plays the video directly: one frame word per whole second, then an end marker.
func (b *builder) videoClip(reg *registered, caption string) Clip {
	secs := int(reg.duration)
	words := make([]Word, 0, secs+1)
	for sec := 0; sec < secs; sec++ {
		w := newWord(reg.mediaID, WordVideoFrame, "", float64(sec), 1)
		w.Aligned = true
		words = append(words, w)
	}
	words = append(words, newWord(reg.mediaID, WordEnd, "", float64(secs), 0))

	clip := newClip(words, caption, []string{})
	clip.Dirty.Caption = true
	clip.TranslationModified.Source = true
	return clip
}

// imageClip narrates caption over the image asset with a placeholder TTS track.
func (b *builder) imageClip(reg *registered, caption string) Clip {
	asset := b.assets[reg.assetID]
	asset.KenBurns = KenBurnsPreset(reg.uses)
	b.assets[reg.assetID] = asset
	reg.uses++

	ttsID := id.Short()
	duration := EstimateDuration(caption)

	b.files = append(b.files, MediaFile{
		Version:      mediaFileVersion,
		MediaID:      ttsID,
		SourceOrigin: originResource,
		FileSize:     b.s.dummyTTSSize,
		Name:         truncateRunes(caption, 10) + ".mp3",
		Type:         mediaTypeAV,
		VideoAudioMetaInfo: &VideoAudioMetaInfo{
			Duration:  duration,
			AudioInfo: &AudioStreamInfo{SampleRate: 24000, Codec: "mp3", ChannelCount: 1},
		},
		SourceFileType: fileTypeTTS,
		FileLocation:   locationInMemory,
	})
	b.tts[ttsID] = TTSClipInfo{
		Duration: duration,
		Text:     TTSText{Raw: caption, TextAspectLang: ttsLang, Processed: caption},
		Speaker:  newSpeaker(b.voice),
		Version:  ttsVersion,
	}

	timings := SplitWords(caption, duration)
	words := make([]Word, 0, len(timings)+2)
	for _, t := range timings {
		words = append(words, newWord(ttsID, WordSpeech, t.Text, t.StartTime, t.Duration))
	}

	last := timings[len(timings)-1]
	lastEnd := round2(last.StartTime + last.Duration)
	silence := 0.5
	if last.Text != "" {
		silence = SilenceAfter(last.Text)
	}
	words = append(words,
		newWord(ttsID, WordSilence, "", lastEnd, silence),
		newWord(ttsID, WordEnd, "", round2(lastEnd+silence), 0),
	)

	return newClip(words, caption, []string{reg.assetID})
}

// apply writes the built registries and timeline into the template project.
func (b *builder) apply(project map[string]any) {
	project["files"] = b.files

	props := object(project, "props")
	props["assets"] = b.assets
	props["ttsClipInfosMap"] = b.tts
	if _, ok := props["originalClipsMap"]; ok {
		props["originalClipsMap"] = map[string]any{}
	}
	props["lastTTSSettings"] = TTSSettings{Speaker: newSpeaker(b.voice), Version: ttsVersion}

	transcript := object(project, "transcript")
	transcript["scenes"] = []Scene{{ID: id.Short(), Clips: b.clips}}

	object(project, "statistics")["projectStartMode"] = StartModeAIVoice
}
