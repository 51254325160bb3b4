package vrew

// Field names and type tags below are read by the editor and must not change.

// WordType tags an entry of a clip's word timeline.
type WordType int

const (
	WordSpeech     WordType = 0
	WordSilence    WordType = 1
	WordEnd        WordType = 2
	WordVideoFrame WordType = 3
)

const (
	CaptionModeManual = "MANUAL"
	StartModeAIVoice  = "ai_voice"

	DefaultVoice        = "va29"
	DefaultDummyTTSSize = 25913

	ttsVersion = "v2"
	ttsLang    = "ko-KR"

	mediaTypeAV       = "AVMedia"
	mediaTypeImage    = "Image"
	originUser        = "USER"
	originResource    = "VREW_RESOURCE"
	fileTypeVideo     = "VIDEO_AUDIO"
	fileTypeTTS       = "TTS"
	locationInMemory  = "IN_MEMORY"
	assetTypeImage    = "image"
	importTypeUser    = "user_asset_panel"
	widthHeightRatio  = 1.7777777777777777
	projectEntryName  = "project.json"
	mediaEntryPrefix  = "media/"
	mediaFileVersion  = 1
	defaultVideoCodec = "h264"
)

// MediaFile is one entry of the document's media registry.
type MediaFile struct {
	Version            int                 `json:"version"`
	MediaID            string              `json:"mediaId"`
	SourceOrigin       string              `json:"sourceOrigin"`
	FileSize           int64               `json:"fileSize"`
	Name               string              `json:"name"`
	Type               string              `json:"type"`
	IsTransparent      *bool               `json:"isTransparent,omitempty"`
	VideoAudioMetaInfo *VideoAudioMetaInfo `json:"videoAudioMetaInfo,omitempty"`
	SourceFileType     string              `json:"sourceFileType,omitempty"`
	FileLocation       string              `json:"fileLocation"`
}

type VideoAudioMetaInfo struct {
	VideoInfo      *VideoStreamInfo `json:"videoInfo,omitempty"`
	AudioInfo      *AudioStreamInfo `json:"audioInfo,omitempty"`
	Duration       float64          `json:"duration"`
	PresumedDevice string           `json:"presumedDevice,omitempty"`
	MediaContainer string           `json:"mediaContainer,omitempty"`
}

type VideoStreamInfo struct {
	Size      FrameSize `json:"size"`
	FrameRate float64   `json:"frameRate"`
	Codec     string    `json:"codec"`
}

type FrameSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type AudioStreamInfo struct {
	SampleRate   int    `json:"sampleRate"`
	Codec        string `json:"codec"`
	ChannelCount int    `json:"channelCount"`
}

// Asset is a positioned image layer referenced by clips.
type Asset struct {
	MediaID                  string     `json:"mediaId"`
	XPos                     float64    `json:"xPos"`
	YPos                     float64    `json:"yPos"`
	Height                   float64    `json:"height"`
	Width                    float64    `json:"width"`
	Rotation                 float64    `json:"rotation"`
	ZIndex                   int        `json:"zIndex"`
	Type                     string     `json:"type"`
	OriginalWidthHeightRatio float64    `json:"originalWidthHeightRatio"`
	ImportType               string     `json:"importType"`
	KenBurns                 KenBurns   `json:"kenburnsAnimationInfo"`
	EditInfo                 struct{}   `json:"editInfo"`
	Stats                    AssetStats `json:"stats"`
}

type AssetStats struct {
	FillType       string `json:"fillType"`
	FillMenu       string `json:"fillMenu"`
	RearrangeCount int    `json:"rearrangeCount"`
}

// KenBurns is a pan/zoom animation between two frames.
type KenBurns struct {
	Type string        `json:"type"`
	From KenBurnsFrame `json:"from"`
	To   KenBurnsFrame `json:"to"`
}

type KenBurnsFrame struct {
	Scale   float64 `json:"scale"`
	CenterX float64 `json:"centerX"`
	CenterY float64 `json:"centerY"`
}

// Word is one timed entry of a clip. Times are seconds on the clip's media timeline.
type Word struct {
	ID                string   `json:"id"`
	Text              string   `json:"text"`
	StartTime         float64  `json:"startTime"`
	Duration          float64  `json:"duration"`
	Aligned           bool     `json:"aligned"`
	Type              WordType `json:"type"`
	OriginalDuration  float64  `json:"originalDuration"`
	OriginalStartTime float64  `json:"originalStartTime"`
	TruncatedWords    []string `json:"truncatedWords"`
	AutoControl       bool     `json:"autoControl"`
	MediaID           string   `json:"mediaId"`
	AudioIDs          []string `json:"audioIds"`
	AssetIDs          []string `json:"assetIds"`
	PlaybackRate      float64  `json:"playbackRate"`
}

type Clip struct {
	ID                  string              `json:"id"`
	Words               []Word              `json:"words"`
	CaptionMode         string              `json:"captionMode"`
	Captions            []Caption           `json:"captions"`
	AssetIDs            []string            `json:"assetIds"`
	Dirty               ClipDirty           `json:"dirty"`
	TranslationModified TranslationModified `json:"translationModified"`
	AudioIDs            []string            `json:"audioIds"`
}

type Caption struct {
	Text []Insert `json:"text"`
}

type Insert struct {
	Insert string `json:"insert"`
}

type ClipDirty struct {
	BlankDeleted bool `json:"blankDeleted"`
	Caption      bool `json:"caption"`
	Video        bool `json:"video"`
}

type TranslationModified struct {
	Result bool `json:"result"`
	Source bool `json:"source"`
}

type Scene struct {
	ID    string `json:"id"`
	Clips []Clip `json:"clips"`
	Name  string `json:"name"`
	Dirty bool   `json:"dirty"`
}

// TTSClipInfo describes the narration the editor should synthesize for one TTS media id.
type TTSClipInfo struct {
	Duration float64 `json:"duration"`
	Text     TTSText `json:"text"`
	Speaker  Speaker `json:"speaker"`
	Volume   float64 `json:"volume"`
	Speed    float64 `json:"speed"`
	Pitch    float64 `json:"pitch"`
	Version  string  `json:"version"`
}

type TTSText struct {
	Raw            string `json:"raw"`
	TextAspectLang string `json:"textAspectLang"`
	Processed      string `json:"processed"`
}

type Speaker struct {
	Gender    string   `json:"gender"`
	Age       string   `json:"age"`
	Provider  string   `json:"provider"`
	Lang      string   `json:"lang"`
	Name      string   `json:"name"`
	SpeakerID string   `json:"speakerId"`
	Versions  []string `json:"versions"`
}

type TTSSettings struct {
	Pitch   float64 `json:"pitch"`
	Speed   float64 `json:"speed"`
	Volume  float64 `json:"volume"`
	Speaker Speaker `json:"speaker"`
	Version string  `json:"version"`
}

// Document is the typed view of the parts of project.json this package writes.
type Document struct {
	Files      []MediaFile `json:"files"`
	Transcript Transcript  `json:"transcript"`
	Props      Props       `json:"props"`
	Statistics Statistics  `json:"statistics"`
}

type Transcript struct {
	Scenes []Scene `json:"scenes"`
}

type Props struct {
	Assets          map[string]Asset       `json:"assets"`
	TTSClipInfosMap map[string]TTSClipInfo `json:"ttsClipInfosMap"`
	LastTTSSettings *TTSSettings           `json:"lastTTSSettings,omitempty"`
}

type Statistics struct {
	ProjectStartMode string `json:"projectStartMode"`
}

func newSpeaker(voice string) Speaker {
	return Speaker{
		Gender:    "female",
		Age:       "middle",
		Provider:  "vrew",
		Lang:      ttsLang,
		Name:      voice,
		SpeakerID: voice,
		Versions:  []string{ttsVersion},
	}
}
