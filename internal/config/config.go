package config

import (
	"errors"
	"time"
)

// Config is the application configuration root.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Mongo    MongoConfig    `mapstructure:"mongo"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
}

// ServerConfig HTTP server settings
type ServerConfig struct {
	Host          string        `mapstructure:"host"`
	Port          int           `mapstructure:"port"`
	Mode          string        `mapstructure:"mode"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
	MaxUploadSize int64         `mapstructure:"max_upload_size"` // bytes per multipart request
}

// LogConfig zerolog settings
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"` // json, console, auto
	Output     string `mapstructure:"output"`
	FilePath   string `mapstructure:"file_path"`
	TimeFormat string `mapstructure:"time_format"`
}

// MongoConfig MongoDB settings, used when pipeline.session_store is mongo
type MongoConfig struct {
	URI         string `mapstructure:"uri"`
	Database    string `mapstructure:"database"`
	MaxPoolSize uint64 `mapstructure:"max_pool_size"`
	MinPoolSize uint64 `mapstructure:"min_pool_size"`
}

// RedisConfig Redis settings. An empty Addr disables the alignment cache.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// StorageConfig publishing target for generated project files
type StorageConfig struct {
	Type  string       `mapstructure:"type"` // local, oss
	Local *LocalConfig `mapstructure:"local,omitempty"`
	OSS   *OSSConfig   `mapstructure:"oss,omitempty"`
}

// LocalConfig local filesystem storage
type LocalConfig struct {
	BasePath string `mapstructure:"base_path"`
	BaseURL  string `mapstructure:"base_url"` // prefix of returned download URLs
}

// OSSConfig Aliyun OSS storage
type OSSConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	Bucket          string `mapstructure:"bucket"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret"`
	Prefix          string `mapstructure:"prefix"` // object key prefix
}

// PipelineConfig alignment and synthesis settings
type PipelineConfig struct {
	TemplatePath string        `mapstructure:"template_path"`
	DummyTTSPath string        `mapstructure:"dummy_tts_path"` // default: dummy.mpga next to the template
	OutputDir    string        `mapstructure:"output_dir"`
	WorkDir      string        `mapstructure:"work_dir"` // uploaded media per session
	TTSVoice     string        `mapstructure:"tts_voice"`
	SplitSize    int           `mapstructure:"split_size"` // scenes per output file, 0 = one file
	MaxClipChars int           `mapstructure:"max_clip_chars"`
	CleanupAfter time.Duration `mapstructure:"cleanup_after"`
	MaxParallel  int           `mapstructure:"max_parallel"`
	SessionStore string        `mapstructure:"session_store"` // memory, mongo
}

// Session store types
const (
	SessionStoreMemory = "memory"
	SessionStoreMongo  = "mongo"
)

// Validate checks the settings every command depends on.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.New("invalid server port")
	}

	validModes := map[string]bool{"debug": true, "release": true, "test": true}
	if !validModes[c.Server.Mode] {
		return errors.New("invalid server mode, must be debug/release/test")
	}

	return c.Pipeline.Validate()
}

// Validate checks pipeline settings.
func (p *PipelineConfig) Validate() error {
	if p.OutputDir == "" {
		return errors.New("pipeline.output_dir is required")
	}
	if p.SplitSize < 0 {
		return errors.New("pipeline.split_size must be >= 0")
	}
	if p.TTSVoice == "" {
		return errors.New("pipeline.tts_voice is required")
	}
	if p.MaxParallel < 1 {
		return errors.New("pipeline.max_parallel must be >= 1")
	}
	switch p.SessionStore {
	case SessionStoreMemory, SessionStoreMongo:
	default:
		return errors.New("invalid pipeline.session_store, must be memory/mongo")
	}
	return nil
}
