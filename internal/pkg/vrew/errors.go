package vrew

import (
	"errors"
	"fmt"
)

var (
	ErrTemplateUnreadable = errors.New("template unreadable")
	ErrOutputUnwritable   = errors.New("output unwritable")
	ErrSerialize          = errors.New("serialize project")
)

// Generation stages reported by GenerationError.
const (
	StageTemplate  = "template"
	StageMedia     = "media"
	StageSerialize = "serialize"
	StageWrite     = "write"
)

// GenerationError is a fatal failure while producing one container.
// Partial is set when bytes were left on disk at OutputPath and could not be removed.
type GenerationError struct {
	Stage      string
	OutputPath string
	Partial    bool
	Err        error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate %s: %s: %v", e.OutputPath, e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// SkipReason explains why an item produced no clip.
type SkipReason string

const (
	SkipMissingMedia SkipReason = "media file not found"
	SkipNotAFile     SkipReason = "media path is a directory"
)

// Skipped is an item left out of the document.
type Skipped struct {
	Index     int        `json:"index"`
	MediaPath string     `json:"media_path"`
	Reason    SkipReason `json:"reason"`
}
