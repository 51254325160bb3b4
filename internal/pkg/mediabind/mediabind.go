// Package mediabind assigns uploaded media files to scene slots.
//
// The scene at zero-based index i expects file number 2i+1 in slot A and 2i+2 in slot B.
package mediabind

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"vrewgen/internal/pkg/scripttools"
)

// UnnumberedFile is the sort number of files without a leading number. Such files never
// bind automatically.
const UnnumberedFile = 9999

var (
	ErrUnknownScene = errors.New("unknown scene")
	ErrSlotEmpty    = errors.New("slot has no media")
	ErrInvalidSlot  = errors.New("invalid slot, must be A or B")
)

var leadingNumberRe = regexp.MustCompile(`^(\d+)`)

// Slot names one of a scene's two media positions.
type Slot string

const (
	SlotA Slot = "A"
	SlotB Slot = "B"
)

// ParseSlot accepts "A" or "B" in either case.
func ParseSlot(s string) (Slot, error) {
	switch Slot(strings.ToUpper(strings.TrimSpace(s))) {
	case SlotA:
		return SlotA, nil
	case SlotB:
		return SlotB, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSlot, s)
}

// Upload is a media file available on local disk.
type Upload struct {
	Name string `json:"name" bson:"name"`
	Path string `json:"path" bson:"path"`
}

// FileNumber returns the decimal number a file name starts with, or UnnumberedFile.
func FileNumber(name string) int {
	m := leadingNumberRe.FindStringSubmatch(filepath.Base(name))
	if m == nil {
		return UnnumberedFile
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return UnnumberedFile
	}
	return n
}

// Binding is the media state of one scene.
type Binding struct {
	RawID     string  `json:"raw_id" bson:"raw_id"`
	Index     int     `json:"index" bson:"index"`
	ExpectedA int     `json:"expected_a" bson:"expected_a"`
	ExpectedB int     `json:"expected_b" bson:"expected_b"`
	A         *Upload `json:"a,omitempty" bson:"a,omitempty"`
	B         *Upload `json:"b,omitempty" bson:"b,omitempty"`
	Selected  Slot    `json:"selected,omitempty" bson:"selected,omitempty"`
}

func (b *Binding) slot(s Slot) **Upload {
	if s == SlotB {
		return &b.B
	}
	return &b.A
}

// Resolve returns the selected upload, falling back to A and then B.
func (b *Binding) Resolve() (Upload, bool) {
	if b.Selected != "" {
		if u := *b.slot(b.Selected); u != nil {
			return *u, true
		}
	}
	if b.A != nil {
		return *b.A, true
	}
	if b.B != nil {
		return *b.B, true
	}
	return Upload{}, false
}

// Board holds one binding per scene, in scene order.
type Board struct {
	Bindings []Binding `json:"bindings" bson:"bindings"`
}

// Bind maps uploads onto scenes by file number. When several uploads share a number the
// last one in upload order wins.
func Bind(scenes []scripttools.Scene, uploads []Upload) *Board {
	sorted := make([]Upload, len(uploads))
	copy(sorted, uploads)
	sort.SliceStable(sorted, func(i, j int) bool {
		return FileNumber(sorted[i].Name) < FileNumber(sorted[j].Name)
	})

	byNumber := make(map[int]Upload, len(sorted))
	for _, u := range sorted {
		if n := FileNumber(u.Name); n != UnnumberedFile {
			byNumber[n] = u
		}
	}

	board := &Board{Bindings: make([]Binding, len(scenes))}
	for i, s := range scenes {
		b := Binding{
			RawID:     s.RawID,
			Index:     i,
			ExpectedA: scripttools.ImageNumberA(i),
			ExpectedB: scripttools.ImageNumberB(i),
		}
		if u, ok := byNumber[b.ExpectedA]; ok {
			b.A = &u
		}
		if u, ok := byNumber[b.ExpectedB]; ok {
			b.B = &u
		}
		switch {
		case b.A != nil:
			b.Selected = SlotA
		case b.B != nil:
			b.Selected = SlotB
		}
		board.Bindings[i] = b
	}
	return board
}

func (b *Board) find(rawID string) (*Binding, error) {
	for i := range b.Bindings {
		if b.Bindings[i].RawID == rawID {
			return &b.Bindings[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownScene, rawID)
}

// Binding returns a copy of the scene's binding.
func (b *Board) Binding(rawID string) (Binding, error) {
	bind, err := b.find(rawID)
	if err != nil {
		return Binding{}, err
	}
	return *bind, nil
}

// Select makes slot the scene's representative media. The slot must hold a file.
func (b *Board) Select(rawID string, slot Slot) error {
	bind, err := b.find(rawID)
	if err != nil {
		return err
	}
	if *bind.slot(slot) == nil {
		return fmt.Errorf("%w: %s slot %s", ErrSlotEmpty, rawID, slot)
	}
	bind.Selected = slot
	return nil
}

// Replace puts u into the scene's slot, keeping the slot's expected number.
// A scene with nothing selected selects the replaced slot.
func (b *Board) Replace(rawID string, slot Slot, u Upload) error {
	bind, err := b.find(rawID)
	if err != nil {
		return err
	}
	*bind.slot(slot) = &u
	if bind.Selected == "" {
		bind.Selected = slot
	}
	return nil
}

// MediaPath returns the local path of the media that represents the scene.
func (b *Board) MediaPath(rawID string) (string, bool) {
	bind, err := b.find(rawID)
	if err != nil {
		return "", false
	}
	u, ok := bind.Resolve()
	return u.Path, ok
}

// MissingSlot is a slot with no file, flagged for manual upload.
type MissingSlot struct {
	RawID    string `json:"raw_id"`
	Slot     Slot   `json:"slot"`
	Expected int    `json:"expected"`
}

// Missing lists empty slots in scene order, A before B.
func (b *Board) Missing() []MissingSlot {
	var out []MissingSlot
	for _, bind := range b.Bindings {
		if bind.A == nil {
			out = append(out, MissingSlot{RawID: bind.RawID, Slot: SlotA, Expected: bind.ExpectedA})
		}
		if bind.B == nil {
			out = append(out, MissingSlot{RawID: bind.RawID, Slot: SlotB, Expected: bind.ExpectedB})
		}
	}
	return out
}

var storedExts = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".mp4": true}

// NormalizeExt lowercases ext and maps anything outside png/jpg/jpeg/mp4 to .png.
func NormalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if storedExts[ext] {
		return ext
	}
	return ".png"
}

// StoredName is the working-directory name of an auto-bound file, e.g. img_003.jpg.
func StoredName(number int, ext string) string {
	return fmt.Sprintf("img_%03d%s", number, NormalizeExt(ext))
}

// ManualName is the working-directory name of a manually uploaded file, e.g. img_1-2_B.png.
func ManualName(rawID string, slot Slot, ext string) string {
	return fmt.Sprintf("img_%s_%s%s", rawID, slot, NormalizeExt(ext))
}
