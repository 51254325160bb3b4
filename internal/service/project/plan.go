package project

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Partition is a contiguous, inclusive range of scene indexes written to one project file.
type Partition struct {
	Index int `json:"index"` // 0-based
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of scenes in the partition.
func (p Partition) Len() int {
	return p.End - p.Start + 1
}

// FileName is the output name of the partition: <stem>_장면<n>.vrew with n 1-based.
func (p Partition) FileName(stem string) string {
	return fmt.Sprintf("%s_장면%d.vrew", stem, p.Index+1)
}

// PlanPartitions splits sceneCount scenes into ranges of splitSize. splitSize 0 keeps
// everything in one range. No scenes means no partitions.
func PlanPartitions(sceneCount, splitSize int) ([]Partition, error) {
	if splitSize < 0 {
		return nil, fmt.Errorf("%w: split size %d", ErrInvalidSplit, splitSize)
	}
	if sceneCount <= 0 {
		return nil, nil
	}
	if splitSize == 0 {
		return []Partition{{Index: 0, Start: 0, End: sceneCount - 1}}, nil
	}

	parts := make([]Partition, 0, (sceneCount+splitSize-1)/splitSize)
	for start := 0; start < sceneCount; start += splitSize {
		parts = append(parts, Partition{
			Index: len(parts),
			Start: start,
			End:   min(start+splitSize, sceneCount) - 1,
		})
	}
	return parts, nil
}

// ScriptStem derives the output file stem from an uploaded script name.
func ScriptStem(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	stem = strings.TrimSpace(stem)
	if stem == "" || stem == "." || stem == "/" {
		return "vrew"
	}
	return stem
}
