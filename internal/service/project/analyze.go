package project

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"vrewgen/internal/pkg/cache"
	"vrewgen/internal/pkg/ctxutil"
	"vrewgen/internal/pkg/scripttools"
)

// Cache stores alignment results between requests. *cache.RedisCache implements it.
type Cache interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

// Analysis is everything derived from a script and its marker rows.
type Analysis struct {
	Markers   []scripttools.Marker  `json:"markers"`
	Alignment scripttools.Alignment `json:"alignment"`
	Clips     []scripttools.Clip    `json:"clips"`
	Oversized []scripttools.Clip    `json:"oversized,omitempty"`
	Summary   scripttools.Summary   `json:"summary"`
}

// UnresolvedIDs returns the raw ids of markers that were not located.
func (a *Analysis) UnresolvedIDs() []string {
	var ids []string
	for _, m := range a.Alignment.Unresolved() {
		ids = append(ids, m.RawID)
	}
	return ids
}

// Analyze extracts markers from rows, aligns them against script and splits the scenes
// into clips. maxClipChars only affects the Oversized report.
func Analyze(script string, rows []scripttools.Row, maxClipChars int) (*Analysis, error) {
	markers := scripttools.ExtractMarkers(rows)
	if len(markers) == 0 {
		return nil, ErrNoScenes
	}
	return analyzeMarkers(markers, scripttools.Partition(script, markers), maxClipChars), nil
}

func analyzeMarkers(markers []scripttools.Marker, alignment scripttools.Alignment, maxClipChars int) *Analysis {
	splitter := scripttools.NewClipSplitter(maxClipChars)
	clips := splitter.Split(alignment.Scenes)
	return &Analysis{
		Markers:   markers,
		Alignment: alignment,
		Clips:     clips,
		Oversized: splitter.Oversized(clips),
		Summary:   scripttools.Summarize(alignment.Scenes, clips),
	}
}

// align partitions script, reusing a cached alignment of the same inputs when available.
func (s *service) align(ctx context.Context, script string, markers []scripttools.Marker) scripttools.Alignment {
	if s.cache == nil {
		return scripttools.Partition(script, markers)
	}

	encoded, err := json.Marshal(markers)
	if err != nil {
		return scripttools.Partition(script, markers)
	}
	key := cache.AlignmentCacheKey(script, string(encoded))

	var cached scripttools.Alignment
	switch err := s.cache.Get(ctx, key, &cached); {
	case err == nil && len(cached.Scenes) == len(markers):
		ctxutil.Logger(ctx).Debug().Str("key", key).Msg("alignment cache hit")
		return cached
	case err != nil && !errors.Is(err, cache.ErrMiss):
		ctxutil.Logger(ctx).Warn().Err(err).Msg("alignment cache read failed")
	}

	alignment := scripttools.Partition(script, markers)
	if err := s.cache.Set(ctx, key, alignment, s.opts.CacheTTL); err != nil {
		ctxutil.Logger(ctx).Warn().Err(err).Msg("alignment cache write failed")
	}
	return alignment
}
