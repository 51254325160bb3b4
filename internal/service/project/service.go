package project

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"vrewgen/internal/model/project"
	"vrewgen/internal/pkg/cache"
	"vrewgen/internal/pkg/ctxutil"
	"vrewgen/internal/pkg/id"
	"vrewgen/internal/pkg/mediabind"
	"vrewgen/internal/pkg/outputs"
	"vrewgen/internal/pkg/scripttools"
	"vrewgen/internal/pkg/sheet"
	"vrewgen/internal/pkg/storage"
	"vrewgen/internal/pkg/vrew"
	projectRepo "vrewgen/internal/repository/project"
)

// Service drives a session from uploaded script and sheet to written project files.
type Service interface {
	// CreateSession aligns the script against the sheet and stores the result.
	CreateSession(ctx context.Context, req *CreateSessionRequest) (*project.Session, error)

	// GetSession loads a session.
	GetSession(ctx context.Context, sessionID string) (*project.Session, error)

	// ListSessions returns recent sessions without their script text.
	ListSessions(ctx context.Context, limit int64) ([]*project.Session, error)

	// AttachMedia stores numbered media files and rebinds every scene's A/B slots.
	// Files without a leading number are ignored and reported.
	AttachMedia(ctx context.Context, sessionID string, files []MediaFile) (*AttachResult, error)

	// UploadSlot fills or replaces one slot of a scene with a manually chosen file.
	UploadSlot(ctx context.Context, sessionID, rawID string, slot mediabind.Slot, file MediaFile) (*project.Session, error)

	// SelectSlot chooses which slot represents a scene.
	SelectSlot(ctx context.Context, sessionID, rawID string, slot mediabind.Slot) (*project.Session, error)

	// Prompts exports the image prompts of a session.
	Prompts(ctx context.Context, sessionID string) (string, error)

	// Generate writes one project file per partition of the session's scenes.
	// Partition failures are returned as *BatchError alongside the report of what was written.
	Generate(ctx context.Context, req *GenerateRequest) (*GenerationReport, error)

	// OpenOutput opens a generated project file of the session.
	OpenOutput(ctx context.Context, sessionID, fileName string) (io.ReadCloser, error)
}

// Synthesizer writes one project container. *vrew.Synthesizer implements it.
type Synthesizer interface {
	Create(ctx context.Context, req vrew.Request) (*vrew.Result, error)
}

// Options pipeline settings of the service
type Options struct {
	OutputDir    string
	WorkDir      string
	Voice        string
	SplitSize    int
	MaxParallel  int
	MaxClipChars int
	CacheTTL     time.Duration
	// FlatOutput writes project files directly into OutputDir instead of OutputDir/<session id>.
	// Meant for single-session callers such as the CLI.
	FlatOutput bool
}

// CreateSessionRequest carries the uploaded script and sheet.
type CreateSessionRequest struct {
	ScriptName string
	Script     io.Reader
	SheetName  string // extension selects the sheet reader
	Sheet      io.Reader
}

// MediaFile is an uploaded media file.
type MediaFile struct {
	Name string
	Body io.Reader
}

// AttachResult is the session after binding plus the files that were not used.
type AttachResult struct {
	Session *project.Session
	Ignored []string
}

// GenerateRequest selects the session and partitioning. A nil SplitSize uses the configured default.
type GenerateRequest struct {
	SessionID string
	SplitSize *int
	Voice     string
}

// PartitionResult is one written project file.
type PartitionResult struct {
	Partition    Partition      `json:"partition"`
	FileName     string         `json:"file_name"`
	Path         string         `json:"path"`
	URL          string         `json:"url,omitempty"`
	FirstRawID   string         `json:"first_raw_id"`
	LastRawID    string         `json:"last_raw_id"`
	Clips        int            `json:"clips"`
	Size         int64          `json:"size"`
	Skipped      []vrew.Skipped `json:"skipped,omitempty"`
	MissingMedia []string       `json:"missing_media,omitempty"` // raw ids of scenes without media
}

// GenerationReport lists the files written by one Generate call.
type GenerationReport struct {
	SessionID  string            `json:"session_id"`
	SplitSize  int               `json:"split_size"`
	Partitions []PartitionResult `json:"partitions"`
}

type service struct {
	repo  projectRepo.SessionRepository
	synth Synthesizer
	store storage.Storage // optional
	cache Cache           // optional
	opts  Options
	locks *sessionLocks
}

// NewService wires the pipeline. store and cache may be nil.
func NewService(
	repo projectRepo.SessionRepository,
	synth Synthesizer,
	store storage.Storage,
	c Cache,
	opts Options,
) Service {
	if opts.MaxParallel < 1 {
		opts.MaxParallel = 1
	}
	if opts.Voice == "" {
		opts.Voice = vrew.DefaultVoice
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = cache.AlignmentCacheTTL
	}
	return &service{
		repo:  repo,
		synth: synth,
		store: store,
		cache: c,
		opts:  opts,
		locks: newSessionLocks(),
	}
}

func (s *service) CreateSession(ctx context.Context, req *CreateSessionRequest) (*project.Session, error) {
	if req.Script == nil || req.Sheet == nil {
		return nil, fmt.Errorf("%w: script and sheet are required", ErrInvalidInput)
	}

	script, err := sheet.ReadScript(req.Script)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	rows, err := sheet.Read(req.SheetName, req.Sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	markers := scripttools.ExtractMarkers(rows)
	if len(markers) == 0 {
		return nil, ErrNoScenes
	}
	analysis := analyzeMarkers(markers, s.align(ctx, script, markers), s.opts.MaxClipChars)

	sess := &project.Session{
		ID:         id.New(),
		ScriptName: ScriptStem(req.ScriptName),
		SheetName:  filepath.Base(req.SheetName),
		Script:     script,
		Markers:    markers,
		Scenes:     analysis.Alignment.Scenes,
		Clips:      analysis.Clips,
		Unresolved: analysis.UnresolvedIDs(),
		Media:      *mediabind.Bind(analysis.Alignment.Scenes, nil),
		Status:     project.SessionStatusAligned,
	}
	if err := s.repo.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	ctxutil.Logger(ctx).Info().
		Str("session_id", sess.ID).
		Int("scenes", len(sess.Scenes)).
		Int("clips", len(sess.Clips)).
		Int("unresolved", len(sess.Unresolved)).
		Msg("session created")
	return sess, nil
}

func (s *service) GetSession(ctx context.Context, sessionID string) (*project.Session, error) {
	sess, err := s.repo.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, projectRepo.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
		}
		return nil, err
	}
	return sess, nil
}

func (s *service) ListSessions(ctx context.Context, limit int64) ([]*project.Session, error) {
	return s.repo.List(ctx, limit)
}

func (s *service) AttachMedia(ctx context.Context, sessionID string, files []MediaFile) (*AttachResult, error) {
	unlock := s.locks.lock(sessionID)
	defer unlock()

	sess, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	dir := s.mediaDir(sess.ID)
	var (
		uploads []mediabind.Upload
		ignored []string
	)
	for _, f := range files {
		n := mediabind.FileNumber(f.Name)
		if n == mediabind.UnnumberedFile {
			ctxutil.Logger(ctx).Warn().Str("session_id", sess.ID).Str("path", f.Name).Str("reason", "no leading number").Msg("media file ignored")
			ignored = append(ignored, f.Name)
			continue
		}
		path := filepath.Join(dir, mediabind.StoredName(n, filepath.Ext(f.Name)))
		if err := writeFile(path, f.Body); err != nil {
			return nil, fmt.Errorf("store %s: %w", f.Name, err)
		}
		uploads = append(uploads, mediabind.Upload{Name: filepath.Base(f.Name), Path: path})
	}

	sess.Media = *mediabind.Bind(sess.Scenes, uploads)
	sess.Status = project.SessionStatusBound
	if err := s.repo.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	ctxutil.Logger(ctx).Info().
		Str("session_id", sess.ID).
		Int("files", len(uploads)).
		Int("ignored", len(ignored)).
		Int("missing_slots", len(sess.Media.Missing())).
		Msg("media bound")
	return &AttachResult{Session: sess, Ignored: ignored}, nil
}

func (s *service) UploadSlot(ctx context.Context, sessionID, rawID string, slot mediabind.Slot, file MediaFile) (*project.Session, error) {
	unlock := s.locks.lock(sessionID)
	defer unlock()

	sess, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if _, err := sess.Media.Binding(rawID); err != nil {
		return nil, err
	}

	path := filepath.Join(s.mediaDir(sess.ID), mediabind.ManualName(rawID, slot, filepath.Ext(file.Name)))
	if err := writeFile(path, file.Body); err != nil {
		return nil, fmt.Errorf("store %s: %w", file.Name, err)
	}
	if err := sess.Media.Replace(rawID, slot, mediabind.Upload{Name: filepath.Base(file.Name), Path: path}); err != nil {
		return nil, err
	}
	sess.Status = project.SessionStatusBound
	if err := s.repo.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return sess, nil
}

func (s *service) SelectSlot(ctx context.Context, sessionID, rawID string, slot mediabind.Slot) (*project.Session, error) {
	unlock := s.locks.lock(sessionID)
	defer unlock()

	sess, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := sess.Media.Select(rawID, slot); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return sess, nil
}

func (s *service) Prompts(ctx context.Context, sessionID string) (string, error) {
	sess, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return "", err
	}
	return scripttools.ExportPrompts(sess.Scenes), nil
}

func (s *service) Generate(ctx context.Context, req *GenerateRequest) (*GenerationReport, error) {
	unlock := s.locks.lock(req.SessionID)
	defer unlock()

	sess, err := s.GetSession(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	if len(sess.Scenes) == 0 {
		return nil, ErrNoScenes
	}

	splitSize := s.opts.SplitSize
	if req.SplitSize != nil {
		splitSize = *req.SplitSize
	}
	parts, err := PlanPartitions(len(sess.Scenes), splitSize)
	if err != nil {
		return nil, err
	}
	voice := req.Voice
	if voice == "" {
		voice = s.opts.Voice
	}

	lock, err := outputs.Shared(ctx, s.opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("lock output dir: %w", err)
	}
	defer func() {
		if err := lock.Release(); err != nil {
			ctxutil.Logger(ctx).Warn().Err(err).Msg("release output lock failed")
		}
	}()

	clipsByScene := make(map[string][]scripttools.Clip, len(sess.Scenes))
	for _, c := range sess.Clips {
		clipsByScene[c.RawID] = append(clipsByScene[c.RawID], c)
	}

	results := make([]*PartitionResult, len(parts))
	errs := make([]error, len(parts))

	var g errgroup.Group
	g.SetLimit(s.opts.MaxParallel)
	for i, p := range parts {
		i, p := i, p
		g.Go(func() error {
			results[i], errs[i] = s.generatePartition(ctx, sess, clipsByScene, p, voice)
			return nil
		})
	}
	_ = g.Wait()

	report := &GenerationReport{SessionID: sess.ID, SplitSize: splitSize}
	batch := &BatchError{}
	now := time.Now()
	for i, p := range parts {
		if errs[i] != nil {
			ctxutil.Logger(ctx).Error().Err(errs[i]).Str("session_id", sess.ID).Int("partition", p.Index+1).Msg("partition failed")
			batch.Failures = append(batch.Failures, PartitionFailure{Partition: p, Err: errs[i]})
			continue
		}
		r := results[i]
		batch.Written++
		report.Partitions = append(report.Partitions, *r)
		sess.Generations = upsertGeneration(sess.Generations, project.Generation{
			FileName:   r.FileName,
			StartScene: p.Start + 1,
			EndScene:   p.End + 1,
			Clips:      r.Clips,
			Size:       r.Size,
			URL:        r.URL,
			Skipped:    r.Skipped,
			CreatedAt:  now,
		})
	}

	if batch.Written > 0 {
		sess.Status = project.SessionStatusGenerated
		if err := s.repo.Save(ctx, sess); err != nil {
			return report, fmt.Errorf("save session: %w", err)
		}
	}
	if len(batch.Failures) > 0 {
		return report, batch
	}
	return report, nil
}

func (s *service) generatePartition(
	ctx context.Context,
	sess *project.Session,
	clipsByScene map[string][]scripttools.Clip,
	p Partition,
	voice string,
) (*PartitionResult, error) {
	res := &PartitionResult{
		Partition:  p,
		FileName:   p.FileName(sess.ScriptName),
		FirstRawID: sess.Scenes[p.Start].RawID,
		LastRawID:  sess.Scenes[p.End].RawID,
	}
	res.Path = s.outputPath(sess.ID, res.FileName)

	var items []vrew.Item
	for _, scene := range sess.Scenes[p.Start : p.End+1] {
		mediaPath, ok := sess.Media.MediaPath(scene.RawID)
		if !ok {
			ctxutil.Logger(ctx).Warn().Str("session_id", sess.ID).Str("raw_id", scene.RawID).Str("reason", "no media bound").Msg("scene skipped")
			res.MissingMedia = append(res.MissingMedia, scene.RawID)
			continue
		}
		for _, c := range clipsByScene[scene.RawID] {
			items = append(items, vrew.Item{MediaPath: mediaPath, Caption: c.Text})
		}
	}

	written, err := s.synth.Create(ctx, vrew.Request{Items: items, OutputPath: res.Path, Voice: voice})
	if err != nil {
		return nil, err
	}
	res.Clips = written.Clips
	res.Size = written.Size
	res.Skipped = written.Skipped

	if s.store != nil {
		url, err := s.publish(ctx, outputKey(sess.ID, res.FileName), res.Path)
		if err != nil {
			return nil, fmt.Errorf("publish %s: %w", res.FileName, err)
		}
		res.URL = url
	}

	ctxutil.Logger(ctx).Info().
		Str("session_id", sess.ID).
		Str("file", res.FileName).
		Str("scenes", res.FirstRawID+"~"+res.LastRawID).
		Int("clips", res.Clips).
		Str("size", humanize.Bytes(uint64(res.Size))).
		Msg("partition written")
	return res, nil
}

func (s *service) publish(ctx context.Context, key, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return s.store.Upload(ctx, key, f, storage.ContentType(path))
}

func (s *service) OpenOutput(ctx context.Context, sessionID, fileName string) (io.ReadCloser, error) {
	sess, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	found := false
	for _, g := range sess.Generations {
		if g.FileName == fileName {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrOutputNotFound, fileName)
	}

	if s.store != nil {
		rc, err := s.store.Download(ctx, outputKey(sess.ID, fileName))
		if err == nil {
			return rc, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
	}

	f, err := os.Open(s.outputPath(sess.ID, fileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrOutputNotFound, fileName)
		}
		return nil, err
	}
	return f, nil
}

func (s *service) outputPath(sessionID, fileName string) string {
	if s.opts.FlatOutput {
		return filepath.Join(s.opts.OutputDir, fileName)
	}
	return filepath.Join(s.opts.OutputDir, sessionID, fileName)
}

func (s *service) mediaDir(sessionID string) string {
	return filepath.Join(s.opts.WorkDir, sessionID)
}

func outputKey(sessionID, fileName string) string {
	return "sessions/" + sessionID + "/" + fileName
}

func upsertGeneration(gens []project.Generation, g project.Generation) []project.Generation {
	for i := range gens {
		if gens[i].FileName == g.FileName {
			gens[i] = g
			return gens
		}
	}
	return append(gens, g)
}

// writeFile copies r to path through a temporary file in the same directory.
func writeFile(path string, r io.Reader) error {
	if r == nil {
		return fmt.Errorf("%w: empty file body", ErrInvalidInput)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// sessionLocks serialises read-modify-write cycles per session.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: make(map[string]*sessionLock)}
}

func (l *sessionLocks) lock(id string) func() {
	l.mu.Lock()
	sl, ok := l.locks[id]
	if !ok {
		sl = &sessionLock{}
		l.locks[id] = sl
	}
	sl.refs++
	l.mu.Unlock()

	sl.mu.Lock()
	return func() {
		sl.mu.Unlock()
		l.mu.Lock()
		sl.refs--
		if sl.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}
