package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"vrewgen/internal/model/project"
	"vrewgen/internal/pkg/ffmpeg"
	"vrewgen/internal/pkg/mediabind"
	"vrewgen/internal/pkg/vrew"
	projectRepo "vrewgen/internal/repository/project"
	projectService "vrewgen/internal/service/project"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write Vrew project files from a script, a sheet and numbered images",
	Long: `Align the script with the sheet, bind the numbered files of --media to the
scenes (odd numbers to slot A, even numbers to slot B) and write one project
file per --split scenes.

Example:
  vrewgen generate --script script.txt --sheet markers.xlsx --media ./images --split 10 --select 1-2=B`,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	addInputFlags(generateCmd)
	flags := generateCmd.Flags()
	flags.String("media", "", "directory of numbered media files (1.png, 2.jpg, ...)")
	flags.Int("split", 10, "scenes per project file, 0 = one file")
	flags.StringSlice("select", nil, "use slot B for a scene, e.g. --select 1-2=B (repeatable)")
	flags.StringP("out", "o", "", "output directory (default: pipeline.output_dir)")
	flags.String("voice", "", "TTS speaker id (default: pipeline.tts_voice)")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	flags := cmd.Flags()
	scriptPath, _ := flags.GetString("script")
	sheetPath, _ := flags.GetString("sheet")
	mediaDir, _ := flags.GetString("media")
	selections, _ := flags.GetStringSlice("select")
	outDir, _ := flags.GetString("out")
	voice, _ := flags.GetString("voice")
	if outDir == "" {
		outDir = cfg.Pipeline.OutputDir
	}
	if voice == "" {
		voice = cfg.Pipeline.TTSVoice
	}

	var splitSize *int
	if flags.Changed("split") {
		n, _ := flags.GetInt("split")
		splitSize = &n
	}

	inspector := ffmpeg.NewClient()
	opts := []vrew.Option{vrew.WithDummyTTS(cfg.Pipeline.DummyTTSPath)}
	if inspector.Available() {
		opts = append(opts, vrew.WithInspector(inspector))
	} else {
		log.Warn().Msg("ffprobe not found, videos will use default metadata")
	}
	synth, err := vrew.NewSynthesizer(cfg.Pipeline.TemplatePath, opts...)
	if err != nil {
		return err
	}

	workDir, err := os.MkdirTemp("", "vrewgen-*")
	if err != nil {
		return fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	svc := projectService.NewService(projectRepo.NewMemoryRepo(), synth, nil, nil, projectService.Options{
		OutputDir:    outDir,
		WorkDir:      workDir,
		Voice:        voice,
		SplitSize:    cfg.Pipeline.SplitSize,
		MaxParallel:  cfg.Pipeline.MaxParallel,
		MaxClipChars: cfg.Pipeline.MaxClipChars,
		FlatOutput:   true,
	})

	sess, err := createSession(ctx, svc, scriptPath, sheetPath)
	if err != nil {
		return err
	}

	if mediaDir != "" {
		res, err := attachDir(ctx, svc, sess.ID, mediaDir)
		if err != nil {
			return err
		}
		for _, name := range res.Ignored {
			log.Warn().Str("path", name).Str("reason", "no image number").Msg("media file ignored")
		}
	}

	for _, sel := range selections {
		rawID, slotName, ok := strings.Cut(sel, "=")
		if !ok {
			return fmt.Errorf("invalid --select %q, want RAW_ID=SLOT", sel)
		}
		slot, err := mediabind.ParseSlot(slotName)
		if err != nil {
			return err
		}
		if _, err := svc.SelectSlot(ctx, sess.ID, strings.TrimSpace(rawID), slot); err != nil {
			return fmt.Errorf("select %s: %w", sel, err)
		}
	}

	report, genErr := svc.Generate(ctx, &projectService.GenerateRequest{
		SessionID: sess.ID,
		SplitSize: splitSize,
		Voice:     voice,
	})
	var batch *projectService.BatchError
	if genErr != nil && !errors.As(genErr, &batch) {
		return genErr
	}

	rows := make([][]string, 0, len(report.Partitions))
	for _, p := range report.Partitions {
		rows = append(rows, []string{
			p.Path,
			p.FirstRawID + " ~ " + p.LastRawID,
			strconv.Itoa(p.Clips),
			humanize.Bytes(uint64(p.Size)),
			strings.Join(p.MissingMedia, ", "),
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"File", "Scenes", "Clips", "Size", "Missing media"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft},
	))
	return genErr
}

func createSession(ctx context.Context, svc projectService.Service, scriptPath, sheetPath string) (*project.Session, error) {
	script, err := os.Open(scriptPath)
	if err != nil {
		return nil, fmt.Errorf("open script: %w", err)
	}
	defer script.Close()

	sheetFile, err := os.Open(sheetPath)
	if err != nil {
		return nil, fmt.Errorf("open sheet: %w", err)
	}
	defer sheetFile.Close()

	sess, err := svc.CreateSession(ctx, &projectService.CreateSessionRequest{
		ScriptName: filepath.Base(scriptPath),
		Script:     script,
		SheetName:  filepath.Base(sheetPath),
		Sheet:      sheetFile,
	})
	if err != nil {
		return nil, err
	}
	for _, id := range sess.Unresolved {
		log.Warn().Str("raw_id", id).Str("reason", "start text not found").Msg("marker not located")
	}
	return sess, nil
}

// attachDir uploads every regular file of dir in one batch.
func attachDir(ctx context.Context, svc projectService.Service, sessionID, dir string) (*projectService.AttachResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read media dir: %w", err)
	}

	var closers []io.Closer
	defer func() {
		for _, c := range closers {
			c.Close()
		}
	}()

	files := make([]projectService.MediaFile, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		f, err := os.Open(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("open media: %w", err)
		}
		closers = append(closers, f)
		files = append(files, projectService.MediaFile{Name: e.Name(), Body: f})
	}
	return svc.AttachMedia(ctx, sessionID, files)
}
