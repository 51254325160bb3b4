package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "vrewgen/docs"
	"vrewgen/internal/config"
	"vrewgen/internal/handler"
	projectHandler "vrewgen/internal/handler/project"
	"vrewgen/internal/pkg/cache"
	"vrewgen/internal/pkg/ffmpeg"
	"vrewgen/internal/pkg/mongodb"
	"vrewgen/internal/pkg/outputs"
	"vrewgen/internal/pkg/storage"
	"vrewgen/internal/pkg/storagefactory"
	"vrewgen/internal/pkg/vrew"
	projectRepo "vrewgen/internal/repository/project"
	"vrewgen/internal/server/middleware"
	projectService "vrewgen/internal/service/project"
)

const maxCleanupInterval = time.Hour

// Server HTTP server
type Server struct {
	cfg       *config.Config
	engine    *gin.Engine
	mongo     *mongodb.Client
	redis     *cache.RedisCache
	store     storage.Storage
	inspector *ffmpeg.Client
	project   projectService.Service
}

// New wires the configured backends and registers routes.
func New(cfg *config.Config) (*Server, error) {
	switch cfg.Server.Mode {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	if cfg.Server.MaxUploadSize > 0 {
		engine.MaxMultipartMemory = cfg.Server.MaxUploadSize
	}

	srv := &Server{
		cfg:       cfg,
		engine:    engine,
		inspector: ffmpeg.NewClient(),
	}

	// Sessions live in MongoDB only when asked for; a configured store that cannot connect is fatal.
	var repo projectRepo.SessionRepository = projectRepo.NewMemoryRepo()
	if cfg.Pipeline.SessionStore == config.SessionStoreMongo {
		client, err := mongodb.New(&cfg.Mongo)
		if err != nil {
			return nil, fmt.Errorf("connect MongoDB: %w", err)
		}
		srv.mongo = client
		log.Info().Str("database", cfg.Mongo.Database).Msg("connected to MongoDB")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = mongodb.EnsureIndexes(ctx, client.Database())
		cancel()
		if err != nil {
			log.Warn().Err(err).Msg("failed to ensure indexes")
		}
		repo = projectRepo.NewSessionRepo(client.Database())
	}

	// Redis only caches alignments, so it stays optional.
	var alignCache projectService.Cache
	if cfg.Redis.Addr != "" {
		rc, err := cache.NewRedisCache(&cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to Redis, continuing without alignment cache")
		} else {
			srv.redis = rc
			alignCache = rc
			log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to Redis")
		}
	}

	if cfg.Storage.Type != "" {
		store, err := storagefactory.NewStorage(context.Background(), &cfg.Storage)
		if err != nil {
			srv.close()
			return nil, fmt.Errorf("init storage: %w", err)
		}
		srv.store = store
		log.Info().Str("type", store.GetStorageType()).Msg("initialized storage")
	}

	opts := []vrew.Option{vrew.WithDummyTTS(cfg.Pipeline.DummyTTSPath)}
	if srv.inspector.Available() {
		opts = append(opts, vrew.WithInspector(srv.inspector))
	} else {
		log.Warn().Msg("ffprobe not found, videos will use default metadata")
	}
	synth, err := vrew.NewSynthesizer(cfg.Pipeline.TemplatePath, opts...)
	if err != nil {
		srv.close()
		return nil, fmt.Errorf("load template: %w", err)
	}

	srv.project = projectService.NewService(repo, synth, srv.store, alignCache, projectService.Options{
		OutputDir:    cfg.Pipeline.OutputDir,
		WorkDir:      cfg.Pipeline.WorkDir,
		Voice:        cfg.Pipeline.TTSVoice,
		SplitSize:    cfg.Pipeline.SplitSize,
		MaxParallel:  cfg.Pipeline.MaxParallel,
		MaxClipChars: cfg.Pipeline.MaxClipChars,
		CacheTTL:     cfg.Redis.TTL,
	})

	srv.setupRoutes()

	return srv, nil
}

func (s *Server) setupRoutes() {
	s.engine.Use(middleware.Recovery())
	s.engine.Use(middleware.RequestID())
	s.engine.Use(middleware.Logger())
	s.engine.Use(middleware.CORS())

	healthHandler := handler.NewHealthHandler(s.readinessChecks())
	s.engine.GET("/health", healthHandler.Health)
	s.engine.GET("/ready", healthHandler.Ready)

	s.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	projectHdl := projectHandler.NewHandler(s.project)

	v1 := s.engine.Group("/api/v1")
	{
		sessions := v1.Group("/sessions")
		sessions.GET("", projectHdl.ListSessions)
		sessions.GET("/:id", projectHdl.GetSession)
		sessions.GET("/:id/prompts", projectHdl.GetPrompts)
		sessions.POST("/:id/scenes/:raw_id/select", projectHdl.SelectSlot)
		sessions.POST("/:id/generate", projectHdl.Generate)
		sessions.GET("/:id/outputs/:name", projectHdl.DownloadOutput)

		upload := sessions.Group("")
		upload.Use(middleware.BodyLimit(s.cfg.Server.MaxUploadSize))
		upload.POST("", projectHdl.CreateSession)
		upload.POST("/:id/media", projectHdl.AttachMedia)
		upload.PUT("/:id/scenes/:raw_id/slots/:slot", projectHdl.UploadSlot)
	}
}

func (s *Server) readinessChecks() (required, optional map[string]handler.Check) {
	required = map[string]handler.Check{
		"template": func(context.Context) error {
			_, err := os.Stat(s.cfg.Pipeline.TemplatePath)
			return err
		},
	}
	optional = map[string]handler.Check{
		"ffprobe": func(context.Context) error {
			if !s.inspector.Available() {
				return errors.New("ffprobe not found in PATH")
			}
			return nil
		},
	}
	if s.mongo != nil {
		required["mongo"] = s.mongo.Ping
	}
	if s.redis != nil {
		optional["redis"] = s.redis.Ping
	}
	return required, optional
}

// Run serves until ctx is canceled, sweeping stale outputs in the background.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	cleanupCtx, stopCleanup := context.WithCancel(ctx)
	defer stopCleanup()
	go s.cleanupLoop(cleanupCtx)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		s.close()
		return err
	case err := <-errCh:
		s.close()
		return err
	}
}

// Cleanup removes files older than pipeline.cleanup_after from the output and work directories.
func (s *Server) Cleanup(ctx context.Context) {
	age := s.cfg.Pipeline.CleanupAfter
	if age <= 0 {
		return
	}
	for _, dir := range []string{s.cfg.Pipeline.OutputDir, s.cfg.Pipeline.WorkDir} {
		if dir == "" {
			continue
		}
		report, err := outputs.Cleanup(ctx, dir, age)
		if err != nil {
			log.Warn().Err(err).Str("dir", dir).Msg("cleanup skipped")
			continue
		}
		for _, f := range report.Failed {
			log.Warn().Str("error", f.Err).Str("path", f.Path).Msg("failed to remove stale file")
		}
	}
}

func (s *Server) cleanupLoop(ctx context.Context) {
	age := s.cfg.Pipeline.CleanupAfter
	if age <= 0 {
		return
	}
	s.Cleanup(ctx)

	ticker := time.NewTicker(min(age, maxCleanupInterval))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Cleanup(ctx)
		}
	}
}

func (s *Server) close() {
	if s.mongo != nil {
		if err := s.mongo.Close(context.Background()); err != nil {
			log.Error().Err(err).Msg("failed to close MongoDB connection")
		}
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close Redis connection")
		}
	}
}

// Engine returns the gin engine, for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}
