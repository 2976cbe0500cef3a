package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/google/uuid"

	"presentersplit/config"
	"presentersplit/handlers"
	"presentersplit/internal/assembler"
	"presentersplit/internal/classifier"
	"presentersplit/internal/detector"
	"presentersplit/internal/jobs"
	"presentersplit/internal/llm"
	"presentersplit/internal/publisher"
	"presentersplit/internal/store"
	"presentersplit/internal/watcher"
	"presentersplit/internal/worker"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "pipeline.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := config.NewLogger(cfg.Logging.Level)

	supaCfg, err := config.SupabaseFromEnv()
	if err != nil {
		logger.Fatalf("Supabase configuration: %v", err)
	}

	recordStore, err := store.New(supaCfg.URL, supaCfg.ServiceKey, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize record store: %v", err)
	}
	objects := store.NewObjectStore(supaCfg.URL, supaCfg.ServiceKey, cfg.Storage.Bucket, logger)

	db, err := supaCfg.NewSupabaseClient()
	if err != nil {
		logger.Fatalf("Failed to initialize Supabase client: %v", err)
	}

	geminiKey := os.Getenv("GEMINI_API_KEY")
	if geminiKey == "" {
		logger.Fatal("GEMINI_API_KEY must be set")
	}

	det := detector.New(logger)
	cls := classifier.New(llm.NewGemini(geminiKey, logger), cfg.LLM.DefaultModel, logger)
	asm := assembler.New(recordStore, cfg.Storage.Bucket, logger)

	env := &jobs.Env{
		Store:      recordStore,
		Objects:    objects,
		Detector:   det,
		Classifier: cls,
		Log:        logger,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.YouTube.CredentialsFile != "" && cfg.YouTube.TokenFile != "" {
		yt, err := publisher.NewYouTube(ctx, cfg.YouTube.CredentialsFile, cfg.YouTube.TokenFile, logger)
		if err != nil {
			logger.Fatalf("Failed to initialize YouTube publisher: %v", err)
		}
		env.Uploader = yt
	} else {
		logger.Warn("YouTube publishing not configured; publish requests will be rejected")
	}

	dispatcher := worker.NewDispatcher(cfg.Worker.MaxWorkers, cfg.Worker.JobQueueSize, logger)
	dispatcher.Run()

	if cfg.Watcher.Enabled {
		w, err := watcher.New(cfg.Watcher.InboxDir, func(ctx context.Context, editID uuid.UUID) error {
			jobID, err := recordStore.CreateJobRecord(ctx, jobs.TypeDetectBoundaries, map[string]interface{}{
				"edit_id": editID,
				"trigger": "inbox",
			})
			if err != nil {
				return err
			}
			dispatcher.Submit(&jobs.DetectBoundariesJob{
				JobID:        jobID,
				EditID:       editID,
				ThenClassify: true,
				Env:          env,
			})
			return nil
		}, logger)
		if err != nil {
			logger.Fatalf("Failed to start transcript watcher: %v", err)
		}
		go func() {
			if err := w.Start(ctx); err != nil && err != context.Canceled {
				logger.WithError(err).Error("Transcript watcher exited")
			}
		}()
		defer w.Stop()
	}

	h := handlers.NewApplicationHandler(det, asm, env, dispatcher, db, logger)

	app := fiber.New()
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))
	app.Use(fiberlogger.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":  "ok",
			"message": "Pipeline is healthy",
		})
	})

	apiV1 := app.Group("/api/v1")

	edits := apiV1.Group("/edits/:editId")
	edits.Post("/detect", h.DetectBoundaries)
	edits.Post("/classify", h.ClassifySegments)
	edits.Post("/outputs", h.GenerateOutput)
	edits.Get("/segments", h.ListSegments)

	apiV1.Patch("/segments/:segmentId", h.UpdateSegment)
	apiV1.Post("/outputs/:outputId/publish", h.PublishOutput)
	apiV1.Get("/jobs/:jobId", h.GetJobStatus)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		logger.Info("Shutting down pipeline...")
		cancel()
		dispatcher.Stop()
		if err := app.Shutdown(); err != nil {
			logger.WithError(err).Error("Server shutdown failed")
		}
	}()

	logger.Infof("Starting pipeline API on port %d", cfg.Server.Port)
	if err := app.Listen(fmt.Sprintf(":%d", cfg.Server.Port)); err != nil {
		logger.Fatalf("Server stopped: %v", err)
	}
}
