package main

import (
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/classattend/attendancebackend/config"
	"github.com/classattend/attendancebackend/database"
	"github.com/classattend/attendancebackend/handlers"
	"github.com/classattend/attendancebackend/repository"
	"github.com/classattend/attendancebackend/services"
	"github.com/classattend/attendancebackend/vision"
	"github.com/classattend/attendancebackend/workers"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Printf("Info: No .env file found or error loading: %v", err)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	storagePaths := []string{cfg.UnknownFacesPath, cfg.CropThumbnailPath, filepath.Dir(cfg.DatabasePath)}
	for _, p := range storagePaths {
		log.Printf("Ensuring storage directory exists: %s", p)
		if err := os.MkdirAll(p, 0755); err != nil {
			log.Fatalf("FATAL: Failed to create storage directory %s: %v", p, err)
		}
	}

	db, err := database.InitGormDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize database: %v", err)
	}
	if err := database.AutoMigrateModels(db); err != nil {
		log.Fatalf("FATAL: Failed to migrate database schema: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("FATAL: Failed to get underlying sql.DB: %v", err)
	}
	defer sqlDB.Close()

	cropSubDirs := map[vision.AssetType]string{
		vision.AssetTypeUnknownFace:   filepath.Base(cfg.UnknownFacesPath),
		vision.AssetTypeCropThumbnail: filepath.Base(cfg.CropThumbnailPath),
	}
	cropStore, err := vision.NewLocalCropStore(cfg.CropStoragePath, cropSubDirs)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize crop store: %v", err)
	}
	cropProcessor := vision.NewCropProcessor(cropStore)

	log.Printf("Loading face detector model from %s", cfg.DetectorModelPath)
	detector := vision.NewScrfdDetector(cfg.DetectorModelPath)
	defer detector.Close()
	if !detector.Enabled {
		log.Printf("WARNING: face detector failed to load; attendance sessions will find no faces")
	}

	log.Printf("Loading embedding model from %s", cfg.EmbedderModelPath)
	embedder := vision.NewEmbeddingClient(cfg.EmbedderModelPath)
	defer embedder.Close()
	if !embedder.Enabled {
		log.Printf("WARNING: embedding model failed to load; recognition is disabled")
	}

	preprocessor := vision.NewPreprocessor()
	multiScale := vision.NewMultiScaleDetector(detector, vision.MultiScaleOptions{
		Scales:            cfg.DetectionScales,
		BaseThreshold:     cfg.DetectionThreshold,
		RetryScales:       cfg.RetryScales,
		RetryThreshold:    cfg.RetryThreshold,
		DensityRetryFloor: cfg.DensityRetryFloor,
		IoUThreshold:      cfg.IoUThreshold,
	})
	aligner := vision.NewFaceAligner(cfg.CanonicalFaceSize)
	qualityGate := vision.NewQualityGate(vision.QualityThresholds{
		SharpnessMin:  cfg.SharpnessMin,
		BrightnessMin: cfg.BrightnessMin,
		BrightnessMax: cfg.BrightnessMax,
		ContrastMin:   cfg.ContrastMin,
	})

	lecturerRepo := repository.NewLecturerRepository(db)
	unitRepo := repository.NewUnitRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	unknownFaceRepo := repository.NewUnknownFaceRepository(db)

	matcher := services.NewMatcher(cfg.RecognitionThreshold)
	attendanceService := services.NewAttendanceService(
		sessionRepo, studentRepo, unknownFaceRepo,
		preprocessor, multiScale, aligner, qualityGate, embedder,
		cropStore, cropProcessor, matcher,
	)

	captureAnalyzer := services.NewCaptureAnalyzer(preprocessor, multiScale, aligner, qualityGate)
	captureEmbedder := services.NewCaptureEmbedder(embedder)
	livenessValidator := services.NewLivenessValidator(
		captureAnalyzer, captureEmbedder,
		cfg.LivenessConfidence, cfg.LivenessMinFrames, cfg.LivenessTopFrames,
	)
	registrationService := services.NewRegistrationService(
		unitRepo, studentRepo, livenessValidator,
		cfg.LivenessMinFrames, embedder.ModelName,
	)

	processor := workers.NewAttendanceProcessor(attendanceService, cfg.SessionQueueSize)
	defer processor.Stop()

	log.Printf("Using database: %s", cfg.DatabasePath)
	log.Printf("Storing unknown-face crops in: %s", cfg.UnknownFacesPath)
	log.Printf("Recognition threshold: %.2f, detection threshold: %.2f", cfg.RecognitionThreshold, cfg.DetectionThreshold)

	r := chi.NewRouter()

	corsOptions := cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	corsHandler := cors.New(corsOptions)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))
	r.Use(corsHandler.Handler)

	tokenExpiry := time.Duration(cfg.TokenExpiryHours) * time.Hour
	authHandler := handlers.NewAuthHandler(lecturerRepo, cfg.JWTSecret, tokenExpiry)
	unitHandler := handlers.NewUnitHandler(unitRepo, studentRepo, sqlDB)
	registrationHandler := handlers.NewRegistrationHandler(registrationService)
	attendanceHandler := handlers.NewAttendanceHandler(sessionRepo, unitRepo, unknownFaceRepo, processor)

	requireAuth := handlers.AuthMiddleware(lecturerRepo, []byte(cfg.JWTSecret))

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/register", authHandler.Register)

		r.Route("/register", func(r chi.Router) {
			r.Post("/verify-token", registrationHandler.VerifyToken)
			r.Get("/instructions", registrationHandler.Instructions)
			r.Post("/start", registrationHandler.Start)
			r.Post("/liveness-check", registrationHandler.LivenessCheck)
			r.Post("/complete", registrationHandler.Complete)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Route("/units", func(r chi.Router) {
				r.Post("/", unitHandler.Create)
				r.Get("/", unitHandler.List)
				r.Route("/{unitID}", func(r chi.Router) {
					r.Get("/", unitHandler.Get)
					r.Post("/rotate-token", unitHandler.RotateToken)
					r.Get("/students", unitHandler.ListStudents)
					r.Get("/report", unitHandler.Report)
					r.Get("/sessions", attendanceHandler.ListByUnit)
				})
			})

			r.Route("/attendance", func(r chi.Router) {
				r.Post("/", attendanceHandler.Create)
				r.Route("/sessions/{sessionID}", func(r chi.Router) {
					r.Get("/", attendanceHandler.Get)
					r.Get("/status", attendanceHandler.Status)
				})
			})

			r.Get("/"+filepath.Base(cfg.UnknownFacesPath)+"/*", handlers.AssetServer(cfg.CropStoragePath, filepath.Base(cfg.UnknownFacesPath)))
			r.Get("/"+filepath.Base(cfg.CropThumbnailPath)+"/*", handlers.AssetServer(cfg.CropStoragePath, filepath.Base(cfg.CropThumbnailPath)))
		})
	})

	listenAddr := os.Getenv("LISTEN_ADDR")
	if listenAddr == "" {
		listenAddr = ":8080"
	}
	log.Printf("Starting server on %s", listenAddr)
	if err := http.ListenAndServe(listenAddr, r); err != nil {
		log.Fatalf("FATAL: Server failed: %v", err)
	}
}
