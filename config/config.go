package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	DefaultUnknownFacesSubDir  = "unknown_faces"
	DefaultCropThumbnailSubDir = "crop_thumbnails"
)

const (
	defaultSessionQueueSize = 50

	defaultDetectionThreshold   = 0.3
	defaultRecognitionThreshold = 0.5
	defaultLivenessMinFrames    = 15
	defaultLivenessConfidence   = 0.5
	defaultLivenessTopFrames    = 3
	defaultCanonicalFaceSize    = 128
	defaultIoUThreshold         = 0.5
	defaultDensityRetryFloor    = 20
	defaultRetryThreshold       = 0.1

	defaultSharpnessMin  = 100.0
	defaultBrightnessMin = 50.0
	defaultBrightnessMax = 200.0
	defaultContrastMin   = 30.0

	defaultTokenExpiryHours = 24
)

// Config carries every tunable the pipeline and API consume. Components
// receive the values they need at construction time; nothing reads the
// environment after LoadConfig returns.
type Config struct {
	// database path
	DatabasePath string

	// crop storage configuration
	CropStoragePath   string // primary root for stored unknown-face assets
	UnknownFacesPath  string // full-calculated path for unknown-face crops
	CropThumbnailPath string // full-calculated path for review thumbnails

	// detection settings
	DetectionThreshold float64 // base confidence floor for the primary scales
	DetectionScales    []int   // working resolutions for the primary pass
	RetryScales        []int   // smaller resolutions for the density retry
	RetryThreshold     float64 // relaxed confidence floor during the retry
	DensityRetryFloor  int     // fewer accumulated faces than this triggers the retry
	IoUThreshold       float64 // overlap above this is treated as a duplicate

	// alignment and quality settings
	CanonicalFaceSize int
	SharpnessMin      float64
	BrightnessMin     float64
	BrightnessMax     float64
	ContrastMin       float64

	// recognition settings
	RecognitionThreshold float64

	// liveness settings
	LivenessMinFrames  int
	LivenessConfidence float64
	LivenessTopFrames  int

	// worker settings
	SessionQueueSize int

	// model paths (ONNX, loaded through the gocv DNN module)
	DetectorModelPath string
	EmbedderModelPath string

	// auth settings
	JWTSecret        string
	TokenExpiryHours int

	// http settings
	AllowedOrigins []string
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvIntOrDefault(envVar string, defaultVal int) int {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val <= 0 {
		log.Printf("Warning: Invalid %s '%s'. Using default %d. Error: %v", envVar, valStr, defaultVal, err)
		return defaultVal
	}
	return val
}

func getEnvFloatOrDefault(envVar string, defaultVal float64) float64 {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.ParseFloat(valStr, 64)
	if err != nil || val < 0 {
		log.Printf("Warning: Invalid %s '%s'. Using default %g. Error: %v", envVar, valStr, defaultVal, err)
		return defaultVal
	}
	return val
}

// getEnvIntListOrDefault parses a comma-separated list of positive integers
func getEnvIntListOrDefault(envVar string, defaultVal []int) []int {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	var out []int
	for _, part := range strings.Split(valStr, ",") {
		val, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || val <= 0 {
			log.Printf("Warning: Invalid entry %q in %s. Using default %v.", part, envVar, defaultVal)
			return defaultVal
		}
		out = append(out, val)
	}
	return out
}

func LoadConfig() (Config, error) {
	dbPath := getEnvOrDefault("DATABASE_PATH", "attendance.db")

	cropStorage := getEnvOrDefault("CROP_STORAGE_PATH", filepath.Join(".", "crop_storage"))
	absCropStorage, err := filepath.Abs(cropStorage)
	if err != nil {
		return Config{}, fmt.Errorf("failed to get absolute path for crop storage '%s': %w", cropStorage, err)
	}

	unknownSubDir := getEnvOrDefault("UNKNOWN_FACES_SUBDIR", DefaultUnknownFacesSubDir)
	absUnknownPath := filepath.Join(absCropStorage, unknownSubDir)

	thumbSubDir := getEnvOrDefault("CROP_THUMBNAILS_SUBDIR", DefaultCropThumbnailSubDir)
	absThumbPath := filepath.Join(absCropStorage, thumbSubDir)

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET must be set")
	}

	origins := strings.Split(getEnvOrDefault("ALLOWED_ORIGINS", "http://localhost:5173"), ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}

	cfg := Config{
		DatabasePath:      dbPath,
		CropStoragePath:   absCropStorage,
		UnknownFacesPath:  absUnknownPath,
		CropThumbnailPath: absThumbPath,

		DetectionThreshold: getEnvFloatOrDefault("DETECTION_CONFIDENCE_THRESHOLD", defaultDetectionThreshold),
		DetectionScales:    getEnvIntListOrDefault("DETECTION_SCALES", []int{640, 1024, 1280}),
		RetryScales:        getEnvIntListOrDefault("DETECTION_RETRY_SCALES", []int{320, 480}),
		RetryThreshold:     getEnvFloatOrDefault("DETECTION_RETRY_THRESHOLD", defaultRetryThreshold),
		DensityRetryFloor:  getEnvIntOrDefault("DETECTION_DENSITY_FLOOR", defaultDensityRetryFloor),
		IoUThreshold:       getEnvFloatOrDefault("DETECTION_IOU_THRESHOLD", defaultIoUThreshold),

		CanonicalFaceSize: getEnvIntOrDefault("CANONICAL_FACE_SIZE", defaultCanonicalFaceSize),
		SharpnessMin:      getEnvFloatOrDefault("QUALITY_SHARPNESS_MIN", defaultSharpnessMin),
		BrightnessMin:     getEnvFloatOrDefault("QUALITY_BRIGHTNESS_MIN", defaultBrightnessMin),
		BrightnessMax:     getEnvFloatOrDefault("QUALITY_BRIGHTNESS_MAX", defaultBrightnessMax),
		ContrastMin:       getEnvFloatOrDefault("QUALITY_CONTRAST_MIN", defaultContrastMin),

		RecognitionThreshold: getEnvFloatOrDefault("RECOGNITION_SIMILARITY_THRESHOLD", defaultRecognitionThreshold),

		LivenessMinFrames:  getEnvIntOrDefault("LIVENESS_MIN_FRAMES_PER_POSE", defaultLivenessMinFrames),
		LivenessConfidence: getEnvFloatOrDefault("LIVENESS_CONFIDENCE_FLOOR", defaultLivenessConfidence),
		LivenessTopFrames:  getEnvIntOrDefault("LIVENESS_TOP_FRAMES_PER_POSE", defaultLivenessTopFrames),

		SessionQueueSize: getEnvIntOrDefault("SESSION_QUEUE_SIZE", defaultSessionQueueSize),

		DetectorModelPath: getEnvOrDefault("DETECTOR_MODEL_PATH", "./models/scrfd_10g_bnkps.onnx"),
		EmbedderModelPath: getEnvOrDefault("EMBEDDER_MODEL_PATH", "./models/arcface_r100.onnx"),

		JWTSecret:        jwtSecret,
		TokenExpiryHours: getEnvIntOrDefault("TOKEN_EXPIRY_HOURS", defaultTokenExpiryHours),

		AllowedOrigins: origins,
	}

	return cfg, nil
}
