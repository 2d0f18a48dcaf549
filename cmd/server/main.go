package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/callsight/call-analysis/internal/analysis"
	"github.com/callsight/call-analysis/internal/audio"
	"github.com/callsight/call-analysis/internal/cleanup"
	"github.com/callsight/call-analysis/internal/controller"
	"github.com/callsight/call-analysis/internal/handlers"
	"github.com/callsight/call-analysis/internal/session"
	"github.com/callsight/call-analysis/internal/storage"
)

// Config represents the application configuration
type Config struct {
	Server struct {
		Port int    `yaml:"port"`
		Host string `yaml:"host"`
	} `yaml:"server"`

	Provider struct {
		Model string `yaml:"model"`
	} `yaml:"provider"`

	Storage struct {
		TempDir   string `yaml:"temp_dir"`
		OutputDir string `yaml:"output_dir"`
		Database  string `yaml:"database"`
	} `yaml:"storage"`

	Cleanup struct {
		IntervalMinutes int `yaml:"interval_minutes"`
		MaxAgeHours     int `yaml:"max_age_hours"`
	} `yaml:"cleanup"`

	GoogleDrive struct {
		CredentialsFile string `yaml:"credentials_file"`
		TokenFile       string `yaml:"token_file"`
		FolderName      string `yaml:"folder_name"`
	} `yaml:"google_drive"`

	Limits struct {
		MaxFileSizeMB   int `yaml:"max_file_size_mb"`
		HistoryLimit    int `yaml:"history_limit"`
		CacheHitDelayMs int `yaml:"cache_hit_delay_ms"`
	} `yaml:"limits"`
}

func main() {
	// Load configuration
	config, err := loadConfig("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Load .env; the provider key missing is a fatal configuration error,
	// surfaced before any analysis is attempted.
	_ = godotenv.Load()
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		log.Fatal("GEMINI_API_KEY is not set; analysis cannot run without provider credentials")
	}

	// Ensure directories exist
	if err := cleanup.EnsureTempDirExists(config.Storage.TempDir); err != nil {
		log.Fatalf("Failed to create temp directory: %v", err)
	}
	if err := os.MkdirAll(config.Storage.OutputDir, 0755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	// Custom logger setup
	logBuffer := &LogBuffer{
		lines: make([]string, 0, 1000),
	}
	multiWriter := io.MultiWriter(os.Stdout, logBuffer)
	log.SetOutput(multiWriter)

	log.Println("Initializing components...")

	// AI provider
	generator, err := analysis.NewGeminiGenerator(context.Background(), apiKey, config.Provider.Model)
	if err != nil {
		log.Fatalf("Failed to initialize provider client: %v", err)
	}
	client := analysis.NewClient(generator)

	// Session cache + optional persisted history
	store := session.NewStore()

	var records *session.RecordStore
	if config.Storage.Database != "" {
		records, err = session.NewRecordStore(config.Storage.Database)
		if err != nil {
			log.Printf("WARNING: session database not available: %v", err)
			log.Println("History will be in-memory only")
			records = nil
		}
	}

	// Warm the cache from persisted history so past sessions survive a
	// restart.
	if records != nil {
		persisted, err := records.List(config.Limits.HistoryLimit)
		if err != nil {
			log.Printf("WARNING: could not load persisted sessions: %v", err)
		} else {
			for i := len(persisted) - 1; i >= 0; i-- {
				store.Put(persisted[i])
			}
			log.Printf("Restored %d sessions from history", len(persisted))
		}
	}

	// Google Drive client (optional - may fail if credentials not set up)
	var driveClient *storage.DriveClient
	if _, err := os.Stat(config.GoogleDrive.CredentialsFile); err == nil {
		driveClient, err = storage.NewDriveClient(
			config.GoogleDrive.CredentialsFile,
			config.GoogleDrive.TokenFile,
			config.GoogleDrive.FolderName,
		)
		if err != nil {
			log.Printf("WARNING: Google Drive not available: %v", err)
			log.Println("Analyses will only be saved locally")
			driveClient = nil
		} else {
			log.Println("Google Drive integration enabled")
		}
	} else {
		log.Println("Google Drive credentials not found - saving locally only")
	}

	// Controller
	ctrlConfig := controller.Config{
		Store:         store,
		Encoder:       audio.NewEncoder(),
		Analyzer:      client,
		Archive:       storage.NewArchive(config.Storage.OutputDir),
		TempDir:       config.Storage.TempDir,
		CacheHitDelay: time.Duration(config.Limits.CacheHitDelayMs) * time.Millisecond,
	}
	if driveClient != nil {
		ctrlConfig.Drive = driveClient
	}
	if records != nil {
		ctrlConfig.Records = records
		defer records.Close()
	}
	ctrl := controller.New(ctrlConfig)

	// Cleanup scheduler
	cleanupScheduler := cleanup.NewScheduler(
		config.Storage.TempDir,
		config.Cleanup.IntervalMinutes,
		config.Cleanup.MaxAgeHours,
	)
	cleanupScheduler.Start()
	defer cleanupScheduler.Stop()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit: config.Limits.MaxFileSizeMB * 1024 * 1024,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	// Initialize handlers
	analyzeHandler := handlers.NewAnalyzeHandler(ctrl, config.Storage.TempDir, config.Limits.MaxFileSizeMB)
	sessionHandler := handlers.NewSessionHandler(ctrl)
	exportHandler := handlers.NewExportHandler(ctrl)
	playerHandler := handlers.NewPlayerHandler(ctrl)

	// Routes
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	app.Post("/analyze", analyzeHandler.Handle)
	app.Get("/state", sessionHandler.State)
	app.Post("/reset", sessionHandler.Reset)
	app.Get("/sessions", sessionHandler.List)
	app.Post("/sessions/load", sessionHandler.Load)
	app.Get("/search", sessionHandler.Search)
	app.Get("/export/transcript.csv", exportHandler.Transcript)
	app.Get("/export/analysis.csv", exportHandler.Analysis)
	app.Get("/audio/:id", playerHandler.Audio)
	app.Post("/seek", playerHandler.Seek)

	// WebSocket route
	app.Get("/ws/player", websocket.New(playerHandler.Handle))

	// Get server logs
	app.Get("/logs", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"logs": logBuffer.GetLogs(),
		})
	})

	// Start server
	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	log.Printf("Server starting on %s", addr)
	log.Println("Endpoints:")
	log.Println("   POST /analyze               - Upload and analyze a call recording")
	log.Println("   GET  /state                 - Current dashboard state")
	log.Println("   POST /reset                 - Return to idle")
	log.Println("   GET  /sessions              - Recent session history")
	log.Println("   POST /sessions/load         - Re-open a past session")
	log.Println("   GET  /search                - Transcript search")
	log.Println("   GET  /export/transcript.csv - Transcript export")
	log.Println("   GET  /export/analysis.csv   - Full analysis export")
	log.Println("   GET  /audio/:id             - Playable audio")
	log.Println("   GET  /ws/player             - Playback sync channel")
	log.Println("   GET  /health                - Health check")

	// Graceful shutdown
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		log.Println("Shutting down gracefully...")
		app.Shutdown()
	}()

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// LogBuffer captures logs in memory
type LogBuffer struct {
	lines []string
	mu    sync.Mutex
}

func (lb *LogBuffer) Write(p []byte) (n int, err error) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	lb.lines = append(lb.lines, string(p))

	// Keep last 1000 lines
	if len(lb.lines) > 1000 {
		lb.lines = lb.lines[len(lb.lines)-1000:]
	}

	return len(p), nil
}

func (lb *LogBuffer) GetLogs() []string {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	logs := make([]string, len(lb.lines))
	copy(logs, lb.lines)
	return logs
}

// loadConfig loads configuration from YAML file
func loadConfig(path string) (*Config, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := yaml.Unmarshal(file, &config); err != nil {
		return nil, err
	}

	return &config, nil
}
