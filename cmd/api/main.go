package main

import (
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/ThiagoRGoveia/progress-reports.git/internal/columns"
	"github.com/ThiagoRGoveia/progress-reports.git/internal/config"
	"github.com/ThiagoRGoveia/progress-reports.git/internal/ingestion"
	"github.com/ThiagoRGoveia/progress-reports.git/internal/render"
	"github.com/ThiagoRGoveia/progress-reports.git/internal/reports"
	"github.com/ThiagoRGoveia/progress-reports.git/internal/server"
	"github.com/ThiagoRGoveia/progress-reports.git/internal/session"
)

func loadSynonyms(path string) (*columns.SynonymTable, error) {
	if path == "" {
		return columns.Default()
	}
	return columns.LoadFile(path)
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: could not load .env file: %v", err)
	}

	cfg, err := config.New()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))

	synonyms, err := loadSynonyms(cfg.ColumnSynonymsFile)
	if err != nil {
		log.Fatalf("Failed to load column synonyms: %v", err)
	}

	ingestionService := ingestion.NewIngestionService(synonyms, ingestion.IngestionConfig{
		NumParserWorkers: cfg.NumParserWorkers,
	}, logger)

	reportService := reports.NewReportService(
		reports.Setup{ChannelSize: cfg.ResultsChannelSize},
		reports.NewAsyncWorker(logger),
		reports.ReportServiceConfig{NumReportWorkers: cfg.NumReportWorkers},
		logger,
	)

	service := server.NewService(
		ingestionService,
		reportService,
		render.NewXLSXRenderer(logger),
		session.NewStore(),
		cfg.MaxUploadBytes(),
		logger,
	)

	router := server.SetupRoutes(service, server.RouterOptions{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: cfg.AllowCredentials,
	})

	log.Printf("Server starting on port %s", cfg.APIPort)
	if err := http.ListenAndServe(fmt.Sprintf(":%s", cfg.APIPort), router); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
