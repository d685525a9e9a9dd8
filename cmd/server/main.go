package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"flashmind/internal/api"
	"flashmind/internal/auth"
	"flashmind/internal/config"
	"flashmind/internal/db"
	"flashmind/internal/extract"
	"flashmind/internal/ocr"
	"flashmind/internal/quiz"
	"flashmind/internal/services"
)

func main() {
	cfg := config.Load()

	conn, err := db.Open(cfg.Database)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer conn.Close()

	var engine ocr.Engine
	switch cfg.OCREngine {
	case "vision":
		engine = ocr.NewVision(cfg.VisionKey, cfg.VisionEndpoint, cfg.VisionModel)
	case "tesseract":
		engine = ocr.NewTesseract(cfg.OCRLanguage)
	default:
		log.Fatalf("unknown OCR engine %q", cfg.OCREngine)
	}
	if err := engine.Available(); err != nil {
		log.Fatalf("OCR engine %q unavailable: %v", cfg.OCREngine, err)
	}

	extractCfg := extract.DefaultConfig()
	extractCfg.Jitter = cfg.ShuffleCards
	if len(cfg.DomainTerms) > 0 {
		extractCfg.DomainTerms = cfg.DomainTerms
	}
	extractor := extract.NewService(extractCfg, engine)

	checker, err := quiz.NewChecker(cfg.SimilarityThreshold, cfg.OverlapThreshold)
	if err != nil {
		log.Fatalf("answer checker: %v", err)
	}

	tokens, err := auth.NewTokenManager(cfg.SessionSecret, cfg.TokenTTL)
	if err != nil {
		log.Fatalf("session tokens: %v", err)
	}

	userService := services.NewUserService(conn)
	setService := services.NewSetService(conn)
	flashcardService := services.NewFlashcardService(conn)
	documentService := services.NewDocumentService(conn, cfg.UploadDir)
	ingestionService := services.NewIngestionService(documentService, extractor, setService, flashcardService)

	server := api.NewServer(
		userService,
		setService,
		flashcardService,
		documentService,
		ingestionService,
		checker,
		tokens,
	)

	mux := http.NewServeMux()

	staticFS := http.FileServer(http.Dir("./static"))
	mux.Handle("/static/", http.StripPrefix("/static/", staticFS))

	mux.Handle("/api", server.Handler())
	mux.Handle("/api/", server.Handler())

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("listening on :%s", port)

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server failed: %v", err)
	}
}
