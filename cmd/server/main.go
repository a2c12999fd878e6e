package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shreesha345/RudraOne-1/internal/config"
	"github.com/shreesha345/RudraOne-1/internal/httpserver"
	"github.com/shreesha345/RudraOne-1/internal/insight"
	"github.com/shreesha345/RudraOne-1/internal/llm"
	"github.com/shreesha345/RudraOne-1/internal/protocol"
	"github.com/shreesha345/RudraOne-1/internal/recordings"
	"github.com/shreesha345/RudraOne-1/internal/session"
	"github.com/shreesha345/RudraOne-1/internal/speech"
	"github.com/shreesha345/RudraOne-1/internal/storage"
	"github.com/shreesha345/RudraOne-1/internal/training"
	"github.com/shreesha345/RudraOne-1/internal/translate"
)

func main() {
	// Include sub-second precision in all log timestamps
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)

	cfg := config.Load()

	capability := llm.NewClient(cfg.CerebrasKey, cfg.CerebrasModelID)
	insights := insight.NewExtractor(capability)
	tracker := protocol.NewTracker(capability)
	translator := translate.NewService(translate.NewMyMemoryClient())

	var engine speech.Engine
	switch cfg.SpeechEngine {
	case "deepgram":
		if cfg.DeepgramKey != "" {
			engine = speech.NewDeepgramEngine(cfg.DeepgramKey, cfg.DeepgramModel)
		}
	default:
		if cfg.ElevenLabsKey != "" {
			engine = speech.NewElevenLabsEngine(cfg.ElevenLabsKey)
		}
	}
	if engine == nil {
		log.Println("speech engine disabled; dispatcher audio to caller will be skipped")
	}

	var lister httpserver.Lister
	if cfg.TwilioAccountSID != "" && cfg.TwilioAuthToken != "" {
		var recStorage recordings.Storage
		if cfg.SupabaseURL != "" {
			sb, err := storage.NewSupabase(storage.Config{
				URL:            cfg.SupabaseURL,
				ServiceRoleKey: cfg.SupabaseKey,
				Bucket:         cfg.SupabaseBucket,
			})
			if err != nil {
				log.Printf("supabase disabled: %v", err)
			} else {
				recStorage = sb
			}
		}
		lister = recordings.NewService(cfg.TwilioAccountSID, cfg.TwilioAuthToken, recStorage)
	}

	var trainer *training.Service
	if scenarios, err := training.LoadScenarios(cfg.ScenariosFile); err != nil {
		log.Printf("training disabled: %v", err)
	} else {
		trainer = training.NewService(capability, scenarios)
		log.Printf("training enabled with %d scenarios", len(scenarios))
	}

	manager := session.NewManager(session.Factory{
		DuplexURL:          cfg.DuplexURL,
		DispatcherLanguage: cfg.DispatcherLanguage,
		Translator:         translator,
		Insights:           insights,
		Tracker:            tracker,
		Engine:             engine,
		OnDisplay: func(callerID, speaker, text string) {
			log.Printf("[%s] %s: %s", callerID, speaker, text)
		},
	})
	defer manager.Shutdown()

	srv := httpserver.New(manager, insights, tracker, lister, trainer, cfg.DispatcherLanguage)

	server := &http.Server{
		Addr:              cfg.HTTPAddress,
		Handler:           srv.Echo,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Printf("server listening on %s", cfg.HTTPAddress)
		serverErrors <- server.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	case sig := <-sigChan:
		log.Printf("shutdown signal received: %v", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = server.Close()
	}
}
