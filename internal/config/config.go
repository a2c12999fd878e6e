package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	HTTPAddress string
	DuplexURL   string

	CerebrasKey     string
	CerebrasModelID string

	ElevenLabsKey string
	DeepgramKey   string
	DeepgramModel string
	SpeechEngine  string

	DispatcherLanguage string

	ScenariosFile string

	TwilioAccountSID string
	TwilioAuthToken  string

	SupabaseURL    string
	SupabaseKey    string
	SupabaseBucket string
}

// Load reads environment variables and returns Config with sane defaults.
func Load() Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file")
	}

	addr := os.Getenv("HTTP_ADDRESS")
	if addr == "" {
		addr = ":8080"
	}

	duplexURL := os.Getenv("DUPLEX_URL")
	if duplexURL == "" {
		log.Println("Warning: DUPLEX_URL not set - call streaming will not connect")
	}

	cerebrasKey := os.Getenv("CEREBRAS_API_KEY")
	cerebrasModel := os.Getenv("CEREBRAS_MODEL_ID")
	if cerebrasModel == "" {
		cerebrasModel = "gpt-oss-120b"
	}
	if cerebrasKey == "" {
		log.Println("Warning: CEREBRAS_API_KEY not set - insight extraction will not work")
	}

	elevenKey := os.Getenv("ELEVENLABS_API_KEY")
	deepgramKey := os.Getenv("DEEPGRAM_API_KEY")
	engine := os.Getenv("SPEECH_ENGINE")
	if engine == "" {
		engine = "elevenlabs"
	}
	if elevenKey == "" && deepgramKey == "" {
		log.Println("Warning: no speech engine key set - dispatcher speech to caller disabled")
	}

	deepgramModel := os.Getenv("DEEPGRAM_TTS_MODEL")
	if deepgramModel == "" {
		deepgramModel = "aura-2-thalia-en"
	}

	dispatcherLang := os.Getenv("DISPATCHER_LANGUAGE")
	if dispatcherLang == "" {
		dispatcherLang = "en"
	}

	scenariosFile := os.Getenv("SCENARIOS_FILE")
	if scenariosFile == "" {
		scenariosFile = "911_calls.json"
	}

	log.Printf("config: HTTP_ADDRESS=%s", addr)
	return Config{
		HTTPAddress:        addr,
		DuplexURL:          duplexURL,
		CerebrasKey:        cerebrasKey,
		CerebrasModelID:    cerebrasModel,
		ElevenLabsKey:      elevenKey,
		DeepgramKey:        deepgramKey,
		DeepgramModel:      deepgramModel,
		SpeechEngine:       engine,
		DispatcherLanguage: dispatcherLang,
		ScenariosFile:      scenariosFile,
		TwilioAccountSID:   os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:    os.Getenv("TWILIO_AUTH_TOKEN"),
		SupabaseURL:        os.Getenv("SUPABASE_URL"),
		SupabaseKey:        os.Getenv("SUPABASE_SERVICE_ROLE_KEY"),
		SupabaseBucket:     os.Getenv("SUPABASE_BUCKET"),
	}
}
