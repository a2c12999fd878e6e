package speech

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestElevenLabs_SynthesizeCollectsStream(t *testing.T) {
	want := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/v1/text-to-speech/") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("xi-api-key") != "key" {
			t.Errorf("missing api key header")
		}
		if got := r.URL.Query().Get("output_format"); got != "pcm_48000" {
			t.Errorf("output_format = %q", got)
		}
		// two writes to exercise stream accumulation
		w.Write(want[:3])
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		w.Write(want[3:])
	}))
	defer srv.Close()

	e := NewElevenLabsEngine("key")
	e.BaseURL = srv.URL
	got, err := e.Synthesize(context.Background(), "hello", "en")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != string(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestElevenLabs_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	e := NewElevenLabsEngine("key")
	e.BaseURL = srv.URL
	if _, err := e.Synthesize(context.Background(), "hello", "en"); err == nil {
		t.Fatalf("expected error on non-2xx status")
	}
}

func TestElevenLabs_MissingKey(t *testing.T) {
	e := NewElevenLabsEngine("")
	if _, err := e.Synthesize(context.Background(), "hello", "en"); err == nil {
		t.Fatalf("expected error for missing key")
	}
}

func TestVoiceFor_FallsBackToEnglish(t *testing.T) {
	if voiceFor("xx") != elevenVoices["en"] {
		t.Fatalf("unknown language should use the English voice")
	}
	if voiceFor("hi") == elevenVoices["en"] {
		t.Fatalf("hindi should map to its own voice")
	}
}

func TestULawChunks_SplitsAtChunkSize(t *testing.T) {
	// 1000 samples of silence at 8kHz -> 1000 ulaw bytes.
	pcm := make([]byte, 2000)
	chunks := ULawChunks(pcm, 800)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	first, err := base64.StdEncoding.DecodeString(chunks[0])
	if err != nil {
		t.Fatalf("chunk not valid base64: %v", err)
	}
	if len(first) != 800 {
		t.Fatalf("expected 800 ulaw bytes in first chunk, got %d", len(first))
	}
	last, _ := base64.StdEncoding.DecodeString(chunks[1])
	if len(last) != 200 {
		t.Fatalf("expected 200 ulaw bytes in last chunk, got %d", len(last))
	}
}

func TestULawChunks_EmptyInput(t *testing.T) {
	if chunks := ULawChunks(nil, 800); len(chunks) != 0 {
		t.Fatalf("expected no chunks for empty input, got %d", len(chunks))
	}
}
