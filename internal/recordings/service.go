package recordings

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// Storage abstracts the archive backend for downloaded recordings.
type Storage interface {
	Upload(key, contentType string, data []byte) error
}

// Recording is the subset of Twilio recording metadata the API exposes.
type Recording struct {
	SID      string `json:"sid"`
	CallSID  string `json:"callSid"`
	Duration string `json:"duration"`
	Created  string `json:"created"`
	MediaURL string `json:"mediaUrl"`
}

// Service starts, lists and archives Twilio call recordings.
type Service struct {
	accountSID string
	authToken  string
	client     *twilio.RestClient
	httpClient *http.Client
	storage    Storage

	// mediaBase is overridable in tests; production uses the Twilio API host.
	mediaBase string
}

func NewService(accountSID, authToken string, storage Storage) *Service {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &Service{
		accountSID: accountSID,
		authToken:  authToken,
		client:     client,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		storage:    storage,
		mediaBase:  "https://api.twilio.com",
	}
}

// Start begins a continuous recording on an in-progress call.
func (s *Service) Start(callSID, callbackURL string) error {
	if s.accountSID == "" || s.authToken == "" {
		return fmt.Errorf("missing Twilio credentials: TWILIO_ACCOUNT_SID and TWILIO_AUTH_TOKEN required")
	}
	params := &twilioApi.CreateCallRecordingParams{}
	params.SetRecordingStatusCallback(callbackURL)
	params.SetRecordingStatusCallbackMethod("POST")
	params.SetRecordingStatusCallbackEvent([]string{"completed"})
	params.SetRecordingChannels("mono")
	params.SetRecordingTrack("both")

	if _, err := s.client.Api.CreateCallRecording(callSID, params); err != nil {
		return fmt.Errorf("start recording for %s: %w", callSID, err)
	}
	return nil
}

// ListByDate returns recordings created on the given day (YYYY-MM-DD).
func (s *Service) ListByDate(date string) ([]Recording, error) {
	params := &twilioApi.ListRecordingParams{}
	if date != "" {
		day, err := time.Parse("2006-01-02", date)
		if err != nil {
			return nil, fmt.Errorf("list recordings: invalid date %q: %w", date, err)
		}
		params.SetDateCreated(day)
	}
	items, err := s.client.Api.ListRecording(params)
	if err != nil {
		return nil, fmt.Errorf("list recordings: %w", err)
	}
	out := make([]Recording, 0, len(items))
	for _, r := range items {
		rec := Recording{}
		if r.Sid != nil {
			rec.SID = *r.Sid
		}
		if r.CallSid != nil {
			rec.CallSID = *r.CallSid
		}
		if r.Duration != nil {
			rec.Duration = *r.Duration
		}
		if r.DateCreated != nil {
			rec.Created = *r.DateCreated
		}
		if r.Uri != nil {
			rec.MediaURL = s.mediaBase + strings.TrimSuffix(*r.Uri, ".json") + ".wav"
		}
		out = append(out, rec)
	}
	return out, nil
}

// Fetch downloads one recording's WAV audio with basic auth.
func (s *Service) Fetch(ctx context.Context, mediaURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(s.accountSID, s.authToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download recording: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		preview, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("download recording failed: status %d: %s", resp.StatusCode, string(preview))
	}
	return io.ReadAll(resp.Body)
}

// Archive downloads a recording and uploads it into storage.
func (s *Service) Archive(ctx context.Context, mediaURL, filename string) error {
	data, err := s.Fetch(ctx, mediaURL)
	if err != nil {
		return err
	}
	if err := s.storage.Upload(filename, "audio/wav", data); err != nil {
		return fmt.Errorf("archive recording %s: %w", filename, err)
	}
	return nil
}

// ArchiveTranscript persists a finalized call transcript next to the
// call's recordings.
func (s *Service) ArchiveTranscript(callerID string, transcript []byte) error {
	key := fmt.Sprintf("transcripts/%s_%d.json", callerID, time.Now().Unix())
	if err := s.storage.Upload(key, "application/json", transcript); err != nil {
		return fmt.Errorf("archive transcript for %s: %w", callerID, err)
	}
	return nil
}
