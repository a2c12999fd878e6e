package storage

import (
	"bytes"
	"fmt"

	storage_go "github.com/supabase-community/storage-go"
	"github.com/supabase-community/supabase-go"
)

// Config holds the Supabase project credentials and target bucket.
type Config struct {
	URL            string
	ServiceRoleKey string
	Bucket         string
}

// Supabase stores call artifacts (recordings, transcripts) in a Supabase
// storage bucket.
type Supabase struct {
	client *supabase.Client
	bucket string
}

func NewSupabase(cfg Config) (*Supabase, error) {
	if cfg.URL == "" || cfg.ServiceRoleKey == "" {
		return nil, fmt.Errorf("missing Supabase configuration: SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY required")
	}
	client, err := supabase.NewClient(cfg.URL, cfg.ServiceRoleKey, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("create supabase client: %w", err)
	}
	return &Supabase{client: client, bucket: cfg.Bucket}, nil
}

// Upload writes one object into the bucket with the given content type,
// upserting over any prior version under the same key.
func (s *Supabase) Upload(key, contentType string, data []byte) error {
	upsert := true
	opts := storage_go.FileOptions{ContentType: &contentType, Upsert: &upsert}
	_, err := s.client.Storage.UploadFile(s.bucket, key, bytes.NewReader(data), opts)
	if err != nil {
		return fmt.Errorf("upload %s to supabase: %w", key, err)
	}
	return nil
}
