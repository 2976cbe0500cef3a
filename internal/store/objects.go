package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"presentersplit/models"
)

// Object keys within the media bucket, matching what the upstream
// transcription and transcoding steps produce.
const (
	transcriptKeyFormat = "videos/%s/LongVideoTranscript.json"
	sourceVideoFormat   = "videos/%s/LONG_RAW.mp4"
	outputKeyFormat     = "videos/%s/LongVideoOutput/presenter%d"
)

// ObjectStore reads and writes Supabase storage objects over the plain
// storage HTTP API.
type ObjectStore struct {
	baseURL string
	apiKey  string
	bucket  string
	http    *http.Client
	log     *logrus.Logger
}

// NewObjectStore creates an ObjectStore for one bucket.
func NewObjectStore(supabaseURL, serviceKey, bucket string, log *logrus.Logger) *ObjectStore {
	return &ObjectStore{
		baseURL: supabaseURL,
		apiKey:  serviceKey,
		bucket:  bucket,
		http:    &http.Client{},
		log:     log,
	}
}

// Download fetches one object from the bucket.
func (o *ObjectStore) Download(ctx context.Context, key string) ([]byte, error) {
	url := fmt.Sprintf("%s/storage/v1/object/%s/%s", o.baseURL, o.bucket, key)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create download request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("download %s: status %d: %s", key, resp.StatusCode, body)
	}

	return io.ReadAll(resp.Body)
}

// Upload writes one object into the bucket.
func (o *ObjectStore) Upload(ctx context.Context, key string, contentType string, data []byte) error {
	url := fmt.Sprintf("%s/storage/v1/object/%s/%s", o.baseURL, o.bucket, key)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	req.Header.Set("Content-Type", contentType)

	resp, err := o.http.Do(req)
	if err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("upload %s: status %d: %s", key, resp.StatusCode, body)
	}

	o.log.WithField("key", key).Info("Uploaded object")
	return nil
}

// DownloadTranscript fetches and parses the diarization transcript of one
// edit.
func (o *ObjectStore) DownloadTranscript(ctx context.Context, editID uuid.UUID) (*models.Transcript, error) {
	data, err := o.Download(ctx, TranscriptKey(editID))
	if err != nil {
		return nil, err
	}

	var transcript models.Transcript
	if err := json.Unmarshal(data, &transcript); err != nil {
		return nil, fmt.Errorf("parse transcript for edit %s: %w", editID, err)
	}
	return &transcript, nil
}

// TranscriptKey returns the object key of an edit's diarization transcript.
func TranscriptKey(editID uuid.UUID) string {
	return fmt.Sprintf(transcriptKeyFormat, editID)
}

// SourceVideoKey returns the object key of an edit's raw recording.
func SourceVideoKey(editID uuid.UUID) string {
	return fmt.Sprintf(sourceVideoFormat, editID)
}

// OutputKey returns the destination key prefix for one presenter's cut.
func OutputKey(editID uuid.UUID, presenterNumber int) string {
	return fmt.Sprintf(outputKeyFormat, editID, presenterNumber)
}
