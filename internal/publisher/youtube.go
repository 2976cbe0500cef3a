// Package publisher uploads finished presenter cuts to YouTube. It is the
// terminal sink of the pipeline; nothing downstream depends on it.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"presentersplit/models"
)

// categoryPeopleAndBlogs is the YouTube category id stamped on uploads.
const categoryPeopleAndBlogs = "22"

// YouTube uploads videos through the YouTube Data API v3.
type YouTube struct {
	service *youtube.Service
	log     *logrus.Logger
}

// NewYouTube builds a client from an OAuth credentials file and a stored
// token file.
func NewYouTube(ctx context.Context, credentialsFile, tokenFile string, log *logrus.Logger) (*YouTube, error) {
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}

	config, err := google.ConfigFromJSON(b, youtube.YoutubeUploadScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}

	token, err := tokenFromFile(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("read token file: %w", err)
	}

	service, err := youtube.NewService(ctx, option.WithHTTPClient(config.Client(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}

	return &YouTube{service: service, log: log}, nil
}

// Upload pushes the media stream as a private video and returns the hosted
// video id.
func (y *YouTube) Upload(ctx context.Context, output models.Output, media io.Reader) (string, error) {
	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       output.Title,
			Description: output.Description,
			CategoryId:  categoryPeopleAndBlogs,
		},
		Status: &youtube.VideoStatus{PrivacyStatus: "private"},
	}

	call := y.service.Videos.Insert([]string{"snippet", "status"}, video)
	uploaded, err := call.Media(media).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("youtube insert: %w", err)
	}

	y.log.WithFields(logrus.Fields{
		"output_id": output.ID,
		"video_id":  uploaded.Id,
	}).Info("Uploaded video to YouTube")
	return uploaded.Id, nil
}

func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	token := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(token); err != nil {
		return nil, err
	}
	return token, nil
}
