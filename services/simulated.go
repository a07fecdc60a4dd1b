package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"qwen-chat/models"
)

const (
	simulatedImageURL    = "https://picsum.photos/400/300"
	simulatedVideoURL    = "https://example.com/video.mp4"
	simulatedCode        = `console.log("Example code");`
	simulatedDocumentURL = "https://example.com/doc.pdf"
)

// SimulatedBackend answers every request with canned content after a fixed delay.
// Uploads are kept in a BlobStore and never leave the process.
type SimulatedBackend struct {
	delay time.Duration
	blobs *BlobStore
}

func NewSimulatedBackend(delay time.Duration, blobs *BlobStore) *SimulatedBackend {
	return &SimulatedBackend{delay: delay, blobs: blobs}
}

func (b *SimulatedBackend) Complete(ctx context.Context, c Completion) (*models.Response, error) {
	if err := sleep(ctx, b.delay); err != nil {
		return nil, err
	}

	name := string(c.Action)
	resp := &models.Response{
		Text: fmt.Sprintf("Processed \"%s\"\n\nHere's what I found...", c.Prompt),
	}
	if strings.Contains(name, "image") {
		resp.Images = []string{simulatedImageURL}
	}
	if strings.Contains(name, "video") {
		resp.Videos = []string{simulatedVideoURL}
	}
	if c.Action == models.ActionCode {
		resp.Code = simulatedCode
	}
	if c.Action == models.ActionArtifacts {
		resp.Artifacts = []models.Artifact{
			{"type": "document", "url": simulatedDocumentURL},
		}
	}
	return resp, nil
}

func (b *SimulatedBackend) Upload(ctx context.Context, file models.File) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := b.blobs.Put(file)
	return BlobURL(id), nil
}

func (b *SimulatedBackend) Ping(context.Context) error {
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
