// Package titlecard calls an external render service to produce a brand tile
// from an organization's logo and colors, then stores the image in the brand
// bucket. The render service is a black box; only its request/response
// contract is known here.
package titlecard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/richhabits/backend/internal/models"
)

// maxImageSize caps the rendered image accepted from the render service (8MB).
const maxImageSize = 8 * 1024 * 1024

// Uploader stores the rendered image and returns its public URL.
// *storage.S3 satisfies this.
type Uploader interface {
	UploadTitleCard(ctx context.Context, orgID string, body io.Reader, contentLength int64) (string, error)
}

// Generator renders and uploads title cards.
type Generator struct {
	renderURL string
	client    *http.Client
	uploader  Uploader
	logger    *zap.Logger
}

// NewGenerator creates a title-card generator. renderURL is the external
// render endpoint; timeout bounds the whole render call.
func NewGenerator(renderURL string, timeout time.Duration, uploader Uploader, logger *zap.Logger) *Generator {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Generator{
		renderURL: renderURL,
		client:    &http.Client{Timeout: timeout},
		uploader:  uploader,
		logger:    logger,
	}
}

// renderRequest is the payload sent to the render service.
type renderRequest struct {
	OrganizationID string `json:"organizationId"`
	Name           string `json:"name"`
	LogoURL        string `json:"logoUrl"`
	BrandPrimary   string `json:"brandPrimary"`
	BrandSecondary string `json:"brandSecondary"`
}

// Generate renders a title card for the organization and uploads it, returning
// the public asset URL. The caller guarantees logo and both colors are set.
func (g *Generator) Generate(ctx context.Context, org *models.Organization) (string, error) {
	body, err := json.Marshal(renderRequest{
		OrganizationID: org.ID.String(),
		Name:           org.Name,
		LogoURL:        *org.LogoURL,
		BrandPrimary:   *org.BrandPrimary,
		BrandSecondary: *org.BrandSecondary,
	})
	if err != nil {
		return "", fmt.Errorf("marshal render request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.renderURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create render request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "image/png")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("render call: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("render status: %d", resp.StatusCode)
	}

	img, err := io.ReadAll(io.LimitReader(resp.Body, maxImageSize+1))
	if err != nil {
		return "", fmt.Errorf("read render response: %w", err)
	}
	if len(img) == 0 {
		return "", fmt.Errorf("render returned empty image")
	}
	if len(img) > maxImageSize {
		return "", fmt.Errorf("rendered image exceeds %d bytes", maxImageSize)
	}

	url, err := g.uploader.UploadTitleCard(ctx, org.ID.String(), bytes.NewReader(img), int64(len(img)))
	if err != nil {
		return "", fmt.Errorf("upload title card: %w", err)
	}

	g.logger.Info("title card generated",
		zap.String("organization_id", org.ID.String()),
		zap.Int("bytes", len(img)),
	)
	return url, nil
}
