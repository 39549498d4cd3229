package titlecard

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/richhabits/backend/internal/models"
)

type fakeUploader struct {
	orgID string
	body  []byte
	url   string
}

func (f *fakeUploader) UploadTitleCard(_ context.Context, orgID string, body io.Reader, _ int64) (string, error) {
	f.orgID = orgID
	f.body, _ = io.ReadAll(body)
	return f.url, nil
}

func brandOrg() *models.Organization {
	logo := "https://cdn.example.com/logo.png"
	p, s := "#112233", "#445566"
	return &models.Organization{
		ID:             uuid.New(),
		Name:           "Westview High",
		LogoURL:        &logo,
		BrandPrimary:   &p,
		BrandSecondary: &s,
	}
}

func TestGenerateUploadsRenderedImage(t *testing.T) {
	org := brandOrg()
	png := []byte("\x89PNG fake image bytes")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, org.ID.String(), req["organizationId"])
		assert.Equal(t, "#112233", req["brandPrimary"])
		w.Header().Set("Content-Type", "image/png")
		w.Write(png)
	}))
	defer srv.Close()

	up := &fakeUploader{url: "https://cdn.example.com/title-cards/out.png"}
	gen := NewGenerator(srv.URL, 5*time.Second, up, zaptest.NewLogger(t))

	url, err := gen.Generate(context.Background(), org)
	require.NoError(t, err)
	assert.Equal(t, up.url, url)
	assert.Equal(t, org.ID.String(), up.orgID)
	assert.Equal(t, png, up.body)
}

func TestGenerateRejectsNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	gen := NewGenerator(srv.URL, 5*time.Second, &fakeUploader{}, zaptest.NewLogger(t))
	_, err := gen.Generate(context.Background(), brandOrg())
	require.Error(t, err)
}

func TestGenerateRejectsEmptyImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	gen := NewGenerator(srv.URL, 5*time.Second, &fakeUploader{}, zaptest.NewLogger(t))
	_, err := gen.Generate(context.Background(), brandOrg())
	require.Error(t, err)
}
