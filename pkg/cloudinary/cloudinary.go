// Package cloudinary stores uploaded application documents on Cloudinary
// and hands back the secure delivery URL kept in the document ledger.
package cloudinary

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/rs/zerolog"
)

// Config holds the Cloudinary account credentials and the folder
// that receives application documents.
type Config struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// Storage uploads application documents to Cloudinary.
type Storage struct {
	client *cloudinary.Cloudinary
	folder string
	logger zerolog.Logger
	now    func() time.Time
}

// New validates the credentials and builds a document storage client.
func New(cfg Config, logger zerolog.Logger) (*Storage, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("cloudinary credentials are not configured")
	}

	client, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}

	return &Storage{
		client: client,
		folder: strings.Trim(cfg.Folder, "/"),
		logger: logger.With().Str("component", "document_storage").Logger(),
		now:    time.Now,
	}, nil
}

// Upload pushes the document to Cloudinary and returns its secure URL.
// The public ID is derived from the document name so re-uploads of the
// same letter get distinct assets rather than silent overwrites.
func (s *Storage) Upload(ctx context.Context, name string, reader io.Reader) (string, error) {
	overwrite := false
	result, err := s.client.Upload.Upload(ctx, reader, uploader.UploadParams{
		Folder:       s.folder,
		PublicID:     s.documentID(name),
		ResourceType: "auto",
		Overwrite:    api.Bool(overwrite),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload document: %w", err)
	}

	s.logger.Info().
		Str("public_id", result.PublicID).
		Int("bytes", result.Bytes).
		Msg("document stored")

	return result.SecureURL, nil
}

// documentID turns an arbitrary filename into a slug with an upload
// timestamp suffix, keeping assets unique within the folder.
func (s *Storage) documentID(name string) string {
	base := strings.TrimSuffix(name, path.Ext(name))

	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(base) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteByte('-')
			lastDash = true
		}
	}

	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		slug = "document"
	}

	return fmt.Sprintf("%s-%d", slug, s.now().UnixMilli())
}
