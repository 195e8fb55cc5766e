package storage

import (
	"context"
	"io"
	"log"

	"github.com/ayilmaz/meetspot/config"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

type Cloudinary struct {
	CLD *cloudinary.Cloudinary
}

func NewCloudinary(cfg *config.Config) *Cloudinary {
	cld, err := cloudinary.NewFromParams(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
	if err != nil {
		log.Fatalf("Failed to initialize Cloudinary: %v", err)
	}

	return &Cloudinary{CLD: cld}
}

// UploadAvatar stores an avatar image and returns its public URL.
func (c *Cloudinary) UploadAvatar(ctx context.Context, file io.Reader, userID string) (string, error) {
	resp, err := c.CLD.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder:   "avatars",
		PublicID: userID,
	})
	if err != nil {
		return "", err
	}
	return resp.SecureURL, nil
}

// DeleteAvatar removes the user's uploaded avatar asset.
func (c *Cloudinary) DeleteAvatar(ctx context.Context, userID string) error {
	_, err := c.CLD.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID: "avatars/" + userID,
	})
	return err
}
