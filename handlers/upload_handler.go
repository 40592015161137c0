package handlers

import (
	"net/url"
	"strconv"
	"time"

	"github.com/anjiri1684/field_booking/apperrors"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/gofiber/fiber/v2"
)

// GenerateUploadSignature signs a direct browser upload of a field image
// into the configured Cloudinary folder.
func (h *Handler) GenerateUploadSignature(c *fiber.Ctx) error {
	if h.cfg.CloudinaryURL == "" {
		return apperrors.Internal("Image uploads are not configured", nil)
	}
	cld, err := cloudinary.NewFromURL(h.cfg.CloudinaryURL)
	if err != nil {
		return apperrors.Internal("Failed to initialize Cloudinary", err)
	}
	parsed, err := url.Parse(h.cfg.CloudinaryURL)
	if err != nil {
		return apperrors.Internal("Failed to parse Cloudinary URL", err)
	}
	secret, _ := parsed.User.Password()

	params, err := api.StructToParams(uploader.UploadParams{Folder: h.cfg.CloudinaryFolder})
	if err != nil {
		return apperrors.Internal("Failed to prepare signature params", err)
	}
	timestamp := time.Now().Unix()
	params.Set("timestamp", strconv.FormatInt(timestamp, 10))

	signature, err := api.SignParameters(params, secret)
	if err != nil {
		return apperrors.Internal("Failed to sign upload params", err)
	}

	return ok(c, "Upload signature generated", fiber.Map{
		"signature":  signature,
		"timestamp":  timestamp,
		"api_key":    cld.Config.Cloud.APIKey,
		"cloud_name": cld.Config.Cloud.CloudName,
		"folder":     h.cfg.CloudinaryFolder,
	})
}
