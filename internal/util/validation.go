package util

import (
	"errors"
	"path/filepath"
	"strings"
)

// MaxImageSize is the largest accepted upload
const MaxImageSize = 5 << 20

var imageTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// ImageContentType returns the canonical content type for an image filename
// and whether the extension is accepted
func ImageContentType(filename string) (string, bool) {
	ct, ok := imageTypes[strings.ToLower(filepath.Ext(filename))]
	return ct, ok
}

// IsAllowedImage accepts jpeg, png, gif and webp by extension and declared type
func IsAllowedImage(filename, contentType string) bool {
	expected, ok := ImageContentType(filename)
	if !ok {
		return false
	}
	if contentType == "" || contentType == "application/octet-stream" {
		return true
	}
	return strings.EqualFold(strings.Split(contentType, ";")[0], expected)
}

// ValidateFilename rejects empty names, paths and names over 255 characters
func ValidateFilename(filename string) error {
	if filename == "" {
		return errors.New("filename is required")
	}
	if strings.Contains(filename, "/") || strings.Contains(filename, "\\") || strings.Contains(filename, "..") {
		return errors.New("filename cannot contain directory paths")
	}
	if len(filename) > 255 {
		return errors.New("filename too long (max 255 characters)")
	}
	return nil
}
