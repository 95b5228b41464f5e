package handlers

import (
	"mime/multipart"
	"strconv"

	apperrors "github.com/carecircle/backend/internal/errors"
	"github.com/carecircle/backend/internal/logger"
	"github.com/carecircle/backend/internal/storage"
	"github.com/carecircle/backend/internal/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxImagesPerRequest = 5

func validateImage(file *multipart.FileHeader) error {
	if file.Size > util.MaxImageSize {
		return apperrors.ValidationError("image", "image must be at most "+strconv.Itoa(util.MaxImageSize>>20)+"MB")
	}
	if err := util.ValidateFilename(file.Filename); err != nil {
		return apperrors.ValidationError("image", err.Error())
	}
	if !util.IsAllowedImage(file.Filename, file.Header.Get("Content-Type")) {
		return apperrors.ValidationError("image", "only jpeg, png, gif and webp images are allowed")
	}
	return nil
}

func (h *Handlers) storeImage(c *gin.Context, userID string, file *multipart.FileHeader) (*storage.UploadResult, error) {
	contentType, _ := util.ImageContentType(file.Filename)
	f, err := file.Open()
	if err != nil {
		return nil, apperrors.BadRequest("could not read uploaded file")
	}
	defer f.Close()
	return h.uploader.UploadImage(c.Request.Context(), f, file.Size, file.Filename, contentType, userID)
}

func (h *Handlers) requireUploader(c *gin.Context) bool {
	if h.uploader == nil {
		util.RespondWithError(c, apperrors.ServiceUnavailable("image storage"))
		return false
	}
	return true
}

// UploadImage stores a single image from the "image" form field
// POST /api/v1/upload/image
func (h *Handlers) UploadImage(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok || !h.requireUploader(c) {
		return
	}
	file, err := c.FormFile("image")
	if err != nil {
		util.RespondValidationError(c, "image", "an image file is required")
		return
	}
	if err := validateImage(file); err != nil {
		util.RespondWithError(c, err)
		return
	}
	result, err := h.storeImage(c, user.ID, file)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	util.RespondCreated(c, "image uploaded", gin.H{"file": result})
}

// UploadImages stores up to five images from the "images" form field
// POST /api/v1/upload/images
func (h *Handlers) UploadImages(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok || !h.requireUploader(c) {
		return
	}
	form, err := c.MultipartForm()
	if err != nil {
		util.RespondValidationError(c, "images", "multipart form expected")
		return
	}
	files := form.File["images"]
	if len(files) == 0 {
		util.RespondValidationError(c, "images", "at least one image is required")
		return
	}
	if len(files) > maxImagesPerRequest {
		util.RespondValidationError(c, "images", "at most "+strconv.Itoa(maxImagesPerRequest)+" images per request")
		return
	}
	for _, file := range files {
		if err := validateImage(file); err != nil {
			util.RespondWithError(c, err)
			return
		}
	}

	results := make([]*storage.UploadResult, 0, len(files))
	for _, file := range files {
		result, err := h.storeImage(c, user.ID, file)
		if err != nil {
			// remove what already landed
			for _, done := range results {
				if delErr := h.uploader.DeleteImage(c.Request.Context(), done.Key); delErr != nil {
					logger.Log.Warn("Failed to remove partial upload", zap.String("key", done.Key), zap.Error(delErr))
				}
			}
			util.RespondWithError(c, err)
			return
		}
		results = append(results, result)
	}
	util.RespondCreated(c, "images uploaded", gin.H{"files": results, "count": len(results)})
}

// DeleteUpload removes an image by the fileName returned at upload
// DELETE /api/v1/upload/:fileName
func (h *Handlers) DeleteUpload(c *gin.Context) {
	if _, ok := util.GetUserFromContext(c); !ok || !h.requireUploader(c) {
		return
	}
	key, err := storage.KeyForFileName(c.Param("fileName"))
	if err != nil {
		util.RespondValidationError(c, "fileName", err.Error())
		return
	}
	if err := h.uploader.DeleteImage(c.Request.Context(), key); err != nil {
		util.RespondWithError(c, err)
		return
	}
	util.RespondOK(c, "image deleted", gin.H{"fileName": c.Param("fileName")})
}
