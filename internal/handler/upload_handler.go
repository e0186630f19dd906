package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/landingkit/internal/service"
	"github.com/landingkit/internal/storage"
)

// multipartOverhead leaves room for boundaries and headers around the file part.
const multipartOverhead = 1 << 20

// UploadAsset 处理编辑器的图片上传请求
func (a *API) UploadAsset(c *gin.Context) {
	if a.assets == nil {
		respondError(c, http.StatusServiceUnavailable, "Uploads are not configured")
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, a.assets.MaxBytes()+multipartOverhead)

	file, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, http.StatusRequestEntityTooLarge, "Image exceeds the upload size limit")
			return
		}
		// EasyMDE-style clients send the part as "image".
		if file, err = c.FormFile("image"); err != nil {
			respondError(c, http.StatusBadRequest, "No image file found in the request")
			return
		}
	}

	src, err := file.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, "Could not read the uploaded file")
		return
	}
	defer src.Close()

	asset, err := a.assets.Upload(c.Request.Context(), src)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotAnImage):
			respondError(c, http.StatusBadRequest, "Only PNG, JPEG, GIF or WebP images can be uploaded")
		case errors.Is(err, service.ErrAssetEmpty):
			respondError(c, http.StatusBadRequest, "The uploaded file is empty")
		case errors.Is(err, service.ErrAssetTooLarge):
			respondError(c, http.StatusRequestEntityTooLarge, "Image exceeds the upload size limit")
		case errors.Is(err, storage.ErrUploadFailed):
			internalError(c, "Failed to store the image", err)
		default:
			internalError(c, "Upload failed", err)
		}
		return
	}

	c.JSON(http.StatusCreated, asset)
}
