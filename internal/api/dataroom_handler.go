package api

import (
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/ajharbinger/dealscope/internal/errors"
	"github.com/ajharbinger/dealscope/internal/services"
)

// DataRoomHandler handles financial CSV uploads
type DataRoomHandler struct {
	dataRoom services.DataRoomService
}

// NewDataRoomHandler creates a new data room handler
func NewDataRoomHandler(dataRoom services.DataRoomService) *DataRoomHandler {
	return &DataRoomHandler{dataRoom: dataRoom}
}

// Upload accepts a multipart form with one CSV per category part. Every file
// part is handed to the service, which reports unrecognised names.
func (h *DataRoomHandler) Upload(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		respondError(c, apperrors.InvalidInput("Expected a multipart form upload", err))
		return
	}
	if len(form.File) == 0 {
		respondError(c, apperrors.ValidationError("No CSV files provided", nil))
		return
	}

	parts := make(map[string]io.Reader, len(form.File))
	var opened []multipart.File
	defer func() {
		for _, f := range opened {
			f.Close()
		}
	}()

	for name, headers := range form.File {
		if len(headers) == 0 {
			continue
		}
		f, err := headers[0].Open()
		if err != nil {
			respondError(c, apperrors.InvalidInput("Could not read "+name+" file", err))
			return
		}
		opened = append(opened, f)
		parts[name] = f
	}

	resp, err := h.dataRoom.Upload(c.Request.Context(), user, parts)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// List returns the caller's previous uploads
func (h *DataRoomHandler) List(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	uploads, err := h.dataRoom.List(c.Request.Context(), user, listFilters(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"uploads": uploads})
}
