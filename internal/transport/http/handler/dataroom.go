package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"dataroom-chatbot/internal/app"
	"dataroom-chatbot/internal/ingest"
	"dataroom-chatbot/internal/repository"
	"dataroom-chatbot/internal/transport/http/response"
)

type DataroomHandler struct {
	dataroomService *app.DataroomService
	docRepo         *repository.DocumentRepository
}

func NewDataroomHandler(dataroomService *app.DataroomService, docRepo *repository.DocumentRepository) *DataroomHandler {
	return &DataroomHandler{dataroomService: dataroomService, docRepo: docRepo}
}

// Update pulls the configured source and rebuilds the index. A source that
// yields no usable content is not an error from the caller's point of view.
func (h *DataroomHandler) Update(c *gin.Context) {
	result, err := h.dataroomService.RefreshDataroom(c.Request.Context())
	if err != nil {
		switch {
		case errors.Is(err, app.ErrNoContent):
			response.OK(c, gin.H{"message": "no files found in the dataroom"})
		case errors.Is(err, app.ErrNoSource):
			response.Error(c, http.StatusServiceUnavailable, response.CodeInternalServer, err.Error())
		case errors.Is(err, ingest.ErrAcquisition):
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "document acquisition failed")
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "dataroom update failed")
		}
		return
	}

	response.OK(c, result)
}

func (h *DataroomHandler) Status(c *gin.Context) {
	status, err := h.dataroomService.Status(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "dataroom status failed")
		return
	}
	response.OK(c, status)
}

func (h *DataroomHandler) ListDocuments(c *gin.Context) {
	if h.docRepo == nil {
		response.OK(c, []gin.H{})
		return
	}

	documents, err := h.docRepo.ListAll()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list documents failed")
		return
	}

	payload := make([]gin.H, 0, len(documents))
	for _, d := range documents {
		payload = append(payload, gin.H{
			"file_id":       d.FileID,
			"name":          d.Name,
			"mime_type":     d.MimeType,
			"modified_time": d.ModifiedTime,
			"chunk_count":   d.ChunkCount,
		})
	}
	response.OK(c, payload)
}
