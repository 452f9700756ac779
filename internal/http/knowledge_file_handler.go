package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/encanta/encanta/internal/domain"
)

// KnowledgeFileGateway adds presigned uploads to the knowledge file resource
type KnowledgeFileGateway interface {
	ResourceGateway[domain.KnowledgeFile, domain.CreateKnowledgeFileRequest, domain.KnowledgeFilePatch]
	UploadURL(ctx context.Context, req *domain.UploadURLRequest) domain.ActionResult[*domain.UploadTarget]
}

type KnowledgeFileHandler struct {
	*ResourceHandler[domain.KnowledgeFile, domain.CreateKnowledgeFileRequest, domain.KnowledgeFilePatch]
	service KnowledgeFileGateway
}

func NewKnowledgeFileHandler(service KnowledgeFileGateway) *KnowledgeFileHandler {
	return &KnowledgeFileHandler{
		ResourceHandler: NewResourceHandler[domain.KnowledgeFile, domain.CreateKnowledgeFileRequest, domain.KnowledgeFilePatch](service, "workspace_id"),
		service:         service,
	}
}

func (h *KnowledgeFileHandler) RegisterRoutes(r chi.Router) {
	r.Post("/upload-url", h.UploadURL)
	h.ResourceHandler.RegisterRoutes(r)
}

func (h *KnowledgeFileHandler) UploadURL(w http.ResponseWriter, r *http.Request) {
	var req domain.UploadURLRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	writeResult(w, http.StatusOK, h.service.UploadURL(r.Context(), &req))
}
