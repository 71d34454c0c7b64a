package handler

import (
	"net/http"

	"speak_score/internal/app/service"
	"speak_score/internal/common"

	"github.com/go-chi/chi/v5"
)

// maxUploadBytes caps one attempt recording at 32 MiB.
const maxUploadBytes = 32 << 20

type UploadHandler struct {
	uploadService *service.UploadService
}

func NewUploadHandler(us *service.UploadService) *UploadHandler {
	return &UploadHandler{uploadService: us}
}

func (h *UploadHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.upload) // POST /upload
}

func (h *UploadHandler) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid multipart form: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Missing form file 'file': "+err.Error())
		return
	}
	defer file.Close()

	fileID, err := h.uploadService.Upload(r.Context(), header.Filename, file, header.Size)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}

	common.RespondWithJSON(w, http.StatusOK, service.UploadResponse{Status: "ok", FileID: fileID})
}
