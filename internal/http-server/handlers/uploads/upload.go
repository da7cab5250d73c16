package uploads

import (
	"context"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/jonatasJS/back-end/internal/files"
	resp "github.com/jonatasJS/back-end/internal/lib/api/response"
	"github.com/jonatasJS/back-end/internal/lib/logger/sl"
	"github.com/jonatasJS/back-end/internal/messages"
)

const maxUploadSize = 32 << 20

// Ingester turns a stored upload into a persisted, broadcast message.
type Ingester interface {
	IngestAttachment(ctx context.Context, sender, fileURL string) (messages.Message, error)
}

type UploadsHandler struct {
	Files  files.Store
	Ingest Ingester
	Log    *slog.Logger
}

type UploadResponse struct {
	Nickname string `json:"nickname"`
	File     string `json:"file"`
}

func New(fileStore files.Store, ingest Ingester, log *slog.Logger) *UploadsHandler {
	return &UploadsHandler{Files: fileStore, Ingest: ingest, Log: log}
}

// UploadAudio accepts a multipart form with an "audio" binary and a
// "sender" field, stores the binary and relays it as a message.
func (h *UploadsHandler) UploadAudio() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.uploads.UploadAudio"

		log := h.Log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			log.Error("invalid multipart form", sl.Err(err))
			resp.WriteError(w, r, http.StatusBadRequest, "invalid multipart form")
			return
		}

		sender := r.FormValue("sender")

		file, header, err := r.FormFile("audio")
		if err != nil {
			log.Error("missing audio file", sl.Err(err))
			resp.WriteError(w, r, http.StatusBadRequest, "missing audio file")
			return
		}
		defer file.Close()

		ext := filepath.Ext(header.Filename)
		contentType := header.Header.Get("Content-Type")

		fileURL, err := h.Files.Save(r.Context(), ext, contentType, file)
		if err != nil {
			log.Error("failed to store audio", sl.Err(err))
			resp.WriteError(w, r, http.StatusInternalServerError, "failed to store audio")
			return
		}

		if _, err := h.Ingest.IngestAttachment(r.Context(), sender, fileURL); err != nil {
			log.Error("failed to save audio message", sl.Err(err))
			resp.WriteError(w, r, http.StatusInternalServerError, "failed to save audio message")
			return
		}

		render.JSON(w, r, UploadResponse{
			Nickname: sender,
			File:     fileURL,
		})
	}
}
