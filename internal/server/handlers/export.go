package handlers

import (
	"bytes"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/resumeforge/resumeforge/internal/errors"
	"github.com/resumeforge/resumeforge/internal/metrics"
	"github.com/resumeforge/resumeforge/internal/render"
	"github.com/resumeforge/resumeforge/internal/resume"
)

// ExportRequest is the body of POST /api/export/{format}.
type ExportRequest struct {
	PersonalInfo resume.PersonalInfo `json:"personalInfo"`
	Resume       *resume.Resume      `json:"resume"`
}

// ExportHandler renders a tailored resume as a downloadable document.
// Rendering is local, so it is not rate limited.
type ExportHandler struct {
	MaxBodyBytes int64
	// Creator is written into PDF metadata.
	Creator string
}

func (h *ExportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	format, err := render.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		respondWithError(w, r, apperrors.WrapInvalidInput(r.Context(), err, "Unsupported export format."))
		return
	}

	var body ExportRequest
	if env := decodeJSONBody(w, r, h.MaxBodyBytes, &body); env != nil {
		respondWithError(w, r, env)
		return
	}
	if body.Resume == nil {
		respondWithError(w, r, apperrors.NewInvalidInputError("Missing resume."))
		return
	}
	body.Resume.Normalize()
	body.PersonalInfo.Normalize()

	renderer, err := render.For(format)
	if err != nil {
		respondWithError(w, r, apperrors.WrapInvalidInput(r.Context(), err, "Unsupported export format."))
		return
	}
	if pdf, ok := renderer.(*render.PDFRenderer); ok {
		pdf.Creator = h.Creator
	}

	doc := render.Document{Info: body.PersonalInfo, Resume: body.Resume}
	start := time.Now()
	var buf bytes.Buffer
	if err := renderer.Render(&buf, doc); err != nil {
		metrics.RecordExport(string(format), false, time.Since(start))
		respondWithError(w, r, apperrors.WrapInternal(r.Context(), err, "Failed to render document."))
		return
	}
	metrics.RecordExport(string(format), true, time.Since(start))

	w.Header().Set("Content-Type", renderer.ContentType())
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": render.Filename(renderer, doc),
	}))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
