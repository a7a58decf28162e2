package pdfs

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/docvault/docvault/internal/platform/httpx"
	"github.com/docvault/docvault/internal/rbac"
	"github.com/docvault/docvault/internal/shared"
)

// Uploads are buffered to memory up to this size; larger files spill to disk.
const maxUploadMemory = 32 << 20

// Handler manages the document endpoints. Every route declares exactly one
// required permission at the boundary.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbacMW rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbacMW}
}

// MountRoutes registers the document routes, each behind its permission gate.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.rbac.Require(rbac.PermCreate)).Post("/upload", h.upload)
	r.With(h.rbac.Require(rbac.PermRead)).Get("/", h.list)
	r.With(h.rbac.Require(rbac.PermRead)).Get("/{id}", h.get)
	r.With(h.rbac.Require(rbac.PermUpdate)).Put("/{id}", h.update)
	r.With(h.rbac.Require(rbac.PermDelete)).Delete("/{id}", h.delete)
	r.With(h.rbac.Require(rbac.PermRead)).Get("/{id}/download", h.download)
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid multipart form")
		return
	}
	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "title is required")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "file is required")
		return
	}
	defer file.Close()

	caller := shared.IdentityFromContext(r.Context())
	enriched, err := h.service.Upload(r.Context(), caller, title, header.Filename,
		header.Header.Get("Content-Type"), file)
	if err != nil {
		h.logger.Error("upload pdf", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, enriched)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list pdfs", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if out == nil {
		out = []Enriched{}
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid pdf id")
		return
	}
	enriched, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, enriched)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid pdf id")
		return
	}
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		if err := r.ParseForm(); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid form")
			return
		}
	}
	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "title is required")
		return
	}
	enriched, err := h.service.UpdateTitle(r.Context(), id, title)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, enriched)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid pdf id")
		return
	}
	caller := shared.IdentityFromContext(r.Context())
	if err := h.service.Delete(r.Context(), caller, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "PDF deleted successfully"})
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid pdf id")
		return
	}
	rc, filename, err := h.service.Download(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", ContentTypePDF)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("stream pdf", slog.Any("error", err))
	}
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
