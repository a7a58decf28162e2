package pdfs

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/docvault/docvault/internal/platform/httpx"
	"github.com/docvault/docvault/internal/rbac"
	"github.com/docvault/docvault/internal/shared"
)

// ContentTypePDF is the only accepted upload content type.
const ContentTypePDF = "application/pdf"

// Domain errors surfaced by the pdf service.
var (
	ErrPDFNotFound       = httpx.Classify(httpx.ErrNotFound, "PDF not found")
	ErrBlobMissing       = httpx.Classify(httpx.ErrNotFound, "File not found on disk")
	ErrNotPDF            = httpx.Classify(httpx.ErrUnsupportedMedia, "Only PDF files are allowed")
	ErrAdminDeleteDenied = httpx.Classify(httpx.ErrForbidden, "Admins are not allowed to delete PDFs")
)

var upper = cases.Upper(language.Und)

// Service implements the document operations.
type Service struct {
	repo   RepositoryPort
	store  BlobStore
	logger *slog.Logger
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, store BlobStore, logger *slog.Logger) *Service {
	return &Service{repo: repo, store: store, logger: logger}
}

// Upload validates the content type, writes the blob under a generated
// name, then inserts the record. The two writes are not atomic: a crash in
// between leaves a record-less blob, which the reconcile job picks up.
func (s *Service) Upload(ctx context.Context, caller *shared.Identity, title, originalName, contentType string, src io.Reader) (Enriched, error) {
	if contentType != ContentTypePDF {
		return Enriched{}, ErrNotPDF
	}
	filename := GenerateFilename(originalName)
	if err := s.store.Save(filename, src); err != nil {
		return Enriched{}, err
	}
	pdf, err := s.repo.Insert(ctx, title, filename, caller.ID)
	if err != nil {
		return Enriched{}, err
	}
	return s.enrich(ctx, pdf)
}

// List returns all documents with uploader display data.
func (s *Service) List(ctx context.Context) ([]Enriched, error) {
	records, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Enriched, 0, len(records))
	for _, pdf := range records {
		enriched, err := s.enrich(ctx, pdf)
		if err != nil {
			return nil, err
		}
		out = append(out, enriched)
	}
	return out, nil
}

// Get returns one document's metadata.
func (s *Service) Get(ctx context.Context, id int64) (Enriched, error) {
	pdf, err := s.repo.Get(ctx, id)
	if err != nil {
		return Enriched{}, notFound(err)
	}
	return s.enrich(ctx, pdf)
}

// UpdateTitle replaces the document title.
func (s *Service) UpdateTitle(ctx context.Context, id int64, title string) (Enriched, error) {
	pdf, err := s.repo.UpdateTitle(ctx, id, title)
	if err != nil {
		return Enriched{}, notFound(err)
	}
	return s.enrich(ctx, pdf)
}

// Delete removes the blob and the record. Callers holding the admin role
// are rejected even when they hold the DELETE permission; this is a
// hardcoded exception, deliberately not modeled as data. Blob and record
// removal are not atomic with each other.
func (s *Service) Delete(ctx context.Context, caller *shared.Identity, id int64) error {
	pdf, err := s.repo.Get(ctx, id)
	if err != nil {
		return notFound(err)
	}
	if caller.HasRole(rbac.RoleAdmin) {
		return ErrAdminDeleteDenied
	}
	if err := s.store.Remove(pdf.Filename); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return notFound(err)
	}
	return nil
}

// Download opens the blob for streaming. A record whose blob is gone from
// storage yields a distinct not-found error.
func (s *Service) Download(ctx context.Context, id int64) (io.ReadCloser, string, error) {
	pdf, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, "", notFound(err)
	}
	if !s.store.Exists(pdf.Filename) {
		return nil, "", ErrBlobMissing
	}
	rc, err := s.store.Open(pdf.Filename)
	if err != nil {
		return nil, "", err
	}
	return rc, pdf.Filename, nil
}

// enrich decorates a record with uploader display data: the username, and
// the first role name uppercased. A role-less uploader shows as USER, a
// deleted uploader as Unknown.
func (s *Service) enrich(ctx context.Context, pdf PDF) (Enriched, error) {
	out := Enriched{
		ID:           pdf.ID,
		Title:        pdf.Title,
		UploadedBy:   pdf.UploadedBy,
		UploaderName: "Unknown",
		UploaderRole: "USER",
	}
	info, err := s.repo.Uploader(ctx, pdf.UploadedBy)
	if err != nil {
		return Enriched{}, err
	}
	if info.Found {
		out.UploaderName = info.Username
		if info.FirstRole != "" {
			out.UploaderRole = upper.String(info.FirstRole)
		}
	}
	return out, nil
}

func notFound(err error) error {
	if errors.Is(err, shared.ErrNotFound) {
		return ErrPDFNotFound
	}
	return err
}
