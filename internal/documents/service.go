package documents

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/obra-dashboard/obra/internal/lookups"
	"github.com/obra-dashboard/obra/internal/platform/storage"
	"github.com/obra-dashboard/obra/internal/shared"
)

var fieldMessages = map[string]string{
	"Title":    "Título é obrigatório (até 200 caracteres)",
	"Category": "Categoria muito longa",
	"StageID":  "Etapa inválida",
}

var (
	// ErrFileRequired is reported when the upload has no content.
	ErrFileRequired = shared.FieldError{Field: "file", Message: "Selecione um arquivo"}
	// ErrFileTooLarge is reported above MaxUploadSize.
	ErrFileTooLarge = shared.FieldError{Field: "file", Message: "Arquivo maior que 25 MB"}
)

type Service struct {
	repo     Repository
	store    storage.Storage
	lookups  lookups.Source
	logger   *slog.Logger
	audit    shared.AuditPort
	validate *validator.Validate
	newKey   func(filename string) string
}

func NewService(repo Repository, store storage.Storage, src lookups.Source, logger *slog.Logger) *Service {
	return &Service{repo: repo, store: store, lookups: src, logger: logger, audit: shared.NopAudit{}, validate: validator.New(), newKey: ObjectKey}
}

// WithAudit records uploads and deletions in the audit log.
func (s *Service) WithAudit(audit shared.AuditPort) *Service {
	if audit != nil {
		s.audit = audit
	}
	return s
}

// ObjectKey places a file under documents/<uuid>/<filename>.
func ObjectKey(filename string) string {
	return path.Join("documents", uuid.NewString(), filename)
}

func (s *Service) List(ctx context.Context, filters Filters) ([]Detail, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Document, error) {
	if id <= 0 {
		return Document{}, shared.ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

// Stages lists the stage options of the upload form.
func (s *Service) Stages(ctx context.Context) ([]shared.Option, error) {
	return s.lookups.Stages(ctx)
}

// Upload stores the file and records its metadata. The object is removed
// again when the row cannot be written.
func (s *Service) Upload(ctx context.Context, doc Document, file Upload, actorID int64) (Document, error) {
	doc.Title = strings.TrimSpace(doc.Title)
	doc.Category = strings.TrimSpace(doc.Category)
	doc.Filename = SanitizeFilename(file.Filename)
	if doc.Title == "" {
		doc.Title = strings.TrimSuffix(doc.Filename, filepath.Ext(doc.Filename))
	}
	if err := s.validate.Struct(doc); err != nil {
		return Document{}, shared.FromValidator(err, fieldMessages)
	}
	if file.Body == nil || file.Size == 0 {
		return Document{}, ErrFileRequired
	}
	if file.Size > MaxUploadSize {
		return Document{}, ErrFileTooLarge
	}

	doc.ContentType = contentType(file.ContentType, doc.Filename)
	doc.SizeBytes = file.Size
	doc.ObjectKey = s.newKey(doc.Filename)
	if actorID > 0 {
		doc.UploadedBy = &actorID
	}

	if _, err := s.store.Put(ctx, doc.ObjectKey, file.Body, storage.PutObjectOptions{
		Size:        file.Size,
		ContentType: doc.ContentType,
		Metadata:    map[string]string{"title": doc.Title},
	}); err != nil {
		return Document{}, fmt.Errorf("documents: store object: %w", err)
	}

	created, err := s.repo.Create(ctx, doc)
	if err != nil {
		if delErr := s.store.Delete(ctx, doc.ObjectKey); delErr != nil && s.logger != nil {
			s.logger.Warn("orphan document object", slog.String("key", doc.ObjectKey), slog.Any("error", delErr))
		}
		return Document{}, err
	}
	s.record(ctx, actorID, "document.upload", created.ID, map[string]any{
		"title":    created.Title,
		"filename": created.Filename,
		"size":     created.SizeBytes,
	})
	return created, nil
}

// DownloadURL returns a presigned link valid for DownloadExpiry.
func (s *Service) DownloadURL(ctx context.Context, id int64) (string, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return s.store.PresignGet(ctx, doc.ObjectKey, DownloadExpiry, doc.Filename)
}

// Delete removes the stored object and then the metadata row.
func (s *Service) Delete(ctx context.Context, id, actorID int64) error {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, doc.ObjectKey); err != nil {
		return fmt.Errorf("documents: delete object: %w", err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, actorID, "document.delete", id, map[string]any{
		"title":    doc.Title,
		"filename": doc.Filename,
	})
	return nil
}

func (s *Service) record(ctx context.Context, actorID int64, action string, id int64, meta map[string]any) {
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "document",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
	})
	if err != nil && s.logger != nil {
		s.logger.Warn("audit document", slog.Any("error", err), slog.String("action", action))
	}
}

// SanitizeFilename keeps the base name of an uploaded file and drops
// characters that would break object keys or headers.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(strings.TrimSpace(name))
	name = strings.Map(func(r rune) rune {
		switch {
		case r < 0x20, r == '"', r == '/', r == '?', r == '#', r == '%':
			return '_'
		}
		return r
	}, name)
	if name == "" || name == "." || name == ".." {
		return "arquivo"
	}
	return name
}

func contentType(declared, filename string) string {
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); byExt != "" {
		return byExt
	}
	return "application/octet-stream"
}
