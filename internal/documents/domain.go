package documents

import (
	"io"
	"time"
)

// MaxUploadSize bounds a single uploaded file.
const MaxUploadSize = 25 << 20

// DownloadExpiry is the lifetime of presigned download links.
const DownloadExpiry = 15 * time.Minute

// Categories lists the document kinds offered by the upload form.
func Categories() []string {
	return []string{"Projeto", "Contrato", "Nota fiscal", "Alvará", "Foto", "Relatório", "Outros"}
}

// Document is the metadata row of a stored file.
type Document struct {
	ID          int64
	Title       string `validate:"required,max=200"`
	Category    string `validate:"max=60"`
	StageID     *int64 `validate:"omitempty,gt=0"`
	Filename    string
	ContentType string
	SizeBytes   int64
	ObjectKey   string
	UploadedBy  *int64
	CreatedAt   time.Time
}

// Detail adds the referenced names for listings.
type Detail struct {
	Document
	StageName      string
	UploadedByName string
}

// Upload is the file part of a create request.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Filters narrow the document list.
type Filters struct {
	Category string
	StageID  *int64
	Search   string
}
