package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime"
	"net/url"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"normas/internal/logger"
	"normas/internal/model"
	"normas/internal/storage"
)

// MaxUploadSize is the largest PDF the editor accepts.
const MaxUploadSize int64 = 20 << 20

const pdfContentType = "application/pdf"

// sniffLen is how many leading bytes are inspected to detect the file type.
const sniffLen = 3072

// Draft is the editor's form state. An empty ID means create.
// RemoveFile drops the current upload on edit when no replacement is sent,
// leaving PDFURL as the document's only source.
type Draft struct {
	ID          string         `json:"id,omitempty"`
	Title       string         `json:"title"`
	Category    model.Category `json:"category"`
	Description string         `json:"description,omitempty"`
	PDFURL      string         `json:"pdf_url,omitempty"`
	RemoveFile  bool           `json:"remove_file,omitempty"`
}

// PendingFile is a locally chosen binary awaiting upload.
type PendingFile struct {
	Name        string
	ContentType string
	Size        int64
	Content     io.Reader
}

// Editor validates drafts, uploads pending files and writes the record through the catalog.
// Uploads are never left orphaned by a failed record write: the new object is removed again.
type Editor struct {
	catalog DocumentCatalog
	store   storage.Storage
	log     *logger.Logger
	now     func() time.Time
}

var _ DocumentEditor = (*Editor)(nil)

// NewEditor constructs an Editor.
func NewEditor(catalog DocumentCatalog, store storage.Storage, log *logger.Logger) *Editor {
	if log == nil {
		log = logger.Nop()
	}
	return &Editor{catalog: catalog, store: store, log: log.With("editor"), now: time.Now}
}

// Submit creates or updates a document from draft, uploading file first when present.
// All validation happens before the first network call.
func (e *Editor) Submit(ctx context.Context, draft Draft, file *PendingFile) (*model.Document, error) {
	draft.Title = strings.TrimSpace(draft.Title)
	draft.PDFURL = strings.TrimSpace(draft.PDFURL)
	if err := validateDraft(draft); err != nil {
		return nil, err
	}

	var content io.Reader
	if file != nil {
		r, err := checkFile(file)
		if err != nil {
			return nil, err
		}
		content = r
	}

	var existing model.Document
	if draft.ID != "" {
		doc, ok := e.catalog.Get(draft.ID)
		if !ok {
			return nil, &NotFoundError{ID: draft.ID}
		}
		existing = doc
	}

	var key string
	if content != nil {
		key = storage.NewObjectKey(file.Name, e.now())
		_, err := e.store.Put(ctx, key, content, storage.PutObjectOptions{
			Size:        file.Size,
			ContentType: pdfContentType,
			Metadata:    map[string]string{"original-filename": file.Name},
		})
		if err != nil {
			e.log.Error("editor_upload_failed", err, map[string]any{"key": key})
			return nil, &UploadError{Key: key, Err: err}
		}
		e.log.Info("editor_uploaded", map[string]any{"key": key, "size": file.Size})
	}

	var (
		saved *model.Document
		err   error
	)
	if draft.ID == "" {
		saved, err = e.create(ctx, draft, key)
	} else {
		saved, err = e.update(ctx, draft, existing, key)
	}
	if err != nil {
		if key != "" {
			e.discard(ctx, key, "editor_upload_rolled_back")
		}
		return nil, err
	}

	switch {
	case key != "" && existing.HasUpload() && existing.PDFPath != key:
		e.discard(ctx, existing.PDFPath, "editor_replaced_upload_removed")
	case key == "" && draft.RemoveFile && existing.HasUpload():
		e.discard(ctx, existing.PDFPath, "editor_upload_removed")
	}
	return saved, nil
}

func (e *Editor) create(ctx context.Context, draft Draft, key string) (*model.Document, error) {
	doc := model.Document{
		Title:       draft.Title,
		Category:    draft.Category,
		Description: draft.Description,
		PDFURL:      draft.PDFURL,
	}
	if key != "" {
		doc.PDFPath = key
		doc.PDFURL = e.store.PublicURL(key)
	}
	return e.catalog.Create(ctx, doc)
}

func (e *Editor) update(ctx context.Context, draft Draft, existing model.Document, key string) (*model.Document, error) {
	patch := model.DocumentPatch{
		Title:       &draft.Title,
		Category:    &draft.Category,
		Description: &draft.Description,
		PDFURL:      &draft.PDFURL,
	}
	switch {
	case key != "":
		publicURL := e.store.PublicURL(key)
		patch.PDFURL = &publicURL
		patch.PDFPath = &key
	case draft.RemoveFile && existing.HasUpload():
		none := ""
		patch.PDFPath = &none
		// The form echoes the upload's public URL; it must not outlive the object.
		if draft.PDFURL == existing.PDFURL {
			patch.PDFURL = &none
		}
	}
	return e.catalog.Update(ctx, draft.ID, patch)
}

func (e *Editor) discard(ctx context.Context, key, event string) {
	if err := e.store.Delete(ctx, key); err != nil {
		e.log.Error(event, err, map[string]any{"key": key})
		return
	}
	e.log.Info(event, map[string]any{"key": key})
}

func validateDraft(d Draft) error {
	if err := validateFields(d.Title, d.Category); err != nil {
		return err
	}
	if d.PDFURL != "" {
		u, err := url.ParseRequestURI(d.PDFURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return &ValidationError{Field: "pdf_url", Message: "must be an absolute http(s) URL"}
		}
	}
	return nil
}

// checkFile enforces size and type limits and returns a reader over the complete content.
func checkFile(f *PendingFile) (io.Reader, error) {
	if f.Content == nil {
		return nil, &ValidationError{Field: "file", Message: ErrFileRequired.Error()}
	}
	if f.Size > MaxUploadSize {
		return nil, &ValidationError{Field: "file", Message: "file exceeds the 20 MiB limit"}
	}
	if f.ContentType != "" {
		mediaType, _, err := mime.ParseMediaType(f.ContentType)
		if err != nil || (mediaType != pdfContentType && mediaType != "application/octet-stream") {
			return nil, &ValidationError{Field: "file", Message: "only PDF files are accepted"}
		}
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f.Content, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, &ValidationError{Field: "file", Message: "file could not be read"}
	}
	head = head[:n]
	if !mimetype.Detect(head).Is(pdfContentType) {
		return nil, &ValidationError{Field: "file", Message: "only PDF files are accepted"}
	}
	return io.MultiReader(bytes.NewReader(head), f.Content), nil
}
