package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"normas/internal/logger"
	"normas/internal/model"
	"normas/internal/storage"
)

// PresentationMode tells the client how to render a document.
type PresentationMode string

const (
	// ModeEmbedded renders the PDF inline.
	ModeEmbedded PresentationMode = "embedded"
	// ModeEmpty shows a placeholder; there is nothing to render.
	ModeEmpty PresentationMode = "empty"
)

// Presentation is everything a client needs to display a document.
type Presentation struct {
	Mode         PresentationMode `json:"mode"`
	Document     model.Document   `json:"document"`
	URL          string           `json:"url,omitempty"`
	DownloadName string           `json:"download_name,omitempty"`
	LastUpdated  time.Time        `json:"last_updated"`
}

// Attachment describes a streamed download.
type Attachment struct {
	Name        string
	ContentType string
	Size        int64
}

// Viewer resolves where a document's PDF lives and streams it to readers.
type Viewer struct {
	store  storage.Storage
	client *http.Client
	log    *logger.Logger
}

var _ DocumentViewer = (*Viewer)(nil)

// NewViewer constructs a Viewer. A nil client gets a traced client with the given timeout (0 means none).
func NewViewer(store storage.Storage, client *http.Client, timeout time.Duration, log *logger.Logger) *Viewer {
	if client == nil {
		client = &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   timeout,
		}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Viewer{store: store, client: client, log: log.With("viewer")}
}

// Present builds the presentation for doc. It performs no network call.
func (v *Viewer) Present(doc model.Document) Presentation {
	p := Presentation{Mode: ModeEmpty, Document: doc, LastUpdated: doc.LastUpdated()}
	if u := v.sourceURL(doc); u != "" {
		p.Mode = ModeEmbedded
		p.URL = u
		p.DownloadName = DownloadName(doc)
	}
	return p
}

// Download opens the document's PDF. Uploaded binaries come from the object store; linked ones are fetched.
func (v *Viewer) Download(ctx context.Context, doc model.Document) (io.ReadCloser, Attachment, error) {
	att := Attachment{Name: DownloadName(doc), ContentType: pdfContentType, Size: -1}

	if doc.HasUpload() {
		rc, info, err := v.store.Get(ctx, doc.PDFPath)
		if err != nil {
			v.log.Error("viewer_download_failed", err, map[string]any{"document_id": doc.ID, "pdf_path": doc.PDFPath})
			return nil, att, &RemoteError{Op: "download", Err: err}
		}
		if info.ContentType != "" {
			att.ContentType = info.ContentType
		}
		att.Size = info.Size
		return rc, att, nil
	}

	if doc.PDFURL == "" {
		return nil, att, ErrNoDocument
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, doc.PDFURL, nil)
	if err != nil {
		return nil, att, &RemoteError{Op: "download", Err: err}
	}
	resp, err := v.client.Do(req)
	if err != nil {
		v.log.Error("viewer_download_failed", err, map[string]any{"document_id": doc.ID, "url": doc.PDFURL})
		return nil, att, &RemoteError{Op: "download", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		err := fmt.Errorf("unexpected status %d", resp.StatusCode)
		v.log.Error("viewer_download_failed", err, map[string]any{"document_id": doc.ID, "url": doc.PDFURL})
		return nil, att, &RemoteError{Op: "download", Err: err}
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		att.ContentType = ct
	}
	att.Size = resp.ContentLength
	return resp.Body, att, nil
}

func (v *Viewer) sourceURL(doc model.Document) string {
	if doc.HasUpload() {
		return v.store.PublicURL(doc.PDFPath)
	}
	return doc.PDFURL
}

// DownloadName is the suggested file name for a document: its title with a .pdf extension.
func DownloadName(doc model.Document) string {
	name := strings.NewReplacer("/", "-", "\\", "-", "\"", "'").Replace(strings.TrimSpace(doc.Title))
	if name == "" {
		name = doc.ID
	}
	return name + ".pdf"
}
