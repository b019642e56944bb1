package model

import "time"

// Document is a catalogued technical document (a "norma") with an optional linked or uploaded PDF.
// This is a pure domain model with no database-specific dependencies or tags.
type Document struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Category    Category  `json:"category"`
	Description string    `json:"description,omitempty"`
	PDFURL      string    `json:"pdf_url,omitempty"`
	PDFPath     string    `json:"pdf_path,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// LastUpdated is the timestamp shown to readers: the last update, or the creation time.
func (d Document) LastUpdated() time.Time {
	if d.UpdatedAt.IsZero() {
		return d.CreatedAt
	}
	return d.UpdatedAt
}

// HasUpload reports whether the document owns a binary in the object store.
func (d Document) HasUpload() bool {
	return d.PDFPath != ""
}

// DocumentPatch carries a partial update. Nil fields are left unchanged.
type DocumentPatch struct {
	Title       *string   `json:"title,omitempty"`
	Category    *Category `json:"category,omitempty"`
	Description *string   `json:"description,omitempty"`
	PDFURL      *string   `json:"pdf_url,omitempty"`
	PDFPath     *string   `json:"pdf_path,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p DocumentPatch) Empty() bool {
	return p.Title == nil && p.Category == nil && p.Description == nil && p.PDFURL == nil && p.PDFPath == nil
}

// Apply merges the patch into d and returns the result.
func (p DocumentPatch) Apply(d Document) Document {
	if p.Title != nil {
		d.Title = *p.Title
	}
	if p.Category != nil {
		d.Category = *p.Category
	}
	if p.Description != nil {
		d.Description = *p.Description
	}
	if p.PDFURL != nil {
		d.PDFURL = *p.PDFURL
	}
	if p.PDFPath != nil {
		d.PDFPath = *p.PDFPath
	}
	return d
}
