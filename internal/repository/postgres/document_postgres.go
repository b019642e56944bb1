package postgres

import (
	"context"
	"database/sql"
	"time"

	"normas/internal/model"
	"normas/internal/repository"
)

const documentColumns = `id, title, category, description, pdf_url, pdf_path, created_at, updated_at`

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(s scanner) (*model.Document, error) {
	var (
		d                          model.Document
		category                   string
		description, pdfURL, pPath sql.NullString
	)
	if err := s.Scan(
		&d.ID,
		&d.Title,
		&category,
		&description,
		&pdfURL,
		&pPath,
		&d.CreatedAt,
		&d.UpdatedAt,
	); err != nil {
		return nil, err
	}
	d.Category = model.Category(category)
	d.Description = description.String
	d.PDFURL = pdfURL.String
	d.PDFPath = pPath.String
	return &d, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Create inserts a new document row and returns the stored record.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	const q = `
		INSERT INTO documents (` + documentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + documentColumns
	row := r.db.QueryRowContext(ctx, q,
		doc.ID,
		doc.Title,
		string(doc.Category),
		nullable(doc.Description),
		nullable(doc.PDFURL),
		nullable(doc.PDFPath),
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	return scanDocument(row)
}

// FindByID fetches a single document by its ID.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (*model.Document, error) {
	const q = `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	return scanDocument(r.db.QueryRowContext(ctx, q, id))
}

// List returns all documents ordered by creation time, newest first.
func (r *DocumentPostgres) List(ctx context.Context) ([]model.Document, error) {
	const q = `SELECT ` + documentColumns + ` FROM documents ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Update applies the non-nil patch fields. Absent fields keep their stored value;
// an empty optional field is stored as NULL.
func (r *DocumentPostgres) Update(ctx context.Context, id string, patch model.DocumentPatch, updatedAt time.Time) (*model.Document, error) {
	const q = `
		UPDATE documents SET
			title       = COALESCE($2, title),
			category    = COALESCE($3, category),
			description = CASE WHEN $4 THEN $5 ELSE description END,
			pdf_url     = CASE WHEN $6 THEN $7 ELSE pdf_url END,
			pdf_path    = CASE WHEN $8 THEN $9 ELSE pdf_path END,
			updated_at  = $10
		WHERE id = $1
		RETURNING ` + documentColumns
	var category *string
	if patch.Category != nil {
		s := string(*patch.Category)
		category = &s
	}
	setDesc, desc := optional(patch.Description)
	setURL, pdfURL := optional(patch.PDFURL)
	setPath, pdfPath := optional(patch.PDFPath)
	row := r.db.QueryRowContext(ctx, q,
		id,
		patch.Title,
		category,
		setDesc, desc,
		setURL, pdfURL,
		setPath, pdfPath,
		updatedAt,
	)
	return scanDocument(row)
}

func optional(p *string) (bool, sql.NullString) {
	if p == nil {
		return false, sql.NullString{}
	}
	return true, nullable(*p)
}

// Delete removes a document by ID and returns sql.ErrNoRows when nothing matched.
func (r *DocumentPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM documents WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
