package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/quotagate/quotagate/internal/core/domain/document"
	"github.com/quotagate/quotagate/internal/core/ports"
	"github.com/quotagate/quotagate/internal/infrastructure/db"
)

// documentRepository implements the collaborator DocumentStore on Postgres.
// Payloads live in a JSONB column; Patch merges fields server-side so a
// concurrent patch never clobbers unrelated keys.
type documentRepository struct {
	db     *db.Database
	logger *logrus.Logger
}

func NewDocumentRepository(database *db.Database, logger *logrus.Logger) ports.DocumentStore {
	return &documentRepository{db: database, logger: logger}
}

func (r *documentRepository) Get(ctx context.Context, kind string, id uuid.UUID) (*document.Document, error) {
	row := r.db.DB.QueryRowContext(ctx, `
		SELECT id, tenant_id, kind, data, created_at, updated_at
		FROM documents WHERE kind = $1 AND id = $2`, kind, id)
	doc, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (r *documentRepository) SelectByTenant(ctx context.Context, kind string, tenantID uuid.UUID) ([]*document.Document, error) {
	rows, err := r.db.DB.QueryContext(ctx, `
		SELECT id, tenant_id, kind, data, created_at, updated_at
		FROM documents WHERE kind = $1 AND tenant_id = $2
		ORDER BY created_at`, kind, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*document.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (r *documentRepository) Insert(ctx context.Context, doc *document.Document) error {
	data, err := json.Marshal(doc.Data)
	if err != nil {
		return fmt.Errorf("encode document payload: %w", err)
	}
	_, err = r.db.DB.ExecContext(ctx, `
		INSERT INTO documents (id, tenant_id, kind, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		doc.ID, doc.TenantID, doc.Kind, data, doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"kind": doc.Kind, "tenant_id": doc.TenantID}).WithError(err).Error("db: failed to insert document")
		}
		return err
	}
	return nil
}

func (r *documentRepository) Patch(ctx context.Context, kind string, id uuid.UUID, fields map[string]any) error {
	patch, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode document patch: %w", err)
	}
	res, err := r.db.DB.ExecContext(ctx, `
		UPDATE documents SET data = data || $3::jsonb, updated_at = NOW()
		WHERE kind = $1 AND id = $2`, kind, id, patch)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *documentRepository) Delete(ctx context.Context, kind string, id uuid.UUID) error {
	res, err := r.db.DB.ExecContext(ctx, `DELETE FROM documents WHERE kind = $1 AND id = $2`, kind, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*document.Document, error) {
	doc := &document.Document{}
	var data []byte
	if err := row.Scan(&doc.ID, &doc.TenantID, &doc.Kind, &data, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		return nil, err
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &doc.Data); err != nil {
			return nil, fmt.Errorf("decode document payload: %w", err)
		}
	}
	if doc.Data == nil {
		doc.Data = map[string]any{}
	}
	return doc, nil
}
