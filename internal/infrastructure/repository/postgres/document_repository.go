package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/lexicon-legal/lexicon/internal/core/domain"
)

type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *DocumentRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082301)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	filename TEXT NOT NULL,
	media_type TEXT NOT NULL,
	storage_path TEXT NOT NULL,
	expert_name TEXT,
	document_type TEXT,
	document_date TEXT,
	case_name TEXT,
	key_findings JSONB NOT NULL DEFAULT '[]'::jsonb,
	expert_credentials JSONB NOT NULL DEFAULT '[]'::jsonb,
	status TEXT NOT NULL,
	error_message TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status);
CREATE INDEX IF NOT EXISTS idx_documents_expert_name ON documents(expert_name);
CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents(created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	findingsJSON, credentialsJSON, err := marshalMetadataLists(doc.Metadata)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO documents (
	id, filename, media_type, storage_path, expert_name, document_type, document_date, case_name,
	key_findings, expert_credentials, status, error_message, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
`,
		doc.ID, doc.Filename, string(doc.MediaType), doc.StoragePath,
		doc.Metadata.ExpertName, string(doc.Metadata.DocumentType), doc.Metadata.DocumentDate, doc.Metadata.CaseName,
		findingsJSON, credentialsJSON, string(doc.Status), doc.Error, doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, filename, media_type, storage_path, expert_name, document_type, document_date, case_name,
	key_findings, expert_credentials, status, error_message, created_at, updated_at
FROM documents
WHERE id = $1
`, id)

	var doc domain.Document
	var mediaType, status, docType string
	var findingsRaw, credentialsRaw []byte

	err := row.Scan(
		&doc.ID, &doc.Filename, &mediaType, &doc.StoragePath,
		&doc.Metadata.ExpertName, &docType, &doc.Metadata.DocumentDate, &doc.Metadata.CaseName,
		&findingsRaw, &credentialsRaw, &status, &doc.Error, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", fmt.Errorf("id %s", id))
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}

	if err := json.Unmarshal(findingsRaw, &doc.Metadata.KeyFindings); err != nil {
		return nil, fmt.Errorf("unmarshal key findings: %w", err)
	}
	if err := json.Unmarshal(credentialsRaw, &doc.Metadata.ExpertCredentials); err != nil {
		return nil, fmt.Errorf("unmarshal credentials: %w", err)
	}
	doc.MediaType = domain.MediaType(mediaType)
	doc.Status = domain.DocumentStatus(status)
	doc.Metadata.DocumentType = domain.DocumentType(docType)
	return &doc, nil
}

func (r *DocumentRepository) UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE documents
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	return requireRowAffected(res, "update document status", id)
}

func (r *DocumentRepository) SaveMetadata(ctx context.Context, id string, meta domain.DocumentMetadata) error {
	findingsJSON, credentialsJSON, err := marshalMetadataLists(meta)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
UPDATE documents
SET expert_name = $2, document_type = $3, document_date = $4, case_name = $5,
	key_findings = $6, expert_credentials = $7, updated_at = $8
WHERE id = $1
`, id, meta.ExpertName, string(meta.DocumentType), meta.DocumentDate, meta.CaseName,
		findingsJSON, credentialsJSON, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save document metadata: %w", err)
	}
	return requireRowAffected(res, "save document metadata", id)
}

func requireRowAffected(res sql.Result, op, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrDocumentNotFound, op, fmt.Errorf("id %s", id))
	}
	return nil
}

func marshalMetadataLists(meta domain.DocumentMetadata) ([]byte, []byte, error) {
	meta = meta.Normalize()
	findingsJSON, err := json.Marshal(meta.KeyFindings)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal key findings: %w", err)
	}
	credentialsJSON, err := json.Marshal(meta.ExpertCredentials)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal credentials: %w", err)
	}
	return findingsJSON, credentialsJSON, nil
}
