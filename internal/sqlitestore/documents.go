package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/rollcall/internal/entity"
	"github.com/roach88/rollcall/internal/record"
)

var (
	// ErrDocumentNotFound is returned when no document has the given name.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrCorruptDocument is returned when a stored body no longer matches
	// its digest.
	ErrCorruptDocument = errors.New("document digest mismatch")

	// ErrInvalidName is returned for an empty document name.
	ErrInvalidName = errors.New("document name must not be empty")
)

// CollectionInfo summarizes one collection of a saved document.
type CollectionInfo struct {
	Type   entity.Type `json:"entityType"`
	Count  int         `json:"count"`
	Digest string      `json:"digest"`
}

// DocumentInfo describes a saved document without its records.
type DocumentInfo struct {
	Name        string           `json:"name"`
	Version     int64            `json:"version"`
	LastUpdated time.Time        `json:"lastUpdated"`
	SavedAt     time.Time        `json:"savedAt"`
	Digest      string           `json:"digest"`
	Collections []CollectionInfo `json:"collections"`
}

// Count returns the number of records saved for t.
func (d DocumentInfo) Count(t entity.Type) int {
	for _, c := range d.Collections {
		if c.Type == t {
			return c.Count
		}
	}
	return 0
}

// SaveDocument stores doc under name, replacing any previous version.
// The document row and its collection summaries are written in one
// transaction.
func (s *Store) SaveDocument(ctx context.Context, name string, doc *entity.Store, savedAt time.Time) error {
	if name == "" {
		return ErrInvalidName
	}
	body, digest, err := encodeBody(doc)
	if err != nil {
		return fmt.Errorf("save document %s: %w", name, err)
	}
	summaries, err := summarize(doc)
	if err != nil {
		return fmt.Errorf("save document %s: %w", name, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save document %s: begin: %w", name, err)
	}
	defer tx.Rollback() // no-op after commit

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (name, version, last_updated, digest, body, saved_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			version = excluded.version,
			last_updated = excluded.last_updated,
			digest = excluded.digest,
			body = excluded.body,
			saved_at = excluded.saved_at
	`,
		name,
		doc.Version(),
		entity.FormatTimestamp(doc.LastUpdated()),
		digest,
		body,
		entity.FormatTimestamp(savedAt),
	)
	if err != nil {
		return fmt.Errorf("save document %s: %w", name, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM collections WHERE document = ?`, name); err != nil {
		return fmt.Errorf("save document %s: %w", name, err)
	}
	for _, c := range summaries {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO collections (document, entity_type, record_count, digest)
			VALUES (?, ?, ?, ?)
		`, name, string(c.Type), c.Count, c.Digest)
		if err != nil {
			return fmt.Errorf("save document %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save document %s: commit: %w", name, err)
	}
	return nil
}

// LoadDocument returns the document saved under name. The body is checked
// against its digest before decoding.
func (s *Store) LoadDocument(ctx context.Context, name string) (*entity.Store, error) {
	var body, digest string
	err := s.db.QueryRowContext(ctx, `
		SELECT body, digest FROM documents WHERE name = ?
	`, name).Scan(&body, &digest)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("load document %s: %w", name, err)
	}

	if got := record.HashBytes(record.DomainDocument, []byte(body)); got != digest {
		return nil, fmt.Errorf("%w: %s", ErrCorruptDocument, name)
	}
	doc, err := decodeBody(body)
	if err != nil {
		return nil, fmt.Errorf("load document %s: %w", name, err)
	}
	return doc, nil
}

// Describe returns the metadata of the document saved under name.
func (s *Store) Describe(ctx context.Context, name string) (DocumentInfo, error) {
	var info DocumentInfo
	var lastUpdated, savedAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT name, version, last_updated, saved_at, digest
		FROM documents WHERE name = ?
	`, name).Scan(&info.Name, &info.Version, &lastUpdated, &savedAt, &info.Digest)
	if errors.Is(err, sql.ErrNoRows) {
		return DocumentInfo{}, fmt.Errorf("%w: %s", ErrDocumentNotFound, name)
	}
	if err != nil {
		return DocumentInfo{}, fmt.Errorf("describe document %s: %w", name, err)
	}
	if err := parseTimes(&info, lastUpdated, savedAt); err != nil {
		return DocumentInfo{}, fmt.Errorf("describe document %s: %w", name, err)
	}

	info.Collections, err = s.collections(ctx, name)
	if err != nil {
		return DocumentInfo{}, err
	}
	return info, nil
}

// ListDocuments returns every saved document ordered by name.
func (s *Store) ListDocuments(ctx context.Context) ([]DocumentInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, version, last_updated, saved_at, digest
		FROM documents
		ORDER BY name ASC COLLATE BINARY
	`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	var docs []DocumentInfo
	for rows.Next() {
		var info DocumentInfo
		var lastUpdated, savedAt string
		if err := rows.Scan(&info.Name, &info.Version, &lastUpdated, &savedAt, &info.Digest); err != nil {
			rows.Close()
			return nil, fmt.Errorf("list documents: %w", err)
		}
		if err := parseTimes(&info, lastUpdated, savedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("list documents: %w", err)
		}
		docs = append(docs, info)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	// Summaries are read after the cursor is closed: the pool has a single
	// connection.
	for i := range docs {
		docs[i].Collections, err = s.collections(ctx, docs[i].Name)
		if err != nil {
			return nil, err
		}
	}
	return docs, nil
}

// DeleteDocument removes the document and its collection summaries.
func (s *Store) DeleteDocument(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete document %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete document %s: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrDocumentNotFound, name)
	}
	return nil
}

func (s *Store) collections(ctx context.Context, name string) ([]CollectionInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT entity_type, record_count, digest
		FROM collections
		WHERE document = ?
		ORDER BY entity_type ASC COLLATE BINARY
	`, name)
	if err != nil {
		return nil, fmt.Errorf("collections of %s: %w", name, err)
	}
	defer rows.Close()

	out := []CollectionInfo{}
	for rows.Next() {
		var c CollectionInfo
		var t string
		if err := rows.Scan(&t, &c.Count, &c.Digest); err != nil {
			return nil, fmt.Errorf("collections of %s: %w", name, err)
		}
		c.Type = entity.Type(t)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("collections of %s: %w", name, err)
	}
	return out, nil
}

func encodeBody(doc *entity.Store) (body string, digest string, err error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return "", "", fmt.Errorf("encode body: %w", err)
	}
	return string(data), record.HashBytes(record.DomainDocument, data), nil
}

func decodeBody(body string) (*entity.Store, error) {
	doc := entity.Empty()
	if err := json.Unmarshal([]byte(body), doc); err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}
	return doc, nil
}

// summarize lists the document's collections in canonical type order.
func summarize(doc *entity.Store) ([]CollectionInfo, error) {
	var out []CollectionInfo
	for _, t := range doc.Types() {
		objs := doc.Collection(t)
		digest, err := record.CollectionDigest(objs)
		if err != nil {
			return nil, fmt.Errorf("digest %s: %w", t, err)
		}
		out = append(out, CollectionInfo{Type: t, Count: len(objs), Digest: digest})
	}
	return out, nil
}

func parseTimes(info *DocumentInfo, lastUpdated, savedAt string) error {
	var err error
	if info.LastUpdated, err = time.Parse(time.RFC3339Nano, lastUpdated); err != nil {
		return fmt.Errorf("last_updated: %w", err)
	}
	if info.SavedAt, err = time.Parse(time.RFC3339Nano, savedAt); err != nil {
		return fmt.Errorf("saved_at: %w", err)
	}
	return nil
}
