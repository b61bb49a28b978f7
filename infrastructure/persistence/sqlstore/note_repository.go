package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"maswada-backend/domain/note"
	appErrors "maswada-backend/pkg/errors"
)

// NoteRepository stores notes in the notes table.
type NoteRepository struct {
	db      *sql.DB
	dialect Dialect
}

// NewNoteRepository wraps an open database.
func NewNoteRepository(db *sql.DB, dialect Dialect) *NoteRepository {
	return &NoteRepository{db: db, dialect: dialect}
}

func (r *NoteRepository) selectColumns() string {
	return r.dialect.idColumn + ", user_id, title, content, summary, created_at, updated_at"
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner) (*note.Note, error) {
	var (
		n       note.Note
		summary sql.NullString
	)
	err := row.Scan(&n.ID, &n.OwnerID, &n.Title, &n.Content, &summary,
		timeColumn{&n.CreatedAt}, timeColumn{&n.UpdatedAt})
	if err != nil {
		return nil, err
	}
	if summary.Valid {
		s := summary.String
		n.Summary = &s
	}
	return &n, nil
}

func nullableSummary(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// ListByOwner returns the owner's notes, most recently updated first.
func (r *NoteRepository) ListByOwner(ctx context.Context, ownerID string) ([]*note.Note, error) {
	query := r.dialect.Rebind(`SELECT ` + r.selectColumns() + ` FROM notes WHERE user_id = ? ORDER BY updated_at DESC`)
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	notes := make([]*note.Note, 0)
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return notes, nil
}

// GetByIDAndOwner returns NotFound unless a row matches both id and owner.
func (r *NoteRepository) GetByIDAndOwner(ctx context.Context, id, ownerID string) (*note.Note, error) {
	query := r.dialect.Rebind(`SELECT ` + r.selectColumns() + ` FROM notes WHERE id = ? AND user_id = ?`)
	n, err := scanNote(r.db.QueryRowContext(ctx, query, id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.NewNotFoundError("Note")
	}
	if err != nil {
		return nil, fmt.Errorf("get note: %w", err)
	}
	return n, nil
}

// Create inserts a new note.
func (r *NoteRepository) Create(ctx context.Context, n *note.Note) error {
	query := r.dialect.Rebind(`INSERT INTO notes (id, user_id, title, content, summary, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, query,
		n.ID, n.OwnerID, n.Title, n.Content, nullableSummary(n.Summary),
		r.dialect.bindTime(n.CreatedAt), r.dialect.bindTime(n.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert note: %w", err)
	}
	return nil
}

// Update overwrites the mutable columns of the owner's note.
func (r *NoteRepository) Update(ctx context.Context, n *note.Note) error {
	query := r.dialect.Rebind(`UPDATE notes SET title = ?, content = ?, summary = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`)
	res, err := r.db.ExecContext(ctx, query,
		n.Title, n.Content, nullableSummary(n.Summary), r.dialect.bindTime(n.UpdatedAt),
		n.ID, n.OwnerID)
	if err != nil {
		return fmt.Errorf("update note: %w", err)
	}
	return requireAffected(res)
}

// Delete removes the owner's note.
func (r *NoteRepository) Delete(ctx context.Context, id, ownerID string) error {
	query := r.dialect.Rebind(`DELETE FROM notes WHERE id = ? AND user_id = ?`)
	res, err := r.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	return requireAffected(res)
}

// Ping verifies the database connection.
func (r *NoteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func requireAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return appErrors.NewNotFoundError("Note")
	}
	return nil
}
