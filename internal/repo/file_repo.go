package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/filekeep/server/internal/model"
)

// FileRepo defines the interface for file metadata repository operations.
// All lookups are scoped to the owning user.
type FileRepo interface {
	Create(ctx context.Context, f model.File) (model.File, error)
	GetByIDAndUser(ctx context.Context, id int64, userID string) (model.File, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.File, error)
	CountByUser(ctx context.Context, userID string) (int64, error)
	Update(ctx context.Context, f model.File) (model.File, error)
	Delete(ctx context.Context, id int64, userID string) error
}

type fileRepo struct {
	db *sql.DB
}

// NewFileRepo creates a new FileRepo instance
func NewFileRepo(db *sql.DB) FileRepo {
	return &fileRepo{db: db}
}

const fileColumns = `id, user_id, filename, original_name, extension, mime_type, size, upload_date`

func scanFile(row *sql.Row) (model.File, error) {
	var f model.File
	err := row.Scan(
		&f.ID,
		&f.UserID,
		&f.Filename,
		&f.OriginalName,
		&f.Extension,
		&f.MimeType,
		&f.Size,
		&f.UploadDate,
	)
	return f, err
}

// Create inserts a new file metadata row
func (r *fileRepo) Create(ctx context.Context, f model.File) (model.File, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO files (user_id, filename, original_name, extension, mime_type, size)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+fileColumns+`
	`, f.UserID, f.Filename, f.OriginalName, f.Extension, f.MimeType, f.Size)
	created, err := scanFile(row)
	if err != nil {
		return model.File{}, fmt.Errorf("insert file: %w", err)
	}
	return created, nil
}

// GetByIDAndUser retrieves a file record owned by the given user
func (r *fileRepo) GetByIDAndUser(ctx context.Context, id int64, userID string) (model.File, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+fileColumns+` FROM files WHERE id = $1 AND user_id = $2
	`, id, userID)
	f, err := scanFile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.File{}, ErrNotFound
		}
		return model.File{}, fmt.Errorf("query file: %w", err)
	}
	return f, nil
}

// ListByUser returns a page of the user's files, newest upload first
func (r *fileRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.File, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+fileColumns+` FROM files
		WHERE user_id = $1
		ORDER BY upload_date DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	files := make([]model.File, 0, limit)
	for rows.Next() {
		var f model.File
		if err := rows.Scan(
			&f.ID,
			&f.UserID,
			&f.Filename,
			&f.OriginalName,
			&f.Extension,
			&f.MimeType,
			&f.Size,
			&f.UploadDate,
		); err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate files: %w", err)
	}
	return files, nil
}

// CountByUser returns the total number of files the user owns
func (r *fileRepo) CountByUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM files WHERE user_id = $1
	`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count files: %w", err)
	}
	return count, nil
}

// Update replaces the metadata of an existing file record, resetting its
// upload date to now
func (r *fileRepo) Update(ctx context.Context, f model.File) (model.File, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE files
		SET filename = $3, original_name = $4, extension = $5, mime_type = $6, size = $7, upload_date = now()
		WHERE id = $1 AND user_id = $2
		RETURNING `+fileColumns+`
	`, f.ID, f.UserID, f.Filename, f.OriginalName, f.Extension, f.MimeType, f.Size)
	updated, err := scanFile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.File{}, ErrNotFound
		}
		return model.File{}, fmt.Errorf("update file: %w", err)
	}
	return updated, nil
}

// Delete removes a file record owned by the given user
func (r *fileRepo) Delete(ctx context.Context, id int64, userID string) error {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM files WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
