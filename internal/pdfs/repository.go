package pdfs

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/docvault/docvault/internal/shared"
)

// UploaderInfo is the display data joined onto PDF responses.
type UploaderInfo struct {
	Username  string
	FirstRole string
	Found     bool
}

// RepositoryPort defines data access for pdf records.
type RepositoryPort interface {
	Insert(ctx context.Context, title, filename string, uploadedBy int64) (PDF, error)
	List(ctx context.Context) ([]PDF, error)
	Get(ctx context.Context, id int64) (PDF, error)
	UpdateTitle(ctx context.Context, id int64, title string) (PDF, error)
	Delete(ctx context.Context, id int64) error
	Uploader(ctx context.Context, userID int64) (UploaderInfo, error)
	ExistsByFilename(ctx context.Context, filename string) (bool, error)
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert stores a new pdf record.
func (r *Repository) Insert(ctx context.Context, title, filename string, uploadedBy int64) (PDF, error) {
	return r.scan(r.pool.QueryRow(ctx, `
		INSERT INTO pdfs (title, filename, uploaded_by)
		VALUES ($1, $2, $3)
		RETURNING id, title, filename, COALESCE(uploaded_by, 0), created_at`, title, filename, uploadedBy))
}

// List returns all pdf records ordered by id.
func (r *Repository) List(ctx context.Context) ([]PDF, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title, filename, COALESCE(uploaded_by, 0), created_at FROM pdfs ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []PDF
	for rows.Next() {
		var p PDF
		if err := rows.Scan(&p.ID, &p.Title, &p.Filename, &p.UploadedBy, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Get fetches one record by id.
func (r *Repository) Get(ctx context.Context, id int64) (PDF, error) {
	return r.scan(r.pool.QueryRow(ctx,
		`SELECT id, title, filename, COALESCE(uploaded_by, 0), created_at FROM pdfs WHERE id = $1`, id))
}

// UpdateTitle replaces the title of an existing record.
func (r *Repository) UpdateTitle(ctx context.Context, id int64, title string) (PDF, error) {
	return r.scan(r.pool.QueryRow(ctx, `
		UPDATE pdfs SET title = $2
		WHERE id = $1
		RETURNING id, title, filename, COALESCE(uploaded_by, 0), created_at`, id, title))
}

// Delete removes a record by id.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM pdfs WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Uploader returns the uploader's username and first role name. "First" is
// the role with the lowest id, a stable tie-break over what is otherwise an
// unordered set.
func (r *Repository) Uploader(ctx context.Context, userID int64) (UploaderInfo, error) {
	info := UploaderInfo{}
	err := r.pool.QueryRow(ctx, `SELECT username FROM users WHERE id = $1`, userID).Scan(&info.Username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return info, nil
		}
		return info, err
	}
	info.Found = true

	err = r.pool.QueryRow(ctx, `
		SELECT r.name
		FROM roles r
		JOIN user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = $1
		ORDER BY r.id
		LIMIT 1`, userID).Scan(&info.FirstRole)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return info, err
	}
	return info, nil
}

// ExistsByFilename reports whether any record references the storage key.
func (r *Repository) ExistsByFilename(ctx context.Context, filename string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM pdfs WHERE filename = $1)`, filename).Scan(&exists)
	return exists, err
}

func (r *Repository) scan(row pgx.Row) (PDF, error) {
	var p PDF
	err := row.Scan(&p.ID, &p.Title, &p.Filename, &p.UploadedBy, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PDF{}, shared.ErrNotFound
		}
		return PDF{}, err
	}
	return p, nil
}

var _ RepositoryPort = (*Repository)(nil)
