package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/attendly/faceclock/internal/domain"
)

type IdentityRepository struct {
	pool PgxPool
}

func NewIdentityRepository(pool PgxPool) *IdentityRepository {
	return &IdentityRepository{pool: pool}
}

// ListEnrolled returns every enrolled identity with its embedding. This feeds
// the in-memory embedding cache, so it selects everything in one pass.
func (r *IdentityRepository) ListEnrolled(ctx context.Context) ([]domain.EnrolledIdentity, error) {
	query := `
		SELECT f.employee_id, e.display_name, e.department, f.photo_ref, f.embedding, f.enrolled_at, f.updated_at
		FROM enrolled_faces f
		INNER JOIN employees e ON e.id = f.employee_id
		ORDER BY f.employee_id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list enrolled: %w", err)
	}
	defer rows.Close()

	var identities []domain.EnrolledIdentity
	for rows.Next() {
		var identity domain.EnrolledIdentity
		var embedding pgvector.Vector

		if err := rows.Scan(
			&identity.EmployeeID,
			&identity.DisplayName,
			&identity.Department,
			&identity.PhotoRef,
			&embedding,
			&identity.EnrolledAt,
			&identity.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan enrolled identity: %w", err)
		}

		identity.Embedding = vectorToFloat64(embedding)
		identities = append(identities, identity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list enrolled: %w", err)
	}

	return identities, nil
}

func (r *IdentityRepository) GetByEmployeeID(ctx context.Context, employeeID int64) (*domain.EnrolledIdentity, error) {
	query := `
		SELECT f.employee_id, e.display_name, e.department, f.photo_ref, f.embedding, f.enrolled_at, f.updated_at
		FROM enrolled_faces f
		INNER JOIN employees e ON e.id = f.employee_id
		WHERE f.employee_id = $1
	`

	var identity domain.EnrolledIdentity
	var embedding pgvector.Vector

	err := r.pool.QueryRow(ctx, query, employeeID).Scan(
		&identity.EmployeeID,
		&identity.DisplayName,
		&identity.Department,
		&identity.PhotoRef,
		&embedding,
		&identity.EnrolledAt,
		&identity.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrEmployeeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get enrolled identity: %w", err)
	}

	identity.Embedding = vectorToFloat64(embedding)
	return &identity, nil
}

// Enroll upserts the face row and flips the employee's enrollment flag in one
// transaction, so a failure on either side leaves no half-enrolled state.
func (r *IdentityRepository) Enroll(ctx context.Context, identity *domain.EnrolledIdentity) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin enroll: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	upsert := `
		INSERT INTO enrolled_faces (employee_id, embedding, photo_ref, enrolled_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (employee_id) DO UPDATE
		SET embedding = EXCLUDED.embedding, photo_ref = EXCLUDED.photo_ref, updated_at = NOW()
		RETURNING enrolled_at, updated_at
	`
	err = tx.QueryRow(ctx, upsert,
		identity.EmployeeID,
		float64ToVector(identity.Embedding),
		identity.PhotoRef,
	).Scan(&identity.EnrolledAt, &identity.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert enrolled face: %w", err)
	}

	flag, err := tx.Exec(ctx, `UPDATE employees SET face_enrolled = true, updated_at = NOW() WHERE id = $1`, identity.EmployeeID)
	if err != nil {
		return fmt.Errorf("mark employee enrolled: %w", err)
	}
	if flag.RowsAffected() == 0 {
		return domain.ErrEmployeeNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit enroll: %w", err)
	}
	return nil
}

// Delete removes the face row and clears the enrollment flag.
func (r *IdentityRepository) Delete(ctx context.Context, employeeID int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	result, err := tx.Exec(ctx, `DELETE FROM enrolled_faces WHERE employee_id = $1`, employeeID)
	if err != nil {
		return fmt.Errorf("delete enrolled face: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrEmployeeNotFound
	}

	if _, err := tx.Exec(ctx, `UPDATE employees SET face_enrolled = false, updated_at = NOW() WHERE id = $1`, employeeID); err != nil {
		return fmt.Errorf("clear enrollment flag: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}
	return nil
}

func float64ToVector(embedding []float64) pgvector.Vector {
	floats := make([]float32, len(embedding))
	for i, v := range embedding {
		floats[i] = float32(v)
	}
	return pgvector.NewVector(floats)
}

func vectorToFloat64(v pgvector.Vector) []float64 {
	slice := v.Slice()
	if slice == nil {
		return nil
	}
	out := make([]float64, len(slice))
	for i, f := range slice {
		out[i] = float64(f)
	}
	return out
}
