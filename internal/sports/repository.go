package sports

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/richhabits/backend/internal/models"
	"github.com/richhabits/backend/pkg/database"
)

const sportColumns = `id, organization_id, name, salesperson, contact_name, contact_email, contact_phone, created_at, updated_at`

// Repository handles sport persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a sports repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a sport under an organization.
func (r *Repository) Create(ctx context.Context, s *models.Sport) error {
	const q = `INSERT INTO sports (organization_id, name, salesperson, contact_name, contact_email, contact_phone)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, q, s.OrganizationID, s.Name, s.Salesperson, s.ContactName, s.ContactEmail, s.ContactPhone).
		Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	return database.MapError(err)
}

// GetByID returns a sport by id.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Sport, error) {
	q := `SELECT ` + sportColumns + ` FROM sports WHERE id = $1`
	var s models.Sport
	err := r.pool.QueryRow(ctx, q, id).Scan(&s.ID, &s.OrganizationID, &s.Name, &s.Salesperson,
		&s.ContactName, &s.ContactEmail, &s.ContactPhone, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, database.MapError(err)
	}
	return &s, nil
}

// ListByOrganization returns all sports belonging to an organization.
func (r *Repository) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]models.Sport, error) {
	q := `SELECT ` + sportColumns + ` FROM sports WHERE organization_id = $1 ORDER BY name`
	rows, err := r.pool.Query(ctx, q, orgID)
	if err != nil {
		return nil, database.MapError(err)
	}
	defer rows.Close()

	list := make([]models.Sport, 0)
	for rows.Next() {
		var s models.Sport
		if err := rows.Scan(&s.ID, &s.OrganizationID, &s.Name, &s.Salesperson,
			&s.ContactName, &s.ContactEmail, &s.ContactPhone, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, database.MapError(err)
		}
		list = append(list, s)
	}
	return list, database.MapError(rows.Err())
}

// Update applies present fields and returns the updated row.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, name, salesperson, contactName, contactEmail, contactPhone *string) (*models.Sport, error) {
	const q = `UPDATE sports SET
			name = COALESCE($1, name),
			salesperson = COALESCE($2, salesperson),
			contact_name = COALESCE($3, contact_name),
			contact_email = COALESCE($4, contact_email),
			contact_phone = COALESCE($5, contact_phone),
			updated_at = NOW()
		WHERE id = $6
		RETURNING ` + sportColumns
	var s models.Sport
	err := r.pool.QueryRow(ctx, q, name, salesperson, contactName, contactEmail, contactPhone, id).
		Scan(&s.ID, &s.OrganizationID, &s.Name, &s.Salesperson,
			&s.ContactName, &s.ContactEmail, &s.ContactPhone, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, database.MapError(err)
	}
	return &s, nil
}

// Delete removes a sport. Returns database.ErrNotFound when absent.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM sports WHERE id = $1`, id)
	if err != nil {
		return database.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return database.ErrNotFound
	}
	return nil
}
