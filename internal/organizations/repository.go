package organizations

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/richhabits/backend/internal/models"
	"github.com/richhabits/backend/pkg/database"
)

const orgColumns = `id, name, state, address, phone, email, notes, logo_url, title_card_url,
	brand_primary, brand_secondary, is_business, universal_discounts, tags, created_at, updated_at`

// Repository handles organization persistence via pgx.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an organizations repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanOrg(row pgx.Row, o *models.Organization) error {
	return row.Scan(&o.ID, &o.Name, &o.State, &o.Address, &o.Phone, &o.Email, &o.Notes,
		&o.LogoURL, &o.TitleCardURL, &o.BrandPrimary, &o.BrandSecondary, &o.IsBusiness,
		&o.UniversalDiscounts, &o.Tags, &o.CreatedAt, &o.UpdatedAt)
}

// Insert creates an organization inside a transaction. When assign is non-nil
// the owner-role association is inserted in the same transaction under a
// savepoint: its failure is recorded on assign.Err and never aborts the
// organization insert.
func (r *Repository) Insert(ctx context.Context, org *models.Organization, assign *OwnerAssignment) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return database.MapError(err)
	}
	defer tx.Rollback(ctx)

	const q = `INSERT INTO organizations
		(name, state, address, phone, email, notes, logo_url, brand_primary, brand_secondary,
		 is_business, universal_discounts, tags)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + orgColumns
	if err := scanOrg(tx.QueryRow(ctx, q,
		org.Name, org.State, org.Address, org.Phone, org.Email, org.Notes, org.LogoURL,
		org.BrandPrimary, org.BrandSecondary, org.IsBusiness, org.UniversalDiscounts, org.Tags,
	), org); err != nil {
		return database.MapError(err)
	}

	if assign != nil {
		assign.Err = r.assignOwner(ctx, tx, org.ID, assign)
	}

	if err := tx.Commit(ctx); err != nil {
		return database.MapError(err)
	}
	return nil
}

// assignOwner runs under a savepoint so a failed role insert (unknown user,
// missing role) cannot poison the enclosing transaction.
func (r *Repository) assignOwner(ctx context.Context, tx pgx.Tx, orgID uuid.UUID, assign *OwnerAssignment) error {
	sp, err := tx.Begin(ctx)
	if err != nil {
		return err
	}

	var roleID uuid.UUID
	err = sp.QueryRow(ctx, `SELECT id FROM roles WHERE name = $1`, assign.Role).Scan(&roleID)
	if err != nil {
		_ = sp.Rollback(ctx)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("role %q not found", assign.Role)
		}
		return database.MapError(err)
	}

	_, err = sp.Exec(ctx, `INSERT INTO user_roles (user_id, organization_id, role_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, organization_id) DO NOTHING`,
		assign.UserID, orgID, roleID)
	if err != nil {
		_ = sp.Rollback(ctx)
		return database.MapError(err)
	}
	return sp.Commit(ctx)
}

// GetByID returns an organization by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	q := `SELECT ` + orgColumns + ` FROM organizations WHERE id = $1`
	var org models.Organization
	if err := scanOrg(r.pool.QueryRow(ctx, q, id), &org); err != nil {
		return nil, database.MapError(err)
	}
	return &org, nil
}

// FindByName returns the organization with the given name, matched
// case-insensitively, or database.ErrNotFound.
func (r *Repository) FindByName(ctx context.Context, name string) (*models.Organization, error) {
	q := `SELECT ` + orgColumns + ` FROM organizations WHERE LOWER(name) = LOWER($1)`
	var org models.Organization
	if err := scanOrg(r.pool.QueryRow(ctx, q, name), &org); err != nil {
		return nil, database.MapError(err)
	}
	return &org, nil
}

// Update applies the present fields and returns the updated row, or
// database.ErrNotFound. With no fields present it returns the current row.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, f Fields) (*models.Organization, error) {
	sets := make([]string, 0, 12)
	args := make([]interface{}, 0, 13)
	add := func(col string, v interface{}) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if f.Name != nil {
		add("name", *f.Name)
	}
	if f.State != nil {
		add("state", *f.State)
	}
	if f.Address != nil {
		add("address", *f.Address)
	}
	if f.Phone != nil {
		add("phone", *f.Phone)
	}
	if f.Email != nil {
		add("email", *f.Email)
	}
	if f.Notes != nil {
		add("notes", *f.Notes)
	}
	if f.LogoURL != nil {
		add("logo_url", *f.LogoURL)
	}
	if f.BrandPrimary != nil {
		add("brand_primary", *f.BrandPrimary)
	}
	if f.BrandSecondary != nil {
		add("brand_secondary", *f.BrandSecondary)
	}
	if f.IsBusiness != nil {
		add("is_business", *f.IsBusiness)
	}
	if f.UniversalDiscounts != nil {
		add("universal_discounts", f.UniversalDiscounts)
	}
	if f.Tags != nil {
		add("tags", f.Tags)
	}

	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}

	sets = append(sets, "updated_at = NOW()")
	args = append(args, id)
	q := fmt.Sprintf(`UPDATE organizations SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), orgColumns)

	var org models.Organization
	if err := scanOrg(r.pool.QueryRow(ctx, q, args...), &org); err != nil {
		return nil, database.MapError(err)
	}
	return &org, nil
}

// SetTitleCardURL stores the generated asset URL and returns the updated row.
func (r *Repository) SetTitleCardURL(ctx context.Context, id uuid.UUID, url string) (*models.Organization, error) {
	q := `UPDATE organizations SET title_card_url = $1, updated_at = NOW() WHERE id = $2 RETURNING ` + orgColumns
	var org models.Organization
	if err := scanOrg(r.pool.QueryRow(ctx, q, url, id), &org); err != nil {
		return nil, database.MapError(err)
	}
	return &org, nil
}

// Delete removes an organization; dependent sports and orders cascade via
// foreign keys. Returns database.ErrNotFound when the id does not exist.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM organizations WHERE id = $1`, id)
	if err != nil {
		return database.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return database.ErrNotFound
	}
	return nil
}

// List returns a page of organizations matching the query plus the total
// match count. All filters are AND-ed.
func (r *Repository) List(ctx context.Context, q ListQuery) ([]models.Organization, int, error) {
	where := make([]string, 0, 3)
	args := make([]interface{}, 0, 5)

	if q.Search != "" {
		args = append(args, "%"+q.Search+"%")
		where = append(where, fmt.Sprintf("name ILIKE $%d", len(args)))
	}
	if q.State != "" {
		args = append(args, q.State)
		where = append(where, fmt.Sprintf("state = $%d", len(args)))
	}
	if q.Type != "" {
		args = append(args, q.Type == TypeBusiness)
		where = append(where, fmt.Sprintf("is_business = $%d", len(args)))
	}

	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM organizations"+cond, args...).Scan(&total); err != nil {
		return nil, 0, database.MapError(err)
	}

	// Sort column and direction are whitelisted by the service.
	args = append(args, q.PageSize, (q.Page-1)*q.PageSize)
	sql := fmt.Sprintf("SELECT %s FROM organizations%s ORDER BY %s %s LIMIT $%d OFFSET $%d",
		orgColumns, cond, q.Sort, q.Order, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, database.MapError(err)
	}
	defer rows.Close()

	items := make([]models.Organization, 0, q.PageSize)
	for rows.Next() {
		var org models.Organization
		if err := scanOrg(rows, &org); err != nil {
			return nil, 0, database.MapError(err)
		}
		items = append(items, org)
	}
	return items, total, database.MapError(rows.Err())
}

// Count returns the total number of organizations (used by the health probe).
func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM organizations`).Scan(&n); err != nil {
		return 0, database.MapError(err)
	}
	return n, nil
}
