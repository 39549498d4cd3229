package orders

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/richhabits/backend/internal/models"
	"github.com/richhabits/backend/pkg/database"
)

const orderColumns = `id, organization_id, order_number, customer_name, status, total_amount, notes, created_at, updated_at`

// Repository handles order and order-item persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an orders repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanOrder(row pgx.Row, o *models.Order) error {
	return row.Scan(&o.ID, &o.OrganizationID, &o.OrderNumber, &o.CustomerName, &o.Status,
		&o.TotalAmount, &o.Notes, &o.CreatedAt, &o.UpdatedAt)
}

// Create inserts an order and its line items in one transaction.
func (r *Repository) Create(ctx context.Context, o *models.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return database.MapError(err)
	}
	defer tx.Rollback(ctx)

	const q = `INSERT INTO orders (organization_id, order_number, customer_name, status, total_amount, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`
	if err := tx.QueryRow(ctx, q, o.OrganizationID, o.OrderNumber, o.CustomerName, o.Status, o.TotalAmount, o.Notes).
		Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return database.MapError(err)
	}

	for i := range o.Items {
		it := &o.Items[i]
		it.OrderID = o.ID
		if err := tx.QueryRow(ctx,
			`INSERT INTO order_items (order_id, item_name, quantity, unit_price) VALUES ($1, $2, $3, $4) RETURNING id`,
			it.OrderID, it.ItemName, it.Quantity, it.UnitPrice).Scan(&it.ID); err != nil {
			return database.MapError(err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return database.MapError(err)
	}
	return nil
}

// GetByID returns an order with its line items.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	var o models.Order
	if err := scanOrder(r.pool.QueryRow(ctx, q, id), &o); err != nil {
		return nil, database.MapError(err)
	}
	items, err := r.listItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return &o, nil
}

// ListByOrganization returns all orders of an organization, newest first,
// with line items attached.
func (r *Repository) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]models.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders WHERE organization_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, orgID)
	if err != nil {
		return nil, database.MapError(err)
	}
	defer rows.Close()

	list := make([]models.Order, 0)
	for rows.Next() {
		var o models.Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, database.MapError(err)
		}
		list = append(list, o)
	}
	if err := rows.Err(); err != nil {
		return nil, database.MapError(err)
	}
	for i := range list {
		items, err := r.listItems(ctx, list[i].ID)
		if err != nil {
			return nil, err
		}
		list[i].Items = items
	}
	return list, nil
}

func (r *Repository) listItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, order_id, item_name, quantity, unit_price FROM order_items WHERE order_id = $1 ORDER BY item_name`,
		orderID)
	if err != nil {
		return nil, database.MapError(err)
	}
	defer rows.Close()

	items := make([]models.OrderItem, 0)
	for rows.Next() {
		var it models.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ItemName, &it.Quantity, &it.UnitPrice); err != nil {
			return nil, database.MapError(err)
		}
		items = append(items, it)
	}
	return items, database.MapError(rows.Err())
}

// Update applies present scalar fields; when items is non-nil the line items
// are replaced wholesale in the same transaction.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, orderNumber, customerName, status, notes *string,
	totalAmount *float64, items []models.OrderItem) (*models.Order, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, database.MapError(err)
	}
	defer tx.Rollback(ctx)

	const q = `UPDATE orders SET
			order_number = COALESCE($1, order_number),
			customer_name = COALESCE($2, customer_name),
			status = COALESCE($3, status),
			notes = COALESCE($4, notes),
			total_amount = COALESCE($5, total_amount),
			updated_at = NOW()
		WHERE id = $6
		RETURNING ` + orderColumns
	var o models.Order
	if err := scanOrder(tx.QueryRow(ctx, q, orderNumber, customerName, status, notes, totalAmount, id), &o); err != nil {
		return nil, database.MapError(err)
	}

	if items != nil {
		if _, err := tx.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, id); err != nil {
			return nil, database.MapError(err)
		}
		for i := range items {
			it := &items[i]
			it.OrderID = id
			if err := tx.QueryRow(ctx,
				`INSERT INTO order_items (order_id, item_name, quantity, unit_price) VALUES ($1, $2, $3, $4) RETURNING id`,
				it.OrderID, it.ItemName, it.Quantity, it.UnitPrice).Scan(&it.ID); err != nil {
				return nil, database.MapError(err)
			}
		}
		o.Items = items
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, database.MapError(err)
	}

	if items == nil {
		existing, err := r.listItems(ctx, id)
		if err != nil {
			return nil, err
		}
		o.Items = existing
	}
	return &o, nil
}

// Delete removes an order (items cascade). Returns database.ErrNotFound when absent.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return database.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return database.ErrNotFound
	}
	return nil
}
