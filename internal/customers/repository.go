package customers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jobdiary/jobdiary/internal/platform/db"
	"github.com/jobdiary/jobdiary/internal/shared"
)

type Repository interface {
	Get(ctx context.Context, id int64) (*Customer, error)
	GetByExternalID(ctx context.Context, externalID string) (*Customer, error)
	Exists(ctx context.Context, id int64) (bool, error)
	List(ctx context.Context, req ListCustomersRequest) ([]Customer, int, error)
	Create(ctx context.Context, customer Customer) (int64, error)
	Update(ctx context.Context, id int64, updates map[string]any) error
	SetSMSPreference(ctx context.Context, id int64, optIn bool, at time.Time) error
}

type repository struct {
	db db.DBTX
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

const customerColumns = `id, external_id, first_name, last_name, email, phone, address_line1, address_line2,
	city, postcode, notes, sms_opt_in_at, sms_opt_out_at, created_at, updated_at`

// updatable lists the columns Update accepts; keys outside it are ignored.
var updatable = []string{"first_name", "last_name", "email", "phone", "address_line1", "address_line2", "city", "postcode", "notes"}

func scanCustomer(row pgx.Row) (*Customer, error) {
	var c Customer
	err := row.Scan(
		&c.ID, &c.ExternalID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.Address1, &c.Address2,
		&c.City, &c.Postcode, &c.Notes, &c.SMSOptInAt, &c.SMSOptOutAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Customer, error) {
	c, err := scanCustomer(r.db.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.NotFound("customer", id)
	}
	return c, err
}

func (r *repository) GetByExternalID(ctx context.Context, externalID string) (*Customer, error) {
	c, err := scanCustomer(r.db.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE external_id = $1`, externalID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.NotFound("customer", ExternalRefPrefix+externalID)
	}
	return c, err
}

func (r *repository) Exists(ctx context.Context, id int64) (bool, error) {
	var ok bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM customers WHERE id = $1)`, id).Scan(&ok)
	return ok, err
}

func (r *repository) List(ctx context.Context, req ListCustomersRequest) ([]Customer, int, error) {
	where := ""
	var args []any
	if s := strings.TrimSpace(req.Search); s != "" {
		where = `WHERE (first_name ILIKE $1 OR last_name ILIKE $1 OR email ILIKE $1 OR phone ILIKE $1 OR postcode ILIKE $1)`
		args = append(args, "%"+s+"%")
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM customers "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT %s FROM customers %s ORDER BY last_name, first_name, id LIMIT $%d OFFSET $%d`,
		customerColumns, where, len(args)+1, len(args)+2)
	args = append(args, limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *c)
	}
	return out, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, c Customer) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `INSERT INTO customers
	(external_id, first_name, last_name, email, phone, address_line1, address_line2, city, postcode, notes, sms_opt_in_at, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
	RETURNING id`,
		c.ExternalID, c.FirstName, c.LastName, c.Email, c.Phone, c.Address1, c.Address2, c.City, c.Postcode, c.Notes, c.SMSOptInAt,
	).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]any) error {
	query := "UPDATE customers SET updated_at = NOW()"
	var args []any
	for _, col := range updatable {
		v, ok := updates[col]
		if !ok {
			continue
		}
		args = append(args, v)
		query += fmt.Sprintf(", %s = $%d", col, len(args))
	}
	args = append(args, id)
	query += fmt.Sprintf(" WHERE id = $%d", len(args))

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("customer", id)
	}
	return nil
}

func (r *repository) SetSMSPreference(ctx context.Context, id int64, optIn bool, at time.Time) error {
	column := "sms_opt_out_at"
	if optIn {
		column = "sms_opt_in_at"
	}
	tag, err := r.db.Exec(ctx, fmt.Sprintf(`UPDATE customers SET %s = $1, updated_at = NOW() WHERE id = $2`, column), at, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("customer", id)
	}
	return nil
}
