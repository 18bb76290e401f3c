package diary

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jobdiary/jobdiary/internal/money"
	"github.com/jobdiary/jobdiary/internal/platform/db"
	"github.com/jobdiary/jobdiary/internal/settings"
	"github.com/jobdiary/jobdiary/internal/shared"
)

// Repository persists jobs and everything they own.
type Repository interface {
	NextOrderSequence(ctx context.Context) (int64, error)
	Create(ctx context.Context, job Job) (int64, error)
	Update(ctx context.Context, job Job) error
	Get(ctx context.Context, id int64) (*Job, error)
	Exists(ctx context.Context, id int64) (bool, error)
	Delete(ctx context.Context, id int64) error
	SetStatus(ctx context.Context, id int64, status string) error
	Convert(ctx context.Context, id int64, status string) error
	List(ctx context.Context, filter ListFilter) ([]Job, int, error)
	CountActiveByStatus(ctx context.Context, status string) (int, error)
	AgedQuotes(ctx context.Context, createdBefore time.Time, limit int) ([]AgedQuote, error)
	MarkQuoteOfferSent(ctx context.Context, id int64, at time.Time) error
}

// PGRepository stores jobs in PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const orderCounter = "order_number"

// NextOrderSequence increments the order counter atomically.
func (r *PGRepository) NextOrderSequence(ctx context.Context) (int64, error) {
	var value int64
	err := r.pool.QueryRow(ctx, `INSERT INTO counters (name, value) VALUES ($1, 1)
ON CONFLICT (name) DO UPDATE SET value = counters.value + 1
RETURNING value`, orderCounter).Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("diary: next order sequence: %w", err)
	}
	return value, nil
}

// Create inserts the job with its lines and accessories.
func (r *PGRepository) Create(ctx context.Context, job Job) (int64, error) {
	var id int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `INSERT INTO jobs
(kind, customer_id, assigned_staff_id, job_date, fitting_date, fitting_time, billing_address, fitting_address,
 fitting_cost_minor, discount_type, discount_value_minor, status, order_number, notes, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW())
RETURNING id`,
			string(job.Kind), job.CustomerID, job.AssignedStaffID, job.JobDate, job.FittingDate, job.FittingTime,
			job.BillingAddress, job.FittingAddress, money.ToMinor(job.FittingCost), string(job.Discount.Type),
			money.ToMinor(job.Discount.Value), job.Status, job.OrderNumber, job.Notes,
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("diary: insert job: %w", err)
		}
		return insertChildren(ctx, tx, id, job)
	})
	return id, err
}

// Update rewrites the job row and replaces its lines and accessories.
func (r *PGRepository) Update(ctx context.Context, job Job) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE jobs SET
customer_id = $2, assigned_staff_id = $3, job_date = $4, fitting_date = $5, fitting_time = $6,
billing_address = $7, fitting_address = $8, fitting_cost_minor = $9, discount_type = $10,
discount_value_minor = $11, status = $12, notes = $13, updated_at = NOW()
WHERE id = $1`,
			job.ID, job.CustomerID, job.AssignedStaffID, job.JobDate, job.FittingDate, job.FittingTime,
			job.BillingAddress, job.FittingAddress, money.ToMinor(job.FittingCost), string(job.Discount.Type),
			money.ToMinor(job.Discount.Value), job.Status, job.Notes,
		)
		if err != nil {
			return fmt.Errorf("diary: update job: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return shared.NotFound("job", job.ID)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM job_lines WHERE job_id = $1`, job.ID); err != nil {
			return fmt.Errorf("diary: clear lines: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM job_accessories WHERE job_id = $1`, job.ID); err != nil {
			return fmt.Errorf("diary: clear accessories: %w", err)
		}
		return insertChildren(ctx, tx, job.ID, job)
	})
}

func insertChildren(ctx context.Context, tx pgx.Tx, jobID int64, job Job) error {
	batch := &pgx.Batch{}
	for i, l := range job.Lines {
		batch.Queue(`INSERT INTO job_lines (job_id, position, description, size, quantity, unit_price_minor)
VALUES ($1, $2, $3, $4, $5, $6)`, jobID, i, l.Description, l.Size, l.Quantity, money.ToMinor(l.UnitPrice))
	}
	for i, a := range job.Accessories {
		batch.Queue(`INSERT INTO job_accessories (job_id, position, name, quantity, unit_price_minor)
VALUES ($1, $2, $3, $4, $5)`, jobID, i, a.Name, a.Quantity, money.ToMinor(a.UnitPrice))
	}
	if batch.Len() == 0 {
		return nil
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("diary: insert lines: %w", err)
	}
	return nil
}

const jobColumns = `id, kind, customer_id, assigned_staff_id, job_date, fitting_date, fitting_time, billing_address,
fitting_address, fitting_cost_minor, discount_type, discount_value_minor, status, order_number, notes,
quote_offer_sent_at, created_at, updated_at`

func scanJob(row pgx.Row) (*Job, error) {
	var (
		j                           Job
		kind, discountType          string
		fittingMinor, discountMinor int64
	)
	err := row.Scan(&j.ID, &kind, &j.CustomerID, &j.AssignedStaffID, &j.JobDate, &j.FittingDate, &j.FittingTime,
		&j.BillingAddress, &j.FittingAddress, &fittingMinor, &discountType, &discountMinor, &j.Status,
		&j.OrderNumber, &j.Notes, &j.QuoteOfferSentAt, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, err
	}
	j.Kind = Kind(kind)
	j.FittingCost = money.FromMinor(fittingMinor)
	j.Discount = money.Discount{Type: money.DiscountType(discountType), Value: money.FromMinor(discountMinor)}
	return &j, nil
}

// Get loads a job with its lines and accessories.
func (r *PGRepository) Get(ctx context.Context, id int64) (*Job, error) {
	job, err := scanJob(r.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.NotFound("job", id)
	}
	if err != nil {
		return nil, fmt.Errorf("diary: get job: %w", err)
	}
	if err := r.loadChildren(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

func (r *PGRepository) loadChildren(ctx context.Context, job *Job) error {
	rows, err := r.pool.Query(ctx, `SELECT id, description, size, quantity, unit_price_minor
FROM job_lines WHERE job_id = $1 ORDER BY position, id`, job.ID)
	if err != nil {
		return fmt.Errorf("diary: load lines: %w", err)
	}
	job.Lines, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (ProductLine, error) {
		var l ProductLine
		var minor int64
		err := row.Scan(&l.ID, &l.Description, &l.Size, &l.Quantity, &minor)
		l.UnitPrice = money.FromMinor(minor)
		return l, err
	})
	if err != nil {
		return fmt.Errorf("diary: scan lines: %w", err)
	}

	rows, err = r.pool.Query(ctx, `SELECT id, name, quantity, unit_price_minor
FROM job_accessories WHERE job_id = $1 ORDER BY position, id`, job.ID)
	if err != nil {
		return fmt.Errorf("diary: load accessories: %w", err)
	}
	job.Accessories, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (Accessory, error) {
		var a Accessory
		var minor int64
		err := row.Scan(&a.ID, &a.Name, &a.Quantity, &minor)
		a.UnitPrice = money.FromMinor(minor)
		return a, err
	})
	if err != nil {
		return fmt.Errorf("diary: scan accessories: %w", err)
	}
	return nil
}

// Exists reports whether a job row exists.
func (r *PGRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM jobs WHERE id = $1)`, id).Scan(&ok)
	return ok, err
}

// Delete removes the job and everything it owns in one transaction.
func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		for _, table := range []string{"job_images", "payments", "job_accessories", "job_lines"} {
			if _, err := tx.Exec(ctx, `DELETE FROM `+table+` WHERE job_id = $1`, id); err != nil {
				return fmt.Errorf("diary: delete %s: %w", table, err)
			}
		}
		tag, err := tx.Exec(ctx, `DELETE FROM jobs WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("diary: delete job: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return shared.NotFound("job", id)
		}
		return nil
	})
}

// SetStatus changes the status only.
func (r *PGRepository) SetStatus(ctx context.Context, id int64, status string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE jobs SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("diary: set status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("job", id)
	}
	return nil
}

// Convert turns a quote into a job with the given status.
func (r *PGRepository) Convert(ctx context.Context, id int64, status string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE jobs SET kind = $2, status = $3, updated_at = NOW()
WHERE id = $1 AND kind = $4`, id, string(KindJob), status, string(KindQuote))
	if err != nil {
		return fmt.Errorf("diary: convert quote: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("quote", id)
	}
	return nil
}

// List returns non-cancelled jobs, newest first, with the total match count.
func (r *PGRepository) List(ctx context.Context, filter ListFilter) ([]Job, int, error) {
	conds := []string{"status <> $1"}
	args := []any{settings.StatusCancelled}
	if filter.Kind != "" {
		args = append(args, string(filter.Kind))
		conds = append(conds, fmt.Sprintf("kind = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	where := " WHERE " + strings.Join(conds, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM jobs`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("diary: count jobs: %w", err)
	}

	page := shared.NewPagination(filter.Page, filter.PerPage, total)
	args = append(args, page.PerPage, page.Offset())
	query := fmt.Sprintf(`SELECT %s FROM jobs%s ORDER BY job_date DESC, id DESC LIMIT $%d OFFSET $%d`,
		jobColumns, where, len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("diary: list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, 0, err
		}
		jobs = append(jobs, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	for i := range jobs {
		if err := r.loadChildren(ctx, &jobs[i]); err != nil {
			return nil, 0, err
		}
	}
	return jobs, total, nil
}

// CountActiveByStatus counts jobs and quotes with status that are neither
// completed nor cancelled.
func (r *PGRepository) CountActiveByStatus(ctx context.Context, status string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM jobs
WHERE status = $1 AND status NOT IN ($2, $3)`, status, settings.StatusCompleted, settings.StatusCancelled).Scan(&n)
	return n, err
}

// AgedQuotes lists open quotes created before the cutoff that were never offered a discount.
func (r *PGRepository) AgedQuotes(ctx context.Context, createdBefore time.Time, limit int) ([]AgedQuote, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, created_at FROM jobs
WHERE kind = $1 AND status <> $2 AND quote_offer_sent_at IS NULL AND created_at < $3
ORDER BY created_at LIMIT $4`, string(KindQuote), settings.StatusCancelled, createdBefore, limit)
	if err != nil {
		return nil, fmt.Errorf("diary: aged quotes: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[AgedQuote])
}

// MarkQuoteOfferSent stamps the quote so it is offered only once.
func (r *PGRepository) MarkQuoteOfferSent(ctx context.Context, id int64, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE jobs SET quote_offer_sent_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("diary: mark offer sent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("quote", id)
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
