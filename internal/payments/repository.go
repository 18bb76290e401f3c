package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/jobdiary/jobdiary/internal/money"
	"github.com/jobdiary/jobdiary/internal/shared"
)

// Repository persists payments.
type Repository interface {
	Insert(ctx context.Context, p Payment) (int64, error)
	Get(ctx context.Context, id int64) (*Payment, error)
	Delete(ctx context.Context, id int64) error
	ListForJob(ctx context.Context, jobID int64) ([]Payment, error)
	SumForJob(ctx context.Context, jobID int64) (decimal.Decimal, error)
	CountByMethod(ctx context.Context, method string) (int, error)
}

// PGRepository stores payments in PostgreSQL as integer minor units.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PGRepository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func (r *PGRepository) Insert(ctx context.Context, p Payment) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO payments (job_id, amount_minor, method, payment_type, notes, recorded_by, recorded_at)
VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		p.JobID, money.ToMinor(p.Amount), p.Method, p.Type, p.Notes, p.RecordedBy, p.RecordedAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("payments: insert: %w", err)
	}
	return id, nil
}

const paymentColumns = `id, job_id, amount_minor, method, payment_type, notes, recorded_by, recorded_at`

func scanPayment(row pgx.Row) (Payment, error) {
	var p Payment
	var minor int64
	err := row.Scan(&p.ID, &p.JobID, &minor, &p.Method, &p.Type, &p.Notes, &p.RecordedBy, &p.RecordedAt)
	p.Amount = money.FromMinor(minor)
	return p, err
}

func (r *PGRepository) Get(ctx context.Context, id int64) (*Payment, error) {
	p, err := scanPayment(r.pool.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.NotFound("payment", id)
	}
	if err != nil {
		return nil, fmt.Errorf("payments: get: %w", err)
	}
	return &p, nil
}

func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM payments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("payments: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("payment", id)
	}
	return nil
}

// ListForJob returns the job's payments, newest first.
func (r *PGRepository) ListForJob(ctx context.Context, jobID int64) ([]Payment, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+paymentColumns+` FROM payments WHERE job_id = $1
ORDER BY recorded_at DESC, id DESC`, jobID)
	if err != nil {
		return nil, fmt.Errorf("payments: list: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Payment, error) {
		return scanPayment(row)
	})
}

// SumForJob adds up the stored rows; zero when there are none.
func (r *PGRepository) SumForJob(ctx context.Context, jobID int64) (decimal.Decimal, error) {
	var minor int64
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(amount_minor), 0) FROM payments WHERE job_id = $1`, jobID).Scan(&minor)
	if err != nil {
		return decimal.Zero, fmt.Errorf("payments: sum: %w", err)
	}
	return money.FromMinor(minor), nil
}

func (r *PGRepository) CountByMethod(ctx context.Context, method string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM payments WHERE method = $1`, method).Scan(&n)
	return n, err
}

var _ Repository = (*PGRepository)(nil)
