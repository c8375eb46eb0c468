package automation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type JobRepository interface {
	Create(ctx context.Context, job *Job) error
	GetByID(ctx context.Context, id string) (*Job, error)
	List(ctx context.Context) ([]*Job, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
	UpdateAfterAttempt(ctx context.Context, id string, attemptAt time.Time, bookedDate *time.Time) error
	Delete(ctx context.Context, id string) error
}

type AttemptRepository interface {
	// Add appends an attempt and prunes the feed down to its maximum size.
	Add(ctx context.Context, attempt *Attempt) error
	List(ctx context.Context, limit int) ([]*Attempt, error)
}

type pgxJobRepository struct {
	pool *pgxpool.Pool
}

func NewPgxJobRepository(pool *pgxpool.Pool) JobRepository {
	return &pgxJobRepository{pool: pool}
}

const jobColumns = "id, start_date, day_of_week, start_time, end_time, status, last_attempt_at, last_booked_date, created_at, updated_at"

func (r *pgxJobRepository) Create(ctx context.Context, job *Job) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.auto_booking_jobs").
		Columns("id", "start_date", "day_of_week", "start_time", "end_time", "status").
		Values(job.ID, job.StartDate, int(job.DayOfWeek), job.StartTime, job.EndTime, string(job.Status)).
		Suffix("RETURNING created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create job query failed: %w", err)
	}

	return r.pool.QueryRow(ctx, query, args...).Scan(&job.CreatedAt, &job.UpdatedAt)
}

func (r *pgxJobRepository) GetByID(ctx context.Context, id string) (*Job, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(jobColumns).
		From("public.auto_booking_jobs").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get job query failed: %w", err)
	}

	job, err := scanJob(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get job failed: %w", err)
	}
	return job, nil
}

func (r *pgxJobRepository) List(ctx context.Context) ([]*Job, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(jobColumns).
		From("public.auto_booking_jobs").
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list jobs query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs failed: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job failed: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func (r *pgxJobRepository) UpdateStatus(ctx context.Context, id string, status Status) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.auto_booking_jobs").
		Set("status", string(status)).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update job status query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update job status failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxJobRepository) UpdateAfterAttempt(ctx context.Context, id string, attemptAt time.Time, bookedDate *time.Time) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	update := psql.Update("public.auto_booking_jobs").
		Set("last_attempt_at", attemptAt).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id})
	if bookedDate != nil {
		update = update.Set("last_booked_date", *bookedDate)
	}

	query, args, err := update.ToSql()
	if err != nil {
		return fmt.Errorf("build update job attempt query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update job attempt failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxJobRepository) Delete(ctx context.Context, id string) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Delete("public.auto_booking_jobs").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete job query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete job failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanJob(row pgx.Row) (*Job, error) {
	var job Job
	var dayOfWeek int
	var status string
	if err := row.Scan(
		&job.ID, &job.StartDate, &dayOfWeek, &job.StartTime, &job.EndTime, &status,
		&job.LastAttemptAt, &job.LastBookedDate, &job.CreatedAt, &job.UpdatedAt,
	); err != nil {
		return nil, err
	}
	job.DayOfWeek = time.Weekday(dayOfWeek)
	job.Status = Status(status)
	return &job, nil
}

type pgxAttemptRepository struct {
	pool     *pgxpool.Pool
	feedSize int
}

func NewPgxAttemptRepository(pool *pgxpool.Pool, feedSize int) AttemptRepository {
	return &pgxAttemptRepository{pool: pool, feedSize: feedSize}
}

func (r *pgxAttemptRepository) Add(ctx context.Context, attempt *Attempt) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.booking_attempts").
		Columns("id", "job_id", "target_date", "start_time", "end_time", "success", "message").
		Values(attempt.ID, attempt.JobID, attempt.TargetDate, attempt.StartTime, attempt.EndTime, attempt.Success, attempt.Message).
		Suffix("RETURNING occurred_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build add attempt query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&attempt.OccurredAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return ErrNotFound
		}
		return fmt.Errorf("add attempt failed: %w", err)
	}
	return r.prune(ctx)
}

// prune keeps the attempt feed bounded to the newest feedSize entries.
func (r *pgxAttemptRepository) prune(ctx context.Context) error {
	query := `DELETE FROM public.booking_attempts
		WHERE id NOT IN (
			SELECT id FROM public.booking_attempts ORDER BY occurred_at DESC LIMIT $1
		)`
	if _, err := r.pool.Exec(ctx, query, r.feedSize); err != nil {
		return fmt.Errorf("prune attempts failed: %w", err)
	}
	return nil
}

func (r *pgxAttemptRepository) List(ctx context.Context, limit int) ([]*Attempt, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("id", "job_id", "target_date", "start_time", "end_time", "success", "message", "occurred_at").
		From("public.booking_attempts").
		OrderBy("occurred_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list attempts query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list attempts failed: %w", err)
	}
	defer rows.Close()

	var attempts []*Attempt
	for rows.Next() {
		var a Attempt
		if err := rows.Scan(&a.ID, &a.JobID, &a.TargetDate, &a.StartTime, &a.EndTime, &a.Success, &a.Message, &a.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan attempt failed: %w", err)
		}
		attempts = append(attempts, &a)
	}
	return attempts, rows.Err()
}
