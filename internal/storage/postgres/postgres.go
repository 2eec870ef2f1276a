package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"booking-service/internal/models"
	"booking-service/pkg/response"

	"github.com/lib/pq"
)

const uniqueViolation = "23505"

const schema = `
CREATE TABLE IF NOT EXISTS appointments (
	id               TEXT PRIMARY KEY,
	user_id          TEXT NOT NULL,
	customer_name    TEXT NOT NULL,
	customer_email   TEXT NOT NULL DEFAULT '',
	service          TEXT NOT NULL DEFAULT '',
	date             DATE NOT NULL,
	timeslot         TEXT NOT NULL,
	status           TEXT NOT NULL,
	notes            TEXT NOT NULL DEFAULT '',
	rescheduled_from TEXT REFERENCES appointments (id),
	reschedule_fee   NUMERIC(10, 2) NOT NULL DEFAULT 0,
	cancel_reason    TEXT NOT NULL DEFAULT '',
	cancelled_at     TIMESTAMPTZ,
	created_at       TIMESTAMPTZ NOT NULL,
	updated_at       TIMESTAMPTZ NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS appointments_slot_holder_idx
	ON appointments (date, timeslot)
	WHERE status IN ('pending', 'confirmed');

CREATE INDEX IF NOT EXISTS appointments_user_idx ON appointments (user_id);

CREATE TABLE IF NOT EXISTS blocked_slots (
	id         TEXT PRIMARY KEY,
	date       DATE NOT NULL,
	timeslots  TEXT[] NOT NULL,
	reason     TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS blocked_slots_date_idx ON blocked_slots (date);
`

const appointmentColumns = `id, user_id, customer_name, customer_email, service,
	to_char(date, 'YYYY-MM-DD'), timeslot, status, notes, rescheduled_from,
	reschedule_fee, cancel_reason, cancelled_at, created_at, updated_at`

type Storage struct {
	db *sql.DB
}

func New(dsn string) (*Storage, error) {
	const op = "storage.postgres.New"

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: apply schema: %w", op, err)
	}

	return &Storage{db: db}, nil
}

func (s *Storage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}

	return s.db.Close()
}

// #### availability ####

func (s *Storage) BookedSlots(ctx context.Context, date string) ([]string, error) {
	const op = "storage.postgres.BookedSlots"

	rows, err := s.db.QueryContext(ctx,
		`SELECT timeslot FROM appointments WHERE date = $1 AND status = ANY($2)`,
		date, pq.Array(holdingStatuses()),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var slots []string
	for rows.Next() {
		var slot string
		if err := rows.Scan(&slot); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		slots = append(slots, slot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return slots, nil
}

func (s *Storage) BlockedSlots(ctx context.Context, date string) ([]models.BlockedSlot, error) {
	const op = "storage.postgres.BlockedSlots"

	blocks, err := s.ListBlockedSlots(ctx, &date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := make([]models.BlockedSlot, len(blocks))
	for i, b := range blocks {
		out[i] = *b
	}

	return out, nil
}

// #### appointments ####

func (s *Storage) CreateAppointment(ctx context.Context, a *models.Appointment) (string, error) {
	const op = "storage.postgres.CreateAppointment"

	if err := insertAppointment(ctx, s.db, a); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return a.ID, nil
}

func (s *Storage) GetAppointment(ctx context.Context, id string) (*models.Appointment, error) {
	const op = "storage.postgres.GetAppointment"

	row := s.db.QueryRowContext(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id)

	a, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return a, nil
}

func (s *Storage) ListAppointments(ctx context.Context, filter models.AppointmentFilter) ([]*models.Appointment, error) {
	const op = "storage.postgres.ListAppointments"

	var (
		conds []string
		args  []any
	)

	if filter.Date != nil {
		args = append(args, *filter.Date)
		conds = append(conds, fmt.Sprintf("date = $%d", len(args)))
	}
	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		conds = append(conds, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}

	query := `SELECT ` + appointmentColumns + ` FROM appointments`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY date, timeslot, created_at"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	appointments := []*models.Appointment{}
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		appointments = append(appointments, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return appointments, nil
}

// UpdateAppointmentStatus moves the appointment from status from to to.
// It fails with ErrConflict when the stored status is no longer from.
func (s *Storage) UpdateAppointmentStatus(ctx context.Context, id string, from, to models.AppointmentStatus, reason string, at time.Time) error {
	const op = "storage.postgres.UpdateAppointmentStatus"

	if err := updateStatus(ctx, s.db, id, from, to, reason, at); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// RescheduleAppointment releases the old appointment and inserts next in one transaction.
func (s *Storage) RescheduleAppointment(ctx context.Context, oldID string, from models.AppointmentStatus, next *models.Appointment, at time.Time) (string, error) {
	const op = "storage.postgres.RescheduleAppointment"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("%s: begin tx: %w", op, err)
	}
	defer tx.Rollback()

	if err := updateStatus(ctx, tx, oldID, from, models.StatusCancelledReschedule, "", at); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if err := insertAppointment(ctx, tx, next); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("%s: commit: %w", op, err)
	}

	return next.ID, nil
}

// #### blocked slots ####

func (s *Storage) CreateBlockedSlot(ctx context.Context, b *models.BlockedSlot) (string, error) {
	const op = "storage.postgres.CreateBlockedSlot"

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO blocked_slots (id, date, timeslots, reason, created_at) VALUES ($1, $2, $3, $4, $5)`,
		b.ID, b.Date, pq.Array(b.Timeslots), b.Reason, b.CreatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, mapError(err))
	}

	return b.ID, nil
}

func (s *Storage) GetBlockedSlot(ctx context.Context, id string) (*models.BlockedSlot, error) {
	const op = "storage.postgres.GetBlockedSlot"

	var b models.BlockedSlot
	err := s.db.QueryRowContext(ctx,
		`SELECT id, to_char(date, 'YYYY-MM-DD'), timeslots, reason, created_at FROM blocked_slots WHERE id = $1`, id,
	).Scan(&b.ID, &b.Date, pq.Array(&b.Timeslots), &b.Reason, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &b, nil
}

func (s *Storage) ListBlockedSlots(ctx context.Context, date *string) ([]*models.BlockedSlot, error) {
	const op = "storage.postgres.ListBlockedSlots"

	query := `SELECT id, to_char(date, 'YYYY-MM-DD'), timeslots, reason, created_at FROM blocked_slots`
	var args []any
	if date != nil {
		query += ` WHERE date = $1`
		args = append(args, *date)
	}
	query += ` ORDER BY date, created_at`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	blocks := []*models.BlockedSlot{}
	for rows.Next() {
		var b models.BlockedSlot
		if err := rows.Scan(&b.ID, &b.Date, pq.Array(&b.Timeslots), &b.Reason, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		blocks = append(blocks, &b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return blocks, nil
}

func (s *Storage) DeleteBlockedSlot(ctx context.Context, id string) error {
	const op = "storage.postgres.DeleteBlockedSlot"

	res, err := s.db.ExecContext(ctx, `DELETE FROM blocked_slots WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return nil
}

// #### helpers ####

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

func insertAppointment(ctx context.Context, db execer, a *models.Appointment) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO appointments (
			id, user_id, customer_name, customer_email, service, date, timeslot, status,
			notes, rescheduled_from, reschedule_fee, cancel_reason, cancelled_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		a.ID, a.UserID, a.CustomerName, a.CustomerEmail, a.Service, a.Date, a.Timeslot, string(a.Status),
		a.Notes, a.RescheduledFrom, a.RescheduleFee, a.CancelReason, a.CancelledAt, a.CreatedAt, a.UpdatedAt,
	)
	return mapError(err)
}

func updateStatus(ctx context.Context, db execer, id string, from, to models.AppointmentStatus, reason string, at time.Time) error {
	var cancelledAt *time.Time
	if to == models.StatusCancelled || to == models.StatusCancelledReschedule {
		cancelledAt = &at
	}

	res, err := db.ExecContext(ctx, `
		UPDATE appointments
		SET status = $1,
			updated_at = $2,
			cancel_reason = CASE WHEN $3 <> '' THEN $3 ELSE cancel_reason END,
			cancelled_at = COALESCE($4, cancelled_at)
		WHERE id = $5 AND status = $6`,
		string(to), at, reason, cancelledAt, id, string(from),
	)
	if err != nil {
		return mapError(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	var exists bool
	if err := db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM appointments WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return response.ErrNotFound
	}

	return response.ErrConflict
}

func scanAppointment(row scanner) (*models.Appointment, error) {
	var (
		a      models.Appointment
		status string
	)

	err := row.Scan(
		&a.ID, &a.UserID, &a.CustomerName, &a.CustomerEmail, &a.Service,
		&a.Date, &a.Timeslot, &status, &a.Notes, &a.RescheduledFrom,
		&a.RescheduleFee, &a.CancelReason, &a.CancelledAt, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.Status = models.AppointmentStatus(status)
	return &a, nil
}

// mapError turns a violation of the slot-holder index into ErrSlotNotAvailable.
func mapError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		if pqErr.Constraint == "appointments_slot_holder_idx" {
			return fmt.Errorf("%w: %s", response.ErrSlotNotAvailable, pqErr.Message)
		}
		return fmt.Errorf("%w: %s", response.ErrConflict, pqErr.Message)
	}
	return err
}

func holdingStatuses() []string {
	out := make([]string, len(models.SlotHoldingStatuses))
	for i, st := range models.SlotHoldingStatuses {
		out[i] = string(st)
	}
	return out
}
