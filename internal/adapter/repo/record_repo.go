package repo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"urbangen/internal/domain"
	"urbangen/internal/infra"
	"urbangen/internal/sqlinline"
)

// RecordRepositoryPG implements domain.RecordRepository backed by PostgreSQL.
type RecordRepositoryPG struct {
	db    infra.SQLExecutor
	users domain.UserRepository
}

// NewRecordRepository creates a new RecordRepositoryPG. The user repository is
// consulted for the account counters in Stats.
func NewRecordRepository(db infra.SQLExecutor, users domain.UserRepository) *RecordRepositoryPG {
	return &RecordRepositoryPG{db: db, users: users}
}

// Create inserts an audit record. Records are never updated afterwards.
func (r *RecordRepositoryPG) Create(ctx context.Context, record *domain.GenerationRecord) error {
	_, err := r.db.Exec(ctx, sqlinline.QInsertRecord,
		record.ID,
		record.UserID,
		record.ImageID,
		record.Model,
		record.Resolution,
		record.AspectRatio,
		record.ImageSize,
		record.Prompt,
		record.UserPrompt,
		record.ModuleName,
		record.Credits,
		record.Success,
	)
	return err
}

// ListByUser returns the user's records, newest first.
func (r *RecordRepositoryPG) ListByUser(ctx context.Context, userID string) ([]domain.GenerationRecord, error) {
	rows, err := r.db.Query(ctx, sqlinline.QListRecordsByUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRecords(rows)
}

// ListAll returns every record, newest first.
func (r *RecordRepositoryPG) ListAll(ctx context.Context) ([]domain.GenerationRecord, error) {
	rows, err := r.db.Query(ctx, sqlinline.QListAllRecords)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRecords(rows)
}

// Stats aggregates today's and all-time activity for the admin dashboard.
func (r *RecordRepositoryPG) Stats(ctx context.Context) (*domain.AdminStats, error) {
	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	epoch := time.Unix(0, 0)

	stats := &domain.AdminStats{}

	today, err := r.statsWindow(ctx, dayStart)
	if err != nil {
		return nil, err
	}
	total, err := r.statsWindow(ctx, epoch)
	if err != nil {
		return nil, err
	}

	today.NewUsers, err = r.users.CountCreatedSince(ctx, dayStart)
	if err != nil {
		return nil, err
	}
	stats.TotalUsers, err = r.users.Count(ctx)
	if err != nil {
		return nil, err
	}
	total.NewUsers = stats.TotalUsers

	rows, err := r.db.Query(ctx, sqlinline.QRecordModuleUsage)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var usage domain.ModuleUsage
		if err := rows.Scan(&usage.ModuleName, &usage.Count); err != nil {
			return nil, err
		}
		stats.ModuleUsage = append(stats.ModuleUsage, usage)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	stats.Today = today
	stats.Total = total
	return stats, nil
}

func (r *RecordRepositoryPG) statsWindow(ctx context.Context, since time.Time) (domain.StatsWindow, error) {
	var window domain.StatsWindow
	err := r.db.QueryRow(ctx, sqlinline.QRecordStatsWindow, since).
		Scan(&window.TotalImages, &window.SuccessImages, &window.CreditsConsumed)
	if err != nil {
		return window, err
	}
	err = r.db.QueryRow(ctx, sqlinline.QOrderStatsWindow, since).
		Scan(&window.RechargeAmount, &window.RechargeCredits)
	if err != nil {
		return window, err
	}
	return window, nil
}

func collectRecords(rows pgx.Rows) ([]domain.GenerationRecord, error) {
	var records []domain.GenerationRecord
	for rows.Next() {
		var rec domain.GenerationRecord
		err := rows.Scan(&rec.ID, &rec.UserID, &rec.ImageID, &rec.Model, &rec.Resolution,
			&rec.AspectRatio, &rec.ImageSize, &rec.Prompt, &rec.UserPrompt, &rec.ModuleName,
			&rec.Credits, &rec.Success, &rec.CreatedAt)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

var _ domain.RecordRepository = (*RecordRepositoryPG)(nil)
