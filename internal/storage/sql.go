package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hperssn/yofit/internal/domain"
)

// dialect captures the differences between the supported SQL backends.
type dialect struct {
	name     string
	schema   string
	numbered bool // $1, $2 placeholders instead of ?
}

type sqlRepository struct {
	db      *sql.DB
	dialect dialect
}

func openSQL(driver, dsn string, d dialect) (*sqlRepository, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	repo := &sqlRepository{db: db, dialect: d}
	if err := repo.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create %s tables: %w", d.name, err)
	}

	return repo, nil
}

func (r *sqlRepository) createTables() error {
	_, err := r.db.Exec(r.dialect.schema)
	return err
}

// rebind rewrites ? placeholders for backends that number them.
func (r *sqlRepository) rebind(query string) string {
	if !r.dialect.numbered {
		return query
	}

	var b strings.Builder
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

func (r *sqlRepository) Close() error {
	return r.db.Close()
}

const classColumns = `id, title, description, instructor_name, duration_minutes, level, category,
	goals_json, video_url, thumbnail_url, premium, sequence_json, created_at`

func (r *sqlRepository) SaveClass(ctx context.Context, class *domain.YogaClass) error {
	goals, err := json.Marshal(class.Goals)
	if err != nil {
		return err
	}
	sequence, err := json.Marshal(class.Sequence)
	if err != nil {
		return err
	}
	if class.CreatedAt.IsZero() {
		class.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO classes (` + classColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			instructor_name = excluded.instructor_name,
			duration_minutes = excluded.duration_minutes,
			level = excluded.level,
			category = excluded.category,
			goals_json = excluded.goals_json,
			video_url = excluded.video_url,
			thumbnail_url = excluded.thumbnail_url,
			premium = excluded.premium,
			sequence_json = excluded.sequence_json
	`

	_, err = r.db.ExecContext(ctx, r.rebind(query),
		class.ID,
		class.Title,
		class.Description,
		class.InstructorName,
		class.DurationMinutes,
		string(class.Level),
		class.Category,
		string(goals),
		class.VideoURL,
		class.ThumbnailURL,
		class.Premium,
		string(sequence),
		class.CreatedAt,
	)
	return err
}

func (r *sqlRepository) GetClass(ctx context.Context, id string) (*domain.YogaClass, error) {
	query := `SELECT ` + classColumns + ` FROM classes WHERE id = ?`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	classes, err := r.scanClasses(rows)
	if err != nil {
		return nil, err
	}
	if len(classes) == 0 {
		return nil, ErrNotFound
	}
	return &classes[0], nil
}

func (r *sqlRepository) ListClasses(ctx context.Context, filter ClassFilter) ([]domain.YogaClass, error) {
	var (
		where []string
		args  []any
	)
	if filter.Goal != "" {
		goal, err := json.Marshal(filter.Goal)
		if err != nil {
			return nil, err
		}
		where = append(where, "goals_json LIKE ?")
		args = append(args, "%"+string(goal)+"%")
	}
	if filter.Level != "" && filter.Level != string(domain.LevelAll) {
		where = append(where, "level = ?")
		args = append(args, filter.Level)
	}

	query := `SELECT ` + classColumns + ` FROM classes`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, r.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanClasses(rows)
}

func (r *sqlRepository) scanClasses(rows *sql.Rows) ([]domain.YogaClass, error) {
	var classes []domain.YogaClass

	for rows.Next() {
		var (
			class    domain.YogaClass
			level    string
			goals    []byte
			sequence []byte
		)

		err := rows.Scan(
			&class.ID,
			&class.Title,
			&class.Description,
			&class.InstructorName,
			&class.DurationMinutes,
			&level,
			&class.Category,
			&goals,
			&class.VideoURL,
			&class.ThumbnailURL,
			&class.Premium,
			&sequence,
			&class.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		class.Level = domain.Level(level)
		if err := json.Unmarshal(goals, &class.Goals); err != nil {
			return nil, fmt.Errorf("class %s goals: %w", class.ID, err)
		}
		if err := json.Unmarshal(sequence, &class.Sequence); err != nil {
			return nil, fmt.Errorf("class %s sequence: %w", class.ID, err)
		}

		classes = append(classes, class)
	}

	return classes, rows.Err()
}

func (r *sqlRepository) MarkComplete(ctx context.Context, p *domain.Progress) error {
	completedAt := time.Now().UTC()
	if p.CompletedAt != nil {
		completedAt = *p.CompletedAt
	}

	query := `
		INSERT INTO progress (user_id, class_id, completed, completed_at, duration_minutes)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, class_id) DO UPDATE SET
			completed = excluded.completed,
			completed_at = excluded.completed_at,
			duration_minutes = excluded.duration_minutes
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query), p.UserID, p.ClassID, true, completedAt, p.DurationMinutes)
	if err != nil {
		return err
	}

	p.Completed = true
	p.CompletedAt = &completedAt
	return nil
}

func (r *sqlRepository) GetProgress(ctx context.Context, userID, classID string) (*domain.Progress, error) {
	query := `
		SELECT user_id, class_id, completed, completed_at, duration_minutes
		FROM progress
		WHERE user_id = ? AND class_id = ?
	`

	var (
		p           domain.Progress
		completedAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, r.rebind(query), userID, classID).Scan(
		&p.UserID,
		&p.ClassID,
		&p.Completed,
		&completedAt,
		&p.DurationMinutes,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if completedAt.Valid {
		p.CompletedAt = &completedAt.Time
	}
	return &p, nil
}

func (r *sqlRepository) GetSubscription(ctx context.Context, userID string) (*domain.Subscription, error) {
	query := `
		SELECT user_id, plan, status, billing_cycle, current_period_start, current_period_end,
			trial_ends_at, cancel_at_period_end
		FROM subscriptions
		WHERE user_id = ?
	`

	var (
		sub         domain.Subscription
		plan        string
		status      string
		trialEndsAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, r.rebind(query), userID).Scan(
		&sub.UserID,
		&plan,
		&status,
		&sub.BillingCycle,
		&sub.CurrentPeriodStart,
		&sub.CurrentPeriodEnd,
		&trialEndsAt,
		&sub.CancelAtPeriodEnd,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	sub.Plan = domain.Plan(plan)
	sub.Status = domain.SubscriptionStatus(status)
	if trialEndsAt.Valid {
		sub.TrialEndsAt = &trialEndsAt.Time
	}
	return &sub, nil
}

func (r *sqlRepository) CreateSubscription(ctx context.Context, sub *domain.Subscription) error {
	query := `
		INSERT INTO subscriptions (user_id, plan, status, billing_cycle, current_period_start,
			current_period_end, trial_ends_at, cancel_at_period_end)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO NOTHING
	`

	var trialEndsAt sql.NullTime
	if sub.TrialEndsAt != nil {
		trialEndsAt = sql.NullTime{Time: *sub.TrialEndsAt, Valid: true}
	}

	res, err := r.db.ExecContext(ctx, r.rebind(query),
		sub.UserID,
		string(sub.Plan),
		string(sub.Status),
		sub.BillingCycle,
		sub.CurrentPeriodStart,
		sub.CurrentPeriodEnd,
		trialEndsAt,
		sub.CancelAtPeriodEnd,
	)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrSubscriptionExists
	}
	return nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	f := n.Float64
	return &f
}

func (r *sqlRepository) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	query := `
		SELECT user_id, goal, bmi, weight, height, updated_at
		FROM profiles
		WHERE user_id = ?
	`

	var (
		p                   domain.Profile
		bmi, weight, height sql.NullFloat64
	)
	err := r.db.QueryRowContext(ctx, r.rebind(query), userID).Scan(
		&p.UserID,
		&p.Goal,
		&bmi,
		&weight,
		&height,
		&p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	p.BMI = floatPtr(bmi)
	p.Weight = floatPtr(weight)
	p.Height = floatPtr(height)
	return &p, nil
}

func (r *sqlRepository) UpsertProfile(ctx context.Context, p *domain.Profile) error {
	query := `
		INSERT INTO profiles (user_id, goal, bmi, weight, height, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			goal = excluded.goal,
			bmi = excluded.bmi,
			weight = excluded.weight,
			height = excluded.height,
			updated_at = excluded.updated_at
	`

	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, r.rebind(query),
		p.UserID,
		p.Goal,
		nullFloat(p.BMI),
		nullFloat(p.Weight),
		nullFloat(p.Height),
		p.UpdatedAt,
	)
	return err
}

func (r *sqlRepository) SaveSession(ctx context.Context, record *SessionRecord) error {
	stepsJSON, err := json.Marshal(record.Steps)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO sessions (id, user_id, class_id, planned_sec, practice_sec, completed, started_at, ended_at, steps_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			practice_sec = excluded.practice_sec,
			completed = excluded.completed,
			ended_at = excluded.ended_at,
			steps_json = excluded.steps_json
	`

	_, err = r.db.ExecContext(ctx, r.rebind(query),
		record.ID,
		record.UserID,
		record.ClassID,
		record.PlannedSec,
		record.PracticeSec,
		record.Completed,
		record.StartedAt,
		record.EndedAt,
		string(stepsJSON),
	)

	return err
}

const sessionColumns = `id, user_id, class_id, planned_sec, practice_sec, completed, started_at, ended_at, steps_json`

func (r *sqlRepository) GetSessionsByUser(ctx context.Context, userID string) ([]SessionRecord, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE user_id = ?
		ORDER BY ended_at DESC
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanSessions(rows)
}

func (r *sqlRepository) GetRecentSessions(ctx context.Context, userID string, since time.Time) ([]SessionRecord, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE user_id = ? AND ended_at >= ?
		ORDER BY ended_at DESC
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), userID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanSessions(rows)
}

func (r *sqlRepository) GetSessionStats(ctx context.Context, userID string) (*SessionStats, error) {
	query := `
		SELECT
			COUNT(*) as total,
			SUM(CASE WHEN completed THEN 1 ELSE 0 END) as completed,
			AVG(planned_sec) as avg_planned,
			SUM(practice_sec) as total_practice
		FROM sessions
		WHERE user_id = ?
	`

	var stats SessionStats
	var completed sql.NullInt64
	var totalPractice sql.NullInt64
	var avgPlanned sql.NullFloat64

	err := r.db.QueryRowContext(ctx, r.rebind(query), userID).Scan(
		&stats.TotalSessions,
		&completed,
		&avgPlanned,
		&totalPractice,
	)

	if err != nil {
		return nil, err
	}

	if completed.Valid {
		stats.CompletedCount = int(completed.Int64)
	}
	if avgPlanned.Valid {
		stats.AveragePlanned = avgPlanned.Float64
	}
	if totalPractice.Valid {
		stats.TotalPracticeSec = int(totalPractice.Int64)
	}
	if stats.TotalSessions > 0 {
		stats.CompletionRate = float64(stats.CompletedCount) / float64(stats.TotalSessions) * 100
	}

	return &stats, nil
}

func (r *sqlRepository) scanSessions(rows *sql.Rows) ([]SessionRecord, error) {
	var records []SessionRecord

	for rows.Next() {
		var record SessionRecord
		var stepsJSON []byte

		err := rows.Scan(
			&record.ID,
			&record.UserID,
			&record.ClassID,
			&record.PlannedSec,
			&record.PracticeSec,
			&record.Completed,
			&record.StartedAt,
			&record.EndedAt,
			&stepsJSON,
		)
		if err != nil {
			return nil, err
		}

		if err := json.Unmarshal(stepsJSON, &record.Steps); err != nil {
			return nil, err
		}

		records = append(records, record)
	}

	return records, rows.Err()
}
