package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/godesk-io/godesk-ce/internal/database"
	"github.com/godesk-io/godesk-ce/internal/models"
)

// RuleRepository defines storage for SLA rules and calendar policies. The
// SLA core only reads active records; mutation happens through the admin
// API. Deletes are soft (valid_id toggle) so historical tickets keep their
// rule references.
type RuleRepository interface {
	CreateRule(ctx context.Context, rule *models.SLARule) error
	GetRule(ctx context.Context, id uint) (*models.SLARule, error)
	ListRules(ctx context.Context, activeOnly bool) ([]models.SLARule, error)
	UpdateRule(ctx context.Context, rule *models.SLARule) error
	DeleteRule(ctx context.Context, id uint) error

	CreateCalendar(ctx context.Context, policy *models.CalendarPolicy) error
	GetCalendar(ctx context.Context, id int) (*models.CalendarPolicy, error)
	ListCalendars(ctx context.Context, activeOnly bool) ([]models.CalendarPolicy, error)
	UpdateCalendar(ctx context.Context, policy *models.CalendarPolicy) error
}

// SQLRuleRepository persists rules and calendars through the shared sqlx
// pool. Filter ID sets are stored as JSON text columns.
type SQLRuleRepository struct {
	db *sqlx.DB
}

// NewSQLRuleRepository wraps the shared connection pool.
func NewSQLRuleRepository(db *sqlx.DB) *SQLRuleRepository {
	return &SQLRuleRepository{db: db}
}

type ruleRow struct {
	ID                        uint           `db:"id"`
	Name                      string         `db:"name"`
	PriorityLevel             int            `db:"priority_level"`
	PriorityName              sql.NullString `db:"priority_name"`
	Customers                 sql.NullString `db:"customer_ids"`
	Categories                sql.NullString `db:"category_ids"`
	SubCategories             sql.NullString `db:"sub_category_ids"`
	Departments               sql.NullString `db:"department_ids"`
	Groups                    sql.NullString `db:"group_ids"`
	BusinessMinutes           int            `db:"business_minutes"`
	NonBusinessMinutes        int            `db:"non_business_minutes"`
	WeekendBusinessMinutes    int            `db:"weekend_business_minutes"`
	WeekendNonBusinessMinutes int            `db:"weekend_non_business_minutes"`
	CalendarID                int            `db:"calendar_id"`
	SLANextDayStart           bool           `db:"sla_next_day_start"`
	ValidID                   int            `db:"valid_id"`
	CreateTime                time.Time      `db:"create_time"`
	ChangeTime                time.Time      `db:"change_time"`
}

const ruleColumns = `id, name, priority_level, priority_name,
	customer_ids, category_ids, sub_category_ids, department_ids, group_ids,
	business_minutes, non_business_minutes,
	weekend_business_minutes, weekend_non_business_minutes,
	calendar_id, sla_next_day_start, valid_id, create_time, change_time`

func (row *ruleRow) toModel() (*models.SLARule, error) {
	rule := &models.SLARule{
		ID:                        row.ID,
		Name:                      row.Name,
		PriorityLevel:             row.PriorityLevel,
		PriorityName:              row.PriorityName.String,
		BusinessMinutes:           row.BusinessMinutes,
		NonBusinessMinutes:        row.NonBusinessMinutes,
		WeekendBusinessMinutes:    row.WeekendBusinessMinutes,
		WeekendNonBusinessMinutes: row.WeekendNonBusinessMinutes,
		CalendarID:                row.CalendarID,
		SLANextDayStart:           row.SLANextDayStart,
		ValidID:                   row.ValidID,
		CreateTime:                row.CreateTime,
		ChangeTime:                row.ChangeTime,
	}
	for _, col := range []struct {
		src sql.NullString
		dst *[]uint
	}{
		{row.Customers, &rule.Customers},
		{row.Categories, &rule.Categories},
		{row.SubCategories, &rule.SubCategories},
		{row.Departments, &rule.Departments},
		{row.Groups, &rule.Groups},
	} {
		if err := decodeIDSet(col.src, col.dst); err != nil {
			return nil, err
		}
	}
	return rule, nil
}

func decodeIDSet(col sql.NullString, dst *[]uint) error {
	if !col.Valid || col.String == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(col.String), dst); err != nil {
		return fmt.Errorf("failed to decode ID set %q: %w", col.String, err)
	}
	return nil
}

func encodeIDSet(ids []uint) sql.NullString {
	if len(ids) == 0 {
		return sql.NullString{}
	}
	b, _ := json.Marshal(ids)
	return sql.NullString{String: string(b), Valid: true}
}

// CreateRule validates and inserts a rule as active.
func (r *SQLRuleRepository) CreateRule(ctx context.Context, rule *models.SLARule) error {
	if err := rule.Validate(); err != nil {
		return err
	}

	now := time.Now()
	query := database.ConvertPlaceholders(`
		INSERT INTO sla_rules (
			name, priority_level, priority_name,
			customer_ids, category_ids, sub_category_ids, department_ids, group_ids,
			business_minutes, non_business_minutes,
			weekend_business_minutes, weekend_non_business_minutes,
			calendar_id, sla_next_day_start, valid_id, create_time, change_time
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, 1, $15, $16)
		RETURNING id
	`)
	query, useLastInsert := database.ConvertReturning(query)
	args := []interface{}{
		rule.Name, rule.PriorityLevel, rule.PriorityName,
		encodeIDSet(rule.Customers), encodeIDSet(rule.Categories),
		encodeIDSet(rule.SubCategories), encodeIDSet(rule.Departments), encodeIDSet(rule.Groups),
		rule.BusinessMinutes, rule.NonBusinessMinutes,
		rule.WeekendBusinessMinutes, rule.WeekendNonBusinessMinutes,
		rule.CalendarID, rule.SLANextDayStart, now, now,
	}

	if useLastInsert {
		res, err := r.db.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to create SLA rule: %w", err)
		}
		lastID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to determine SLA rule ID: %w", err)
		}
		rule.ID = uint(lastID)
	} else {
		var id uint
		if err := r.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
			return fmt.Errorf("failed to create SLA rule: %w", err)
		}
		rule.ID = id
	}

	rule.ValidID = 1
	rule.CreateTime = now
	rule.ChangeTime = now
	return nil
}

// GetRule fetches one rule by ID.
func (r *SQLRuleRepository) GetRule(ctx context.Context, id uint) (*models.SLARule, error) {
	query := database.ConvertPlaceholders(`SELECT ` + ruleColumns + ` FROM sla_rules WHERE id = $1`)

	var row ruleRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("SLA rule %d: %w", id, models.ErrRuleNotFound)
		}
		return nil, fmt.Errorf("failed to fetch SLA rule %d: %w", id, err)
	}
	return row.toModel()
}

// ListRules returns rules, optionally only active ones, newest first.
func (r *SQLRuleRepository) ListRules(ctx context.Context, activeOnly bool) ([]models.SLARule, error) {
	query := `SELECT ` + ruleColumns + ` FROM sla_rules`
	if activeOnly {
		query += ` WHERE valid_id = 1`
	}
	query += ` ORDER BY priority_level, create_time DESC`

	var rows []ruleRow
	if err := r.db.SelectContext(ctx, &rows, database.ConvertPlaceholders(query)); err != nil {
		return nil, fmt.Errorf("failed to list SLA rules: %w", err)
	}

	rules := make([]models.SLARule, 0, len(rows))
	for i := range rows {
		rule, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		rules = append(rules, *rule)
	}
	return rules, nil
}

// UpdateRule validates and rewrites a rule in place.
func (r *SQLRuleRepository) UpdateRule(ctx context.Context, rule *models.SLARule) error {
	if err := rule.Validate(); err != nil {
		return err
	}

	now := time.Now()
	query := database.ConvertPlaceholders(`
		UPDATE sla_rules SET
			name = $1, priority_level = $2, priority_name = $3,
			customer_ids = $4, category_ids = $5, sub_category_ids = $6,
			department_ids = $7, group_ids = $8,
			business_minutes = $9, non_business_minutes = $10,
			weekend_business_minutes = $11, weekend_non_business_minutes = $12,
			calendar_id = $13, sla_next_day_start = $14, change_time = $15
		WHERE id = $16
	`)
	res, err := r.db.ExecContext(ctx, query,
		rule.Name, rule.PriorityLevel, rule.PriorityName,
		encodeIDSet(rule.Customers), encodeIDSet(rule.Categories),
		encodeIDSet(rule.SubCategories), encodeIDSet(rule.Departments), encodeIDSet(rule.Groups),
		rule.BusinessMinutes, rule.NonBusinessMinutes,
		rule.WeekendBusinessMinutes, rule.WeekendNonBusinessMinutes,
		rule.CalendarID, rule.SLANextDayStart, now, rule.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update SLA rule %d: %w", rule.ID, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return fmt.Errorf("SLA rule %d: %w", rule.ID, models.ErrRuleNotFound)
	}
	rule.ChangeTime = now
	return nil
}

// DeleteRule soft-deletes a rule (valid_id = 2). Historical tickets keep
// their reference; the resolver stops selecting it.
func (r *SQLRuleRepository) DeleteRule(ctx context.Context, id uint) error {
	query := database.ConvertPlaceholders(`
		UPDATE sla_rules SET valid_id = 2, change_time = $1 WHERE id = $2 AND valid_id = 1
	`)
	res, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete SLA rule %d: %w", id, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return fmt.Errorf("SLA rule %d: %w", id, models.ErrRuleNotFound)
	}
	return nil
}

type calendarRow struct {
	ID                int            `db:"id"`
	Name              string         `db:"name"`
	Timezone          sql.NullString `db:"timezone"`
	BusinessStartHour int            `db:"business_start_hour"`
	BusinessEndHour   int            `db:"business_end_hour"`
	WeekendDays       sql.NullString `db:"weekend_days"`
	Holidays          sql.NullString `db:"holidays"`
	ValidID           int            `db:"valid_id"`
	CreateTime        time.Time      `db:"create_time"`
	ChangeTime        time.Time      `db:"change_time"`
}

const calendarColumns = `id, name, timezone, business_start_hour, business_end_hour,
	weekend_days, holidays, valid_id, create_time, change_time`

func (row *calendarRow) toModel() (*models.CalendarPolicy, error) {
	policy := &models.CalendarPolicy{
		ID:                row.ID,
		Name:              row.Name,
		Timezone:          row.Timezone.String,
		BusinessStartHour: row.BusinessStartHour,
		BusinessEndHour:   row.BusinessEndHour,
		ValidID:           row.ValidID,
		CreateTime:        row.CreateTime,
		ChangeTime:        row.ChangeTime,
	}
	if row.WeekendDays.Valid && row.WeekendDays.String != "" {
		if err := json.Unmarshal([]byte(row.WeekendDays.String), &policy.WeekendDays); err != nil {
			return nil, fmt.Errorf("failed to decode weekend days %q: %w", row.WeekendDays.String, err)
		}
	}
	if row.Holidays.Valid && row.Holidays.String != "" {
		if err := json.Unmarshal([]byte(row.Holidays.String), &policy.Holidays); err != nil {
			return nil, fmt.Errorf("failed to decode holidays %q: %w", row.Holidays.String, err)
		}
	}
	return policy, nil
}

func encodeWeekendDays(days []int) sql.NullString {
	if len(days) == 0 {
		return sql.NullString{}
	}
	b, _ := json.Marshal(days)
	return sql.NullString{String: string(b), Valid: true}
}

func encodeHolidays(holidays []models.Holiday) sql.NullString {
	if len(holidays) == 0 {
		return sql.NullString{}
	}
	b, _ := json.Marshal(holidays)
	return sql.NullString{String: string(b), Valid: true}
}

// CreateCalendar validates and inserts a calendar policy as active.
func (r *SQLRuleRepository) CreateCalendar(ctx context.Context, policy *models.CalendarPolicy) error {
	if err := policy.Validate(); err != nil {
		return err
	}

	now := time.Now()
	query := database.ConvertPlaceholders(`
		INSERT INTO calendar_policies (
			name, timezone, business_start_hour, business_end_hour,
			weekend_days, holidays, valid_id, create_time, change_time
		) VALUES ($1, $2, $3, $4, $5, $6, 1, $7, $8)
		RETURNING id
	`)
	query, useLastInsert := database.ConvertReturning(query)
	args := []interface{}{
		policy.Name, policy.EffectiveTimezone(),
		policy.BusinessStartHour, policy.BusinessEndHour,
		encodeWeekendDays(policy.WeekendDays), encodeHolidays(policy.Holidays), now, now,
	}

	if useLastInsert {
		res, err := r.db.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to create calendar policy: %w", err)
		}
		lastID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to determine calendar policy ID: %w", err)
		}
		policy.ID = int(lastID)
	} else {
		var id int
		if err := r.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
			return fmt.Errorf("failed to create calendar policy: %w", err)
		}
		policy.ID = id
	}

	policy.ValidID = 1
	policy.CreateTime = now
	policy.ChangeTime = now
	return nil
}

// GetCalendar fetches one calendar policy by ID.
func (r *SQLRuleRepository) GetCalendar(ctx context.Context, id int) (*models.CalendarPolicy, error) {
	query := database.ConvertPlaceholders(`SELECT ` + calendarColumns + ` FROM calendar_policies WHERE id = $1`)

	var row calendarRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("calendar policy %d not found", id)
		}
		return nil, fmt.Errorf("failed to fetch calendar policy %d: %w", id, err)
	}
	return row.toModel()
}

// ListCalendars returns calendar policies, optionally only active ones.
func (r *SQLRuleRepository) ListCalendars(ctx context.Context, activeOnly bool) ([]models.CalendarPolicy, error) {
	query := `SELECT ` + calendarColumns + ` FROM calendar_policies`
	if activeOnly {
		query += ` WHERE valid_id = 1`
	}
	query += ` ORDER BY id`

	var rows []calendarRow
	if err := r.db.SelectContext(ctx, &rows, database.ConvertPlaceholders(query)); err != nil {
		return nil, fmt.Errorf("failed to list calendar policies: %w", err)
	}

	policies := make([]models.CalendarPolicy, 0, len(rows))
	for i := range rows {
		policy, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		policies = append(policies, *policy)
	}
	return policies, nil
}

// UpdateCalendar validates and rewrites a calendar policy.
func (r *SQLRuleRepository) UpdateCalendar(ctx context.Context, policy *models.CalendarPolicy) error {
	if err := policy.Validate(); err != nil {
		return err
	}

	now := time.Now()
	query := database.ConvertPlaceholders(`
		UPDATE calendar_policies SET
			name = $1, timezone = $2,
			business_start_hour = $3, business_end_hour = $4,
			weekend_days = $5, holidays = $6, change_time = $7
		WHERE id = $8
	`)
	res, err := r.db.ExecContext(ctx, query,
		policy.Name, policy.EffectiveTimezone(),
		policy.BusinessStartHour, policy.BusinessEndHour,
		encodeWeekendDays(policy.WeekendDays), encodeHolidays(policy.Holidays), now, policy.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update calendar policy %d: %w", policy.ID, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return fmt.Errorf("calendar policy %d not found", policy.ID)
	}
	policy.ChangeTime = now
	return nil
}
