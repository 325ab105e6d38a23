package campaign

import (
	"context"
	"fmt"
	"strings"
	"time"

	"smallbiznis-rewards/services/user"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Field enumerates the campaign columns the update builder may touch.
type Field int

const (
	FieldEngagementTotal Field = iota + 1
	FieldClickTotal
	FieldStatus
	FieldBudget
	FieldProcessorCustomerID
)

var fieldColumns = map[Field]string{
	FieldEngagementTotal:     "engagement_total",
	FieldClickTotal:          "click_total",
	FieldStatus:              "status",
	FieldBudget:              "budget",
	FieldProcessorCustomerID: "processor_customer_id",
}

func (f Field) Column() string {
	return fieldColumns[f]
}

func (f Field) counter() bool {
	return f == FieldEngagementTotal || f == FieldClickTotal
}

type assignment struct {
	column string
	expr   string
	args   []any
}

// Update is a typed, single-statement change to one campaign row.
type Update struct {
	status *assignment
	sets   []assignment
	guards []string
	args   []any
	err    error
}

func NewUpdate() *Update {
	return &Update{}
}

// Inc adds n to a counter field.
func (u *Update) Inc(f Field, n int64) *Update {
	if !f.counter() {
		u.fail(fmt.Errorf("campaign: field %d is not a counter", f))
		return u
	}
	col := f.Column()
	u.sets = append(u.sets, assignment{column: col, expr: col + " + ?", args: []any{n}})
	return u
}

func (u *Update) Set(f Field, v any) *Update {
	col := f.Column()
	if col == "" {
		u.fail(fmt.Errorf("campaign: unknown field %d", f))
		return u
	}
	if f == FieldStatus {
		s, ok := v.(CampaignStatus)
		if !ok {
			u.fail(fmt.Errorf("campaign: status must be a CampaignStatus"))
			return u
		}
		u.status = &assignment{column: col, expr: "?", args: []any{s}}
		return u
	}
	u.sets = append(u.sets, assignment{column: col, expr: "?", args: []any{v}})
	return u
}

// CompleteOnGoal flips status to Completed when the engagement increment of
// this update reaches the goal.
func (u *Update) CompleteOnGoal(inc int64) *Update {
	u.status = &assignment{
		column: FieldStatus.Column(),
		expr:   "CASE WHEN engagement_total + ? >= engagement_goal THEN ? ELSE status END",
		args:   []any{inc, CampaignStatusCompleted},
	}
	return u
}

// WhereActiveBelowGoal restricts the update to an Active campaign that has
// not reached its goal.
func (u *Update) WhereActiveBelowGoal() *Update {
	u.guards = append(u.guards, "status = ?", "engagement_total < engagement_goal")
	u.args = append(u.args, CampaignStatusActive)
	return u
}

func (u *Update) fail(err error) {
	if u.err == nil {
		u.err = err
	}
}

// Apply runs the update against campaignID and returns the affected rows.
func (u *Update) Apply(ctx context.Context, tx *gorm.DB, campaignID string) (int64, error) {
	if u.err != nil {
		return 0, u.err
	}

	// status goes first: MySQL evaluates SET left to right against the
	// already-updated row.
	ordered := make([]assignment, 0, len(u.sets)+2)
	if u.status != nil {
		ordered = append(ordered, *u.status)
	}
	ordered = append(ordered, u.sets...)
	if len(ordered) == 0 {
		return 0, nil
	}
	ordered = append(ordered, assignment{column: "updated_at", expr: "?", args: []any{time.Now().UTC()}})

	sets := make([]string, 0, len(ordered))
	args := make([]any, 0, len(ordered)+len(u.args)+1)
	for _, a := range ordered {
		sets = append(sets, a.column+" = "+a.expr)
		args = append(args, a.args...)
	}

	where := append([]string{"id = ?"}, u.guards...)
	args = append(args, campaignID)
	args = append(args, u.args...)

	sql := "UPDATE campaigns SET " + strings.Join(sets, ", ") + " WHERE " + strings.Join(where, " AND ")
	res := tx.WithContext(ctx).Exec(sql, args...)
	return res.RowsAffected, res.Error
}

// QuestionField is a per-option counter column of a question row.
type QuestionField struct {
	ordinal int
}

// OptionCountField returns the counter for the 1-based option ordinal.
func OptionCountField(ordinal int) (QuestionField, error) {
	if ordinal < 1 || ordinal > 4 {
		return QuestionField{}, fmt.Errorf("campaign: option ordinal %d out of range", ordinal)
	}
	return QuestionField{ordinal: ordinal}, nil
}

func (f QuestionField) Column() string {
	return fmt.Sprintf("option%d_count", f.ordinal)
}

// QuestionUpdate increments option counters of one question.
type QuestionUpdate struct {
	kind QuestionKind
	incs []QuestionField
}

func NewQuestionUpdate(kind QuestionKind) *QuestionUpdate {
	return &QuestionUpdate{kind: kind}
}

func (q *QuestionUpdate) Inc(f QuestionField) *QuestionUpdate {
	q.incs = append(q.incs, f)
	return q
}

func (q *QuestionUpdate) Apply(ctx context.Context, tx *gorm.DB, campaignID string) error {
	if len(q.incs) == 0 {
		return nil
	}

	values := make(map[string]any, len(q.incs))
	for _, f := range q.incs {
		if f.ordinal == 0 {
			return fmt.Errorf("campaign: zero QuestionField")
		}
		col := f.Column()
		values[col] = gorm.Expr(col + " + 1")
	}

	res := tx.WithContext(ctx).Model(&Question{}).
		Where("campaign_id = ? AND kind = ?", campaignID, q.kind).
		Updates(values)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DemographicKey addresses one demographic sub-count of an option.
type DemographicKey struct {
	Question QuestionKind
	Option   int
	AgeGroup user.AgeGroup
	Gender   user.Gender
}

func (k DemographicKey) Validate() error {
	if _, err := OptionCountField(k.Option); err != nil {
		return err
	}
	if !k.AgeGroup.Valid() {
		return fmt.Errorf("campaign: invalid age group %q", k.AgeGroup)
	}
	if !k.Gender.Valid() {
		return fmt.Errorf("campaign: invalid gender %q", k.Gender)
	}
	return nil
}

func incrementDemographic(ctx context.Context, tx *gorm.DB, campaignID string, key DemographicKey) error {
	if err := key.Validate(); err != nil {
		return err
	}
	row := DemographicCount{
		CampaignID: campaignID,
		Kind:       key.Question,
		Option:     key.Option,
		AgeGroup:   key.AgeGroup,
		Gender:     key.Gender,
		Count:      1,
	}
	return tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "campaign_id"}, {Name: "kind"}, {Name: "option_ordinal"}, {Name: "age_group"}, {Name: "gender"},
		},
		DoUpdates: clause.Assignments(map[string]any{"count": gorm.Expr("option_demographics.count + 1")}),
	}).Create(&row).Error
}

// DayOf returns the UTC calendar day bucket of t.
func DayOf(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}

func incrementDaily(ctx context.Context, tx *gorm.DB, campaignID string, metric Metric, day string) error {
	row := DailyCount{CampaignID: campaignID, Metric: metric, Day: day, Count: 1}
	return tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "campaign_id"}, {Name: "metric"}, {Name: "day"}},
		DoUpdates: clause.Assignments(map[string]any{"count": gorm.Expr("campaign_daily_counts.count + 1")}),
	}).Create(&row).Error
}

func incrementWatchTime(ctx context.Context, tx *gorm.DB, campaignID string, seconds int) error {
	row := WatchTime{CampaignID: campaignID, Seconds: seconds, Count: 1}
	return tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "campaign_id"}, {Name: "seconds"}},
		DoUpdates: clause.Assignments(map[string]any{"count": gorm.Expr("campaign_watch_times.count + 1")}),
	}).Create(&row).Error
}

func upsertVideoWatchUser(ctx context.Context, tx *gorm.DB, userID, videoURL string) error {
	now := time.Now().UTC()
	row := VideoWatchUser{UserID: userID, VideoURL: videoURL, CreatedAt: now, UpdatedAt: now}
	return tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "video_url"}},
		DoUpdates: clause.Assignments(map[string]any{"updated_at": now}),
	}).Create(&row).Error
}

func upsertSurveySubmission(ctx context.Context, tx *gorm.DB, userID, campaignID string) error {
	now := time.Now().UTC()
	row := SurveySubmission{UserID: userID, CampaignID: campaignID, CreatedAt: now, UpdatedAt: now}
	return tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "campaign_id"}},
		DoUpdates: clause.Assignments(map[string]any{"updated_at": now}),
	}).Create(&row).Error
}
