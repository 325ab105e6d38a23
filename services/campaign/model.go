package campaign

import (
	"time"

	"smallbiznis-rewards/services/user"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type CampaignStatus string
type GenderType string
type QuestionKind string
type Metric string

const (
	CampaignStatusActive    CampaignStatus = "Active"
	CampaignStatusCompleted CampaignStatus = "Completed"

	GenderTypeMale   GenderType = "Male"
	GenderTypeFemale GenderType = "Female"

	QuestionKindQuiz    QuestionKind = "quiz"
	QuestionKindSurvey1 QuestionKind = "survey1"
	QuestionKindSurvey2 QuestionKind = "survey2"

	MetricEngagement Metric = "engagement"
	MetricClick      Metric = "click"
)

// Campaign is a brand's sponsored video with an engagement goal and a
// prepaid budget billed per engagement.
type Campaign struct {
	ID                  string          `gorm:"column:id;primaryKey;size:64" json:"id"`
	OwnerID             string          `gorm:"column:owner_id;index" json:"ownerId"`
	Title               string          `gorm:"column:title" json:"campaignTitle"`
	BrandName           string          `gorm:"column:brand_name" json:"brandName"`
	WebsiteLink         string          `gorm:"column:website_link" json:"websiteLink"`
	CompanyLogo         string          `gorm:"column:company_logo" json:"companyLogo"`
	GenderType          GenderType      `gorm:"column:gender_type;index:idx_campaigns_feed" json:"genderType"`
	Status              CampaignStatus  `gorm:"column:status;type:varchar(20);default:'Active';index:idx_campaigns_feed" json:"status"`
	VideoURL            string          `gorm:"column:video_url" json:"campaignVideoUrl"`
	EngagementTotal     int64           `gorm:"column:engagement_total;default:0" json:"engagementTotal"`
	EngagementGoal      int64           `gorm:"column:engagement_goal;default:0" json:"engagementGoal"`
	ClickTotal          int64           `gorm:"column:click_total;default:0" json:"clickTotal"`
	Budget              decimal.Decimal `gorm:"column:budget;type:decimal(12,2);default:0" json:"campaignBudget"`
	PaymentMethodID     string          `gorm:"column:payment_method_id" json:"-"`
	ProcessorCustomerID string          `gorm:"column:processor_customer_id" json:"-"`
	Metadata            datatypes.JSON  `gorm:"column:metadata" json:"metadata,omitempty"`
	CreatedAt           time.Time       `gorm:"column:created_at;index:idx_campaigns_feed" json:"createdAt"`
	UpdatedAt           time.Time       `gorm:"column:updated_at" json:"updatedAt"`
}

func (c *Campaign) IsCompleted() bool {
	return c.Status == CampaignStatusCompleted
}

// GoalReached reports whether the engagement goal has been met.
func (c *Campaign) GoalReached() bool {
	return c.EngagementTotal >= c.EngagementGoal
}

// Question is a campaign's quiz or one of its two survey questions, with
// per-option response totals.
type Question struct {
	ID           string       `gorm:"column:id;primaryKey;size:64" json:"id"`
	CampaignID   string       `gorm:"column:campaign_id;size:64;uniqueIndex:ux_campaign_questions_kind" json:"campaignId"`
	Kind         QuestionKind `gorm:"column:kind;type:varchar(20);uniqueIndex:ux_campaign_questions_kind" json:"kind"`
	Prompt       string       `gorm:"column:prompt" json:"question"`
	Option1      string       `gorm:"column:option1" json:"option1"`
	Option2      string       `gorm:"column:option2" json:"option2"`
	Option3      string       `gorm:"column:option3" json:"option3"`
	Option4      string       `gorm:"column:option4" json:"option4"`
	Answer       string       `gorm:"column:answer" json:"-"`
	Option1Count int64        `gorm:"column:option1_count;default:0" json:"-"`
	Option2Count int64        `gorm:"column:option2_count;default:0" json:"-"`
	Option3Count int64        `gorm:"column:option3_count;default:0" json:"-"`
	Option4Count int64        `gorm:"column:option4_count;default:0" json:"-"`
	CreatedAt    time.Time    `gorm:"column:created_at" json:"-"`
	UpdatedAt    time.Time    `gorm:"column:updated_at" json:"-"`
}

func (Question) TableName() string {
	return "campaign_questions"
}

// Option returns the text of the 1-based option, or "" when out of range.
func (q *Question) Option(ordinal int) string {
	switch ordinal {
	case 1:
		return q.Option1
	case 2:
		return q.Option2
	case 3:
		return q.Option3
	case 4:
		return q.Option4
	}
	return ""
}

func (q *Question) OptionCount(ordinal int) int64 {
	switch ordinal {
	case 1:
		return q.Option1Count
	case 2:
		return q.Option2Count
	case 3:
		return q.Option3Count
	case 4:
		return q.Option4Count
	}
	return 0
}

func (q *Question) TotalResponses() int64 {
	return q.Option1Count + q.Option2Count + q.Option3Count + q.Option4Count
}

// AnswerOrdinal is the 1-based position of the option equal to the answer,
// or 0 when none matches.
func (q *Question) AnswerOrdinal() int {
	for i := 1; i <= 4; i++ {
		if q.Option(i) == q.Answer {
			return i
		}
	}
	return 0
}

type DemographicCount struct {
	CampaignID string        `gorm:"column:campaign_id;size:64;uniqueIndex:ux_option_demographics"`
	Kind       QuestionKind  `gorm:"column:kind;type:varchar(20);uniqueIndex:ux_option_demographics"`
	Option     int           `gorm:"column:option_ordinal;uniqueIndex:ux_option_demographics"`
	AgeGroup   user.AgeGroup `gorm:"column:age_group;type:varchar(20);uniqueIndex:ux_option_demographics"`
	Gender     user.Gender   `gorm:"column:gender;type:varchar(10);uniqueIndex:ux_option_demographics"`
	Count      int64         `gorm:"column:count;default:0"`
}

func (DemographicCount) TableName() string {
	return "option_demographics"
}

type DailyCount struct {
	CampaignID string `gorm:"column:campaign_id;size:64;uniqueIndex:ux_campaign_daily_counts"`
	Metric     Metric `gorm:"column:metric;type:varchar(20);uniqueIndex:ux_campaign_daily_counts"`
	Day        string `gorm:"column:day;type:char(10);uniqueIndex:ux_campaign_daily_counts"` // YYYY-MM-DD, UTC
	Count      int64  `gorm:"column:count;default:0"`
}

func (DailyCount) TableName() string {
	return "campaign_daily_counts"
}

// WatchTime is one bucket of the per-campaign watch-time histogram.
type WatchTime struct {
	CampaignID string `gorm:"column:campaign_id;size:64;uniqueIndex:ux_campaign_watch_times"`
	Seconds    int    `gorm:"column:seconds;uniqueIndex:ux_campaign_watch_times"`
	Count      int64  `gorm:"column:count;default:0"`
}

func (WatchTime) TableName() string {
	return "campaign_watch_times"
}

// UserCampaignView marks a user as rewarded for a campaign. Create-only.
type UserCampaignView struct {
	UserID     string    `gorm:"column:user_id;size:64;uniqueIndex:ux_user_campaign_views"`
	CampaignID string    `gorm:"column:campaign_id;size:64;uniqueIndex:ux_user_campaign_views"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

type SurveySubmission struct {
	UserID     string    `gorm:"column:user_id;size:64;uniqueIndex:ux_survey_submissions"`
	CampaignID string    `gorm:"column:campaign_id;size:64;uniqueIndex:ux_survey_submissions"`
	CreatedAt  time.Time `gorm:"column:created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

type VideoWatchUser struct {
	UserID    string    `gorm:"column:user_id;size:64;uniqueIndex:ux_video_watch_users"`
	VideoURL  string    `gorm:"column:video_url;size:512;uniqueIndex:ux_video_watch_users"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}
