package billing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// PaymentHistory is one charge attempt for a campaign and billing day.
// Engagement is the number of engagements the attempt bills, so a day can
// be settled in several attempts as its count grows. Attempt numbers the
// rows of a day and keys the processor idempotency.
type PaymentHistory struct {
	ID         string          `gorm:"column:id;primaryKey;size:64" json:"id"`
	CampaignID string          `gorm:"column:campaign_id;size:64;uniqueIndex:ux_campaign_payments_attempt" json:"campaignId"`
	BillingDay string          `gorm:"column:billing_day;type:char(10);uniqueIndex:ux_campaign_payments_attempt" json:"billingDay"` // YYYY-MM-DD, UTC
	Attempt    int             `gorm:"column:attempt;uniqueIndex:ux_campaign_payments_attempt" json:"attempt"`
	Reference  string          `gorm:"column:reference;size:32" json:"reference"`
	Engagement int64           `gorm:"column:engagement" json:"engagement"`
	Amount     decimal.Decimal `gorm:"column:amount;type:decimal(12,2)" json:"amount"`
	Currency   string          `gorm:"column:currency;size:8" json:"currency"`
	Status     PaymentStatus   `gorm:"column:status;type:varchar(20);index" json:"status"`
	ChargeID   string          `gorm:"column:charge_id" json:"paymentIntentId"`
	ErrorMsg   string          `gorm:"column:error_msg;type:text" json:"-"`
	CreatedAt  time.Time       `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt  time.Time       `gorm:"column:updated_at" json:"updatedAt"`
}

// ChargeKey is the processor idempotency key of the attempt.
func (p PaymentHistory) ChargeKey() string {
	return fmt.Sprintf("%s:%s:%d", p.CampaignID, p.BillingDay, p.Attempt)
}

func (PaymentHistory) TableName() string {
	return "campaign_payments"
}

// DeductResult is the outcome of billing one campaign for one day. A
// result without PaymentIntentID means nothing was charged.
type DeductResult struct {
	Message          string
	CampaignID       string
	BillingDay       string
	EngagementsToday int64
	PaymentIntentID  string
	RemainingBudget  decimal.Decimal
}

// Summary aggregates a DeductAll run.
type Summary struct {
	Day     string
	Charged int
	Skipped int
	Failed  int
}

// DeductDailyPayload is the billing:deduct:daily task payload. An empty Day
// bills the default settlement day.
type DeductDailyPayload struct {
	Day string `json:"day,omitempty"`
}
