package user

import (
	"time"

	"github.com/shopspring/decimal"
)

type Plan string

const (
	PlanFree    Plan = "Free"
	PlanPremium Plan = "Premium"
)

// User is a consumer who watches campaigns and earns rewards.
type User struct {
	ID               string          `gorm:"column:id;primaryKey;size:64" json:"id"`
	FullName         string          `gorm:"column:full_name" json:"fullName"`
	Email            string          `gorm:"column:email;size:255;uniqueIndex" json:"email"`
	DateOfBirth      string          `gorm:"column:date_of_birth" json:"dateOfBirth"` // YYYY-MM-DD
	Age              int             `gorm:"column:age" json:"age"`
	Gender           string          `gorm:"column:gender" json:"gender"`
	SubscriptionPlan Plan            `gorm:"column:subscription_plan;default:'Free'" json:"subscriptionPlan"`
	TotalBalance     decimal.Decimal `gorm:"column:total_balance;type:decimal(12,2);default:0" json:"totalBalance"`
	RemainingBalance decimal.Decimal `gorm:"column:remaining_balance;type:decimal(12,2);default:0" json:"remainingBalance"`
	TotalWithdraw    decimal.Decimal `gorm:"column:total_withdraw;type:decimal(12,2);default:0" json:"totalWithdraw"`
	CreatedAt        time.Time       `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt        time.Time       `gorm:"column:updated_at" json:"updatedAt"`
}

func (User) TableName() string {
	return "consumer_users"
}

// BusinessUser owns campaigns and receives their completion mail.
type BusinessUser struct {
	ID            string    `gorm:"column:id;primaryKey;size:64" json:"id"`
	Name          string    `gorm:"column:name" json:"name"`
	BusinessEmail string    `gorm:"column:business_email" json:"businessEmail"`
	CreatedAt     time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt     time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

func (BusinessUser) TableName() string {
	return "business_users"
}
