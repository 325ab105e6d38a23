package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

type EntryType string

const (
	EntryTypeEarning  EntryType = "earning"
	EntryTypeWithdraw EntryType = "withdraw"
)

// TransactionHistory is an append-only record of a balance movement.
// Earnings are positive, withdrawals negative.
type TransactionHistory struct {
	ID        string          `gorm:"column:id;primaryKey" json:"id"`
	UserID    string          `gorm:"column:user_id;index:idx_transaction_histories_user_created" json:"userId"`
	Amount    decimal.Decimal `gorm:"column:amount;type:decimal(12,2)" json:"amount"`
	Type      EntryType       `gorm:"column:type;type:varchar(20)" json:"type"`
	CreatedAt time.Time       `gorm:"column:created_at;index:idx_transaction_histories_user_created;index" json:"createdAt"`
}

type ListHistoryRequest struct {
	UserID string `json:"userId"`
	Page   int    `json:"page"`
	Limit  int    `json:"limit"`
}

type Pagination struct {
	TotalRecords   int64 `json:"totalRecords"`
	CurrentPage    int   `json:"currentPage"`
	TotalPages     int   `json:"totalPages"`
	RecordsPerPage int   `json:"recordsPerPage"`
}

type ListHistoryResponse struct {
	Data       []*TransactionHistory `json:"data"`
	Pagination Pagination            `json:"pagination"`
}
