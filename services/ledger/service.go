package ledger

import (
	"context"
	"time"

	"smallbiznis-rewards/pkg/config"
	"smallbiznis-rewards/pkg/db/option"
	"smallbiznis-rewards/pkg/errutil"
	"smallbiznis-rewards/pkg/repository"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

type Service struct {
	db   *gorm.DB
	node *snowflake.Node
	cfg  config.Ledger
	now  func() time.Time

	history repository.Repository[TransactionHistory]
}

type ServiceParams struct {
	fx.In
	DB     *gorm.DB
	Node   *snowflake.Node
	Config *config.Config
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:   p.DB,
		node: p.Node,
		cfg:  p.Config.Ledger,
		now:  time.Now,

		history: repository.ProvideStore[TransactionHistory](p.DB),
	}
}

// Append records a movement inside tx. A nil tx uses the service connection.
func (s *Service) Append(ctx context.Context, tx *gorm.DB, userID string, amount decimal.Decimal, typ EntryType) (*TransactionHistory, error) {
	entry := &TransactionHistory{
		ID:        s.node.Generate().String(),
		UserID:    userID,
		Amount:    amount.Round(2),
		Type:      typ,
		CreatedAt: s.now().UTC(),
	}
	if err := s.history.WithTrx(tx).Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// ListHistory pages through the user's movements inside the history window,
// newest first.
func (s *Service) ListHistory(ctx context.Context, req ListHistoryRequest) (*ListHistoryResponse, error) {
	span := trace.SpanFromContext(ctx)
	opts := []zap.Field{
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
		zap.String("user_id", req.UserID),
	}

	if req.UserID == "" {
		return nil, errutil.BadRequest("User ID is required", nil)
	}

	page, limit := req.Page, req.Limit
	if page < 1 {
		page = defaultPage
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	now := s.now().UTC()
	window := option.WithCreatedBetween(now.Add(-s.cfg.HistoryWindow), now)
	query := &TransactionHistory{UserID: req.UserID}

	total, err := s.history.Count(ctx, query, window)
	if err != nil {
		zap.L().With(opts...).Error("failed to count transaction history", zap.Error(err))
		return nil, errutil.Internal("Internal server error", err)
	}

	rows, err := s.history.Find(ctx, query,
		window,
		option.WithSortBy(option.QuerySortBy{SortBy: "created_at", OrderBy: "DESC"}),
		option.WithOffset((page-1)*limit),
		option.WithLimit(limit),
	)
	if err != nil {
		zap.L().With(opts...).Error("failed to list transaction history", zap.Error(err))
		return nil, errutil.Internal("Internal server error", err)
	}
	if rows == nil {
		rows = []*TransactionHistory{}
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &ListHistoryResponse{
		Data: rows,
		Pagination: Pagination{
			TotalRecords:   total,
			CurrentPage:    page,
			TotalPages:     totalPages,
			RecordsPerPage: limit,
		},
	}, nil
}

// Sweep deletes movements older than the retention period and returns how
// many rows went.
func (s *Service) Sweep(ctx context.Context, now time.Time) (int64, error) {
	cutoff := now.UTC().Add(-s.cfg.Retention)
	res := s.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&TransactionHistory{})
	if res.Error != nil {
		zap.L().Error("failed to sweep transaction history", zap.Time("cutoff", cutoff), zap.Error(res.Error))
		return 0, res.Error
	}

	zap.L().Info("swept transaction history", zap.Time("cutoff", cutoff), zap.Int64("deleted", res.RowsAffected))
	return res.RowsAffected, nil
}
