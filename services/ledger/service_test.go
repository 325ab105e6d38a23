package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"smallbiznis-rewards/pkg/config"
	"smallbiznis-rewards/pkg/db/option"
	"smallbiznis-rewards/pkg/errutil"
	"smallbiznis-rewards/pkg/middleware"
	"smallbiznis-rewards/pkg/repository"
	"smallbiznis-rewards/services/testutil"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type repoMock[T any] struct {
	findFn  func(ctx context.Context, query *T, opts ...option.QueryOption) ([]*T, error)
	countFn func(ctx context.Context, query *T, opts ...option.QueryOption) (int64, error)
}

func (m *repoMock[T]) WithTrx(tx *gorm.DB) repository.Repository[T] { return m }

func (m *repoMock[T]) Find(ctx context.Context, query *T, opts ...option.QueryOption) ([]*T, error) {
	if m.findFn != nil {
		return m.findFn(ctx, query, opts...)
	}
	return nil, nil
}

func (m *repoMock[T]) FindOne(ctx context.Context, query *T, opts ...option.QueryOption) (*T, error) {
	return nil, nil
}

func (m *repoMock[T]) Create(ctx context.Context, resource *T) error { return nil }

func (m *repoMock[T]) Update(ctx context.Context, resourceID string, resource any) error {
	return nil
}

func (m *repoMock[T]) BatchCreate(ctx context.Context, resources []*T) error { return nil }

func (m *repoMock[T]) Count(ctx context.Context, query *T, opts ...option.QueryOption) (int64, error) {
	if m.countFn != nil {
		return m.countFn(ctx, query, opts...)
	}
	return 0, nil
}

var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := testutil.NewTestDB(t, &TransactionHistory{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Ledger.HistoryWindow = 7 * 24 * time.Hour
	cfg.Ledger.Retention = 7 * 24 * time.Hour

	svc := NewService(ServiceParams{DB: db, Node: node, Config: cfg})
	svc.now = func() time.Time { return fixedNow }
	return svc, db
}

func seed(t *testing.T, db *gorm.DB, id, userID string, amount string, at time.Time) {
	t.Helper()
	require.NoError(t, db.Create(&TransactionHistory{
		ID:        id,
		UserID:    userID,
		Amount:    decimal.RequireFromString(amount),
		Type:      EntryTypeEarning,
		CreatedAt: at,
	}).Error)
}

func TestListHistoryRequiresUser(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.ListHistory(context.Background(), ListHistoryRequest{})
	require.True(t, errutil.IsStatus(err, errutil.StatusBadRequest))
}

func TestListHistoryWindowAndPaging(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	seed(t, db, "1", "u1", "0.10", fixedNow.Add(-1*time.Hour))
	seed(t, db, "2", "u1", "0.20", fixedNow.Add(-2*time.Hour))
	seed(t, db, "3", "u1", "0.30", fixedNow.Add(-3*time.Hour))
	seed(t, db, "4", "u1", "0.40", fixedNow.Add(-8*24*time.Hour))
	seed(t, db, "5", "u2", "0.50", fixedNow.Add(-1*time.Hour))

	resp, err := svc.ListHistory(ctx, ListHistoryRequest{UserID: "u1", Page: 1, Limit: 2})
	require.NoError(t, err)
	require.Len(t, resp.Data, 2)
	require.Equal(t, "1", resp.Data[0].ID)
	require.Equal(t, "2", resp.Data[1].ID)
	require.Equal(t, Pagination{TotalRecords: 3, CurrentPage: 1, TotalPages: 2, RecordsPerPage: 2}, resp.Pagination)

	resp, err = svc.ListHistory(ctx, ListHistoryRequest{UserID: "u1", Page: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, resp.Data, 1)
	require.Equal(t, "3", resp.Data[0].ID)

	resp, err = svc.ListHistory(ctx, ListHistoryRequest{UserID: "u1"})
	require.NoError(t, err)
	require.Equal(t, 10, resp.Pagination.RecordsPerPage)
	require.Equal(t, 1, resp.Pagination.CurrentPage)

	resp, err = svc.ListHistory(ctx, ListHistoryRequest{UserID: "u1", Limit: 100000})
	require.NoError(t, err)
	require.Equal(t, 100, resp.Pagination.RecordsPerPage)
	require.Equal(t, 1, resp.Pagination.TotalPages)
	require.Len(t, resp.Data, 3)
}

func TestListHistoryCountError(t *testing.T) {
	svc := &Service{
		now: time.Now,
		history: &repoMock[TransactionHistory]{
			countFn: func(ctx context.Context, _ *TransactionHistory, _ ...option.QueryOption) (int64, error) {
				return 0, errors.New("boom")
			},
		},
	}

	_, err := svc.ListHistory(context.Background(), ListHistoryRequest{UserID: "u1"})
	require.True(t, errutil.IsStatus(err, errutil.StatusInternal))
}

func TestSweepRemovesOnlyExpiredRows(t *testing.T) {
	svc, db := newTestService(t)

	seed(t, db, "1", "u1", "0.10", fixedNow.Add(-6*24*time.Hour))
	seed(t, db, "2", "u1", "0.20", fixedNow.Add(-8*24*time.Hour))
	seed(t, db, "3", "u2", "0.30", fixedNow.Add(-30*24*time.Hour))

	deleted, err := svc.Sweep(context.Background(), fixedNow)
	require.NoError(t, err)
	require.Equal(t, int64(2), deleted)

	var remaining []TransactionHistory
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	require.Equal(t, "1", remaining[0].ID)
}

func TestReadsDoNotDelete(t *testing.T) {
	svc, db := newTestService(t)
	seed(t, db, "1", "u1", "0.10", fixedNow.Add(-30*24*time.Hour))

	_, err := svc.ListHistory(context.Background(), ListHistoryRequest{UserID: "u1"})
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&TransactionHistory{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestAppendRoundsAmount(t *testing.T) {
	svc, _ := newTestService(t)

	entry, err := svc.Append(context.Background(), nil, "u1", decimal.RequireFromString("0.125"), EntryTypeEarning)
	require.NoError(t, err)
	require.Equal(t, "0.13", entry.Amount.StringFixed(2))
	require.NotEmpty(t, entry.ID)
}

func TestHistoryHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc, db := newTestService(t)
	seed(t, db, "1", "u1", "0.10", fixedNow.Add(-1*time.Hour))

	r := gin.New()
	r.Use(middleware.Error())
	NewHandler(svc).Register(r)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/subscription/getUserTransactionHistory", strings.NewReader(`{"userId":"u1"}`)))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Success    bool                 `json:"success"`
		Data       []TransactionHistory `json:"data"`
		Pagination Pagination           `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.True(t, body.Success)
	require.Len(t, body.Data, 1)
	require.Equal(t, int64(1), body.Pagination.TotalRecords)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/subscription/getUserTransactionHistory", strings.NewReader(`{}`)))
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "User ID is required")
}
