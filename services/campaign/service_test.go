package campaign

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"smallbiznis-rewards/pkg/config"
	"smallbiznis-rewards/pkg/errutil"
	"smallbiznis-rewards/pkg/featureflags"
	"smallbiznis-rewards/services/ledger"
	"smallbiznis-rewards/services/notification"
	"smallbiznis-rewards/services/reward"
	"smallbiznis-rewards/services/testutil"
	"smallbiznis-rewards/services/user"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type notifierFake struct {
	mu     sync.Mutex
	events []notification.CampaignCompleted
	err    error
}

func (f *notifierFake) CampaignCompleted(ctx context.Context, ev notification.CampaignCompleted) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return f.err
}

func (f *notifierFake) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

type testEnv struct {
	svc      *Service
	db       *gorm.DB
	notifier *notifierFake
}

func newTestEnv(t *testing.T, flags featureflags.FeatureFlag) *testEnv {
	t.Helper()
	db := testutil.NewTestDB(t,
		&user.User{},
		&ledger.TransactionHistory{},
		&Campaign{},
		&Question{},
		&DemographicCount{},
		&DailyCount{},
		&WatchTime{},
		&UserCampaignView{},
		&SurveySubmission{},
		&VideoWatchUser{},
	)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Campaign.MaxWatchSeconds = 30
	cfg.Campaign.FeedPageSize = 3
	cfg.Ledger.HistoryWindow = 7 * 24 * time.Hour

	users := user.NewService(user.Params{DB: db})
	led := ledger.NewService(ledger.ServiceParams{DB: db, Node: node, Config: cfg})
	fake := &notifierFake{}

	svc := NewService(ServiceParams{
		DB:       db,
		Config:   cfg,
		Flags:    flags,
		Users:    users,
		Rewards:  reward.NewService(reward.Params{DB: db, Ledger: led}),
		Notifier: notification.NewBestEffort(fake),
	})
	return &testEnv{svc: svc, db: db, notifier: fake}
}

func (e *testEnv) seedUser(t *testing.T, id string, plan user.Plan) {
	t.Helper()
	require.NoError(t, e.db.Create(&user.User{
		ID:               id,
		FullName:         "Viewer " + id,
		Email:            id + "@example.com",
		Age:              29,
		Gender:           "Female",
		SubscriptionPlan: plan,
	}).Error)
}

func (e *testEnv) seedCampaign(t *testing.T, c Campaign) *Campaign {
	t.Helper()
	if c.Status == "" {
		c.Status = CampaignStatusActive
	}
	if c.GenderType == "" {
		c.GenderType = GenderTypeFemale
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	require.NoError(t, e.db.Create(&c).Error)
	return &c
}

func (e *testEnv) seedQuestion(t *testing.T, q Question) {
	t.Helper()
	if q.Option1 == "" {
		q.Option1, q.Option2, q.Option3, q.Option4 = "Red", "Green", "Blue", "Black"
	}
	require.NoError(t, e.db.Create(&q).Error)
}

func (e *testEnv) reload(t *testing.T, id string) *Campaign {
	t.Helper()
	var c Campaign
	require.NoError(t, e.db.Where("id = ?", id).Take(&c).Error)
	return &c
}

func requireStatus(t *testing.T, err error, code errutil.CoreStatus, msg string) errutil.BaseError {
	t.Helper()
	require.Error(t, err)
	be, ok := errutil.As(err)
	require.True(t, ok, "expected BaseError, got %v", err)
	require.Equal(t, code, be.Code)
	if msg != "" {
		require.Equal(t, msg, be.Message)
	}
	return be
}

func TestNumericAcceptsNumbersAndStrings(t *testing.T) {
	var req QuizRequest
	require.NoError(t, json.Unmarshal([]byte(`{"questionResponse":"2","watchTime":12.7}`), &req))

	n, ok := req.QuestionResponse.Int()
	require.True(t, ok)
	require.Equal(t, 2, n)

	n, ok = req.WatchTime.Int()
	require.True(t, ok)
	require.Equal(t, 12, n)

	_, ok = Numeric("abc").Int()
	require.False(t, ok)
	require.False(t, Numeric("").Present())

	n, ok = Numeric("-3px").Int()
	require.True(t, ok)
	require.Equal(t, -3, n)

	_, ok = Numeric("99999999999").Int()
	require.False(t, ok)

	require.NoError(t, json.Unmarshal([]byte(`{"watchTime":null}`), &req))
	require.False(t, req.WatchTime.Present())
}

func TestNewServiceDefaultsFlags(t *testing.T) {
	env := newTestEnv(t, nil)
	require.NotNil(t, env.svc.flags)
	require.False(t, env.svc.surveyGuardEnabled(context.Background()))
}

func TestBalancesRenderAsNumbers(t *testing.T) {
	b, err := json.Marshal(BalanceDetails{TotalBalance: decimal.RequireFromString("1.5")})
	require.NoError(t, err)
	require.Contains(t, string(b), `"totalBalance":1.5`)
}
