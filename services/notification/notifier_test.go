package notification

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"smallbiznis-rewards/pkg/mailer"
	"smallbiznis-rewards/pkg/taskname"
	"smallbiznis-rewards/services/testutil"
	"smallbiznis-rewards/services/user"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type enqueuerFake struct {
	tasks []*asynq.Task
	err   error
}

func (f *enqueuerFake) Enqueue(ctx context.Context, t *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, t)
	return &asynq.TaskInfo{ID: "task-1", Type: t.Type()}, nil
}

type notifierFake struct {
	calls int
	err   error
}

func (f *notifierFake) CampaignCompleted(ctx context.Context, ev CampaignCompleted) error {
	f.calls++
	return f.err
}

type mailerFake struct {
	sent []mailer.Message
	err  error
}

func (f *mailerFake) Send(ctx context.Context, msg mailer.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func TestTaskNotifierEnqueuesPayload(t *testing.T) {
	enq := &enqueuerFake{}
	n := NewTaskNotifier(enq)

	ev := CampaignCompleted{CampaignID: "10", OwnerID: "20", Title: "Spring Sale", Goal: 5, Achieved: 5}
	require.NoError(t, n.CampaignCompleted(context.Background(), ev))
	require.Len(t, enq.tasks, 1)
	require.Equal(t, taskname.NotificationCampaignCompleted, enq.tasks[0].Type())

	var got CampaignCompleted
	require.NoError(t, json.Unmarshal(enq.tasks[0].Payload(), &got))
	require.Equal(t, ev.CampaignID, got.CampaignID)
	require.Equal(t, int64(5), got.Achieved)
}

func TestTaskNotifierEnqueueError(t *testing.T) {
	n := NewTaskNotifier(&enqueuerFake{err: errors.New("redis down")})
	require.Error(t, n.CampaignCompleted(context.Background(), CampaignCompleted{CampaignID: "10"}))
}

func TestBestEffortSwallowsErrors(t *testing.T) {
	fake := &notifierFake{err: errors.New("boom")}
	b := NewBestEffort(fake)

	require.NotPanics(t, func() {
		b.CampaignCompleted(context.Background(), CampaignCompleted{CampaignID: "10"})
	})
	require.Equal(t, 1, fake.calls)

	var nilSink *BestEffort
	require.NotPanics(t, func() {
		nilSink.CampaignCompleted(context.Background(), CampaignCompleted{})
	})
}

func newTestHandler(t *testing.T, m mailer.Mailer) *Handler {
	t.Helper()
	db := testutil.NewTestDB(t, &user.BusinessUser{})
	require.NoError(t, db.Create(&user.BusinessUser{ID: "20", Name: "Acme", BusinessEmail: "owner@acme.io"}).Error)
	require.NoError(t, db.Create(&user.BusinessUser{ID: "21", Name: "No Mail"}).Error)
	return NewHandler(HandlerParams{Users: user.NewService(user.Params{DB: db}), Mailer: m})
}

func completedTask(t *testing.T, ownerID string) *asynq.Task {
	t.Helper()
	b, err := json.Marshal(CampaignCompleted{
		CampaignID:  "10",
		OwnerID:     ownerID,
		Title:       "Spring Sale",
		Goal:        5,
		Achieved:    5,
		CompletedAt: time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return asynq.NewTask(taskname.NotificationCampaignCompleted, b)
}

func TestHandleCampaignCompletedSendsMail(t *testing.T) {
	m := &mailerFake{}
	h := newTestHandler(t, m)

	require.NoError(t, h.HandleCampaignCompleted(context.Background(), completedTask(t, "20")))
	require.Len(t, m.sent, 1)
	require.Equal(t, "owner@acme.io", m.sent[0].To)
	require.Equal(t, "Campaign Completed: Spring Sale", m.sent[0].Subject)
	require.Contains(t, m.sent[0].HTML, "Target: 5 engagements")
	require.Contains(t, m.sent[0].HTML, "April 2, 2026")
}

func TestHandleCampaignCompletedSkipsWithoutEmail(t *testing.T) {
	m := &mailerFake{}
	h := newTestHandler(t, m)

	require.NoError(t, h.HandleCampaignCompleted(context.Background(), completedTask(t, "21")))
	require.NoError(t, h.HandleCampaignCompleted(context.Background(), completedTask(t, "404")))
	require.Empty(t, m.sent)
}

func TestHandleCampaignCompletedBadPayload(t *testing.T) {
	h := newTestHandler(t, &mailerFake{})

	err := h.HandleCampaignCompleted(context.Background(), asynq.NewTask(taskname.NotificationCampaignCompleted, []byte("{")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}
