package notification

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"smallbiznis-rewards/pkg/errutil"
	"smallbiznis-rewards/pkg/mailer"
	"smallbiznis-rewards/pkg/task"
	"smallbiznis-rewards/services/user"

	"github.com/hibiken/asynq"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var completedTemplate = template.Must(template.New("campaign_completed").Parse(`<p>Hello {{.Name}},</p>
<p>Your campaign <strong>"{{.Title}}"</strong> has successfully reached its engagement goal!</p>
<p><strong>Engagement Details:</strong></p>
<ul>
  <li>Target: {{.Goal}} engagements</li>
  <li>Achieved: {{.Achieved}} engagements</li>
  <li>Completion Date: {{.Date}}</li>
</ul>
<p>Thank you for using our platform!</p>
<p>Best regards,<br>Your Marketing Team</p>
`))

type Handler struct {
	users  *user.Service
	mailer mailer.Mailer
}

type HandlerParams struct {
	fx.In
	Users  *user.Service
	Mailer mailer.Mailer
}

func NewHandler(p HandlerParams) *Handler {
	return &Handler{users: p.Users, mailer: p.Mailer}
}

// HandleCampaignCompleted mails the campaign owner. Owners without an email
// are skipped.
func (h *Handler) HandleCampaignCompleted(ctx context.Context, t *asynq.Task) error {
	var ev CampaignCompleted
	if err := task.DecodePayload(t, &ev); err != nil {
		return err
	}

	owner, err := h.users.GetBusiness(ctx, ev.OwnerID)
	if err != nil {
		if errutil.IsStatus(err, errutil.StatusNotFound) {
			zap.L().Warn("campaign owner not found, skipping completion mail",
				zap.String("campaign_id", ev.CampaignID),
				zap.String("owner_id", ev.OwnerID),
			)
			return nil
		}
		return err
	}
	if owner.BusinessEmail == "" {
		return nil
	}

	body, err := renderCompleted(owner, ev)
	if err != nil {
		return fmt.Errorf("render completion mail: %v: %w", err, asynq.SkipRetry)
	}

	return h.mailer.Send(ctx, mailer.Message{
		To:      owner.BusinessEmail,
		Subject: "Campaign Completed: " + ev.Title,
		HTML:    body,
	})
}

func renderCompleted(owner *user.BusinessUser, ev CampaignCompleted) (string, error) {
	name := owner.Name
	if name == "" {
		name = "Business User"
	}

	var buf bytes.Buffer
	err := completedTemplate.Execute(&buf, map[string]any{
		"Name":     name,
		"Title":    ev.Title,
		"Goal":     ev.Goal,
		"Achieved": ev.Achieved,
		"Date":     ev.CompletedAt.UTC().Format("January 2, 2006"),
	})
	return buf.String(), err
}
