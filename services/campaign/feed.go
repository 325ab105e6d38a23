package campaign

import (
	"context"

	"smallbiznis-rewards/pkg/db/option"
	"smallbiznis-rewards/pkg/errutil"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const defaultFeedPageSize = 3

type FeedRequest struct {
	Gender string `json:"gender"`
	UserID string `json:"userId"`
}

// FeedQuestion is a question as shown to viewers: no answer, no stats.
type FeedQuestion struct {
	Kind     QuestionKind `json:"kind"`
	Question string       `json:"question"`
	Option1  string       `json:"option1"`
	Option2  string       `json:"option2"`
	Option3  string       `json:"option3"`
	Option4  string       `json:"option4"`
}

type FeedItem struct {
	ID            string         `json:"_id"`
	WebsiteLink   string         `json:"websiteLink"`
	BrandName     string         `json:"brandName"`
	CampaignVideo string         `json:"campaignVideo"`
	BrandLogo     string         `json:"brandLogo"`
	Gender        GenderType     `json:"gender"`
	Status        bool           `json:"status"`
	Questions     []FeedQuestion `json:"questions"`
}

type FeedPage struct {
	Campaigns   []FeedItem `json:"campaigns"`
	CurrentPage int        `json:"currentPage"`
	TotalPages  int        `json:"totalPages"`
}

func otherGender(g GenderType) GenderType {
	if g == GenderTypeMale {
		return GenderTypeFemale
	}
	return GenderTypeMale
}

func (s *Service) pageSize() int {
	if s.cfg.FeedPageSize > 0 {
		return s.cfg.FeedPageSize
	}
	return defaultFeedPageSize
}

// notViewedBy excludes campaigns the user has already been rewarded for.
func (s *Service) notViewedBy(userID string) option.QueryOption {
	return func(q *gorm.DB) *gorm.DB {
		if userID == "" {
			return q
		}
		viewed := s.db.Model(&UserCampaignView{}).Select("campaign_id").Where("user_id = ?", userID)
		return q.Where("id NOT IN (?)", viewed)
	}
}

// Feed lists active campaigns for a gender, newest first, skipping the ones
// the user was already rewarded for. A short last page is filled up with
// campaigns targeted at the other gender.
func (s *Service) Feed(ctx context.Context, req FeedRequest, page int) (*FeedPage, error) {
	gender := GenderType(req.Gender)
	if gender != GenderTypeMale && gender != GenderTypeFemale {
		return nil, errutil.BadRequest("Please provide a valid gender (Male or Female)", nil)
	}
	if page < 1 {
		page = 1
	}
	size := s.pageSize()
	exclude := s.notViewedBy(req.UserID)

	var (
		total     int64
		campaigns []*Campaign
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		total, err = s.campaign.Count(gctx, &Campaign{Status: CampaignStatusActive, GenderType: gender}, exclude)
		return err
	})
	g.Go(func() (err error) {
		campaigns, err = s.campaign.Find(gctx,
			&Campaign{Status: CampaignStatusActive, GenderType: gender},
			exclude,
			option.WithSortBy(option.QuerySortBy{SortBy: "created_at", OrderBy: "desc"}),
			option.WithOffset((page-1)*size),
			option.WithLimit(size),
		)
		return err
	})
	if err := g.Wait(); err != nil {
		zap.L().With(logFields(ctx)...).Error("failed to query campaign feed", zap.Error(err))
		return nil, errutil.Internal("Internal server error", err)
	}

	totalPages := int((total + int64(size) - 1) / int64(size))
	if totalPages < 1 {
		totalPages = 1
	}

	if len(campaigns) < size && totalPages <= page {
		extra, err := s.campaign.Find(ctx,
			&Campaign{Status: CampaignStatusActive, GenderType: otherGender(gender)},
			exclude,
			option.WithSortBy(option.QuerySortBy{SortBy: "created_at", OrderBy: "desc"}),
			option.WithLimit(size-len(campaigns)),
		)
		if err != nil {
			zap.L().With(logFields(ctx)...).Error("failed to top up campaign feed", zap.Error(err))
			return nil, errutil.Internal("Internal server error", err)
		}
		campaigns = append(campaigns, extra...)
	}

	items, err := s.feedItems(ctx, campaigns)
	if err != nil {
		return nil, err
	}

	return &FeedPage{
		Campaigns:   items,
		CurrentPage: page,
		TotalPages:  totalPages,
	}, nil
}

func (s *Service) feedItems(ctx context.Context, campaigns []*Campaign) ([]FeedItem, error) {
	items := make([]FeedItem, 0, len(campaigns))
	if len(campaigns) == 0 {
		return items, nil
	}

	ids := make([]string, 0, len(campaigns))
	for _, c := range campaigns {
		ids = append(ids, c.ID)
	}
	questions, err := s.question.Find(ctx, nil,
		option.WithWhere("campaign_id IN ?", ids),
		option.WithSortBy(option.QuerySortBy{SortBy: "kind", OrderBy: "asc", Allow: map[string]bool{"kind": true}}),
	)
	if err != nil {
		zap.L().With(logFields(ctx)...).Error("failed to query feed questions", zap.Error(err))
		return nil, errutil.Internal("Internal server error", err)
	}

	byCampaign := make(map[string][]FeedQuestion, len(campaigns))
	for _, q := range questions {
		byCampaign[q.CampaignID] = append(byCampaign[q.CampaignID], FeedQuestion{
			Kind:     q.Kind,
			Question: q.Prompt,
			Option1:  q.Option1,
			Option2:  q.Option2,
			Option3:  q.Option3,
			Option4:  q.Option4,
		})
	}

	for _, c := range campaigns {
		qs := byCampaign[c.ID]
		if qs == nil {
			qs = []FeedQuestion{}
		}
		items = append(items, FeedItem{
			ID:            c.ID,
			WebsiteLink:   c.WebsiteLink,
			BrandName:     c.BrandName,
			CampaignVideo: c.VideoURL,
			BrandLogo:     c.CompanyLogo,
			Gender:        c.GenderType,
			Questions:     qs,
		})
	}
	return items, nil
}
