package user

import (
	"context"
	"time"

	"smallbiznis-rewards/pkg/errutil"
	"smallbiznis-rewards/pkg/repository"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db  *gorm.DB
	now func() time.Time

	users    repository.Repository[User]
	business repository.Repository[BusinessUser]
}

type Params struct {
	fx.In
	DB *gorm.DB
}

func NewService(p Params) *Service {
	return &Service{
		db:  p.DB,
		now: time.Now,

		users:    repository.ProvideStore[User](p.DB),
		business: repository.ProvideStore[BusinessUser](p.DB),
	}
}

func (s *Service) Get(ctx context.Context, userID string) (*User, error) {
	u, err := s.users.FindOne(ctx, &User{ID: userID})
	if err != nil {
		zap.L().With(logFields(ctx)...).Error("failed to query user", zap.String("user_id", userID), zap.Error(err))
		return nil, errutil.Internal("Internal server error", err)
	}
	if u == nil {
		return nil, errutil.NotFound("User not found", nil)
	}
	return u, nil
}

func (s *Service) GetBusiness(ctx context.Context, ownerID string) (*BusinessUser, error) {
	b, err := s.business.FindOne(ctx, &BusinessUser{ID: ownerID})
	if err != nil {
		return nil, errutil.Internal("Internal server error", err)
	}
	if b == nil {
		return nil, errutil.NotFound("Business user not found", nil)
	}
	return b, nil
}

// Demographics resolves the user's age group and normalized gender.
func (s *Service) Demographics(ctx context.Context, userID string) (*Demographics, error) {
	u, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.DemographicsOf(u)
}

// DemographicsOf is Demographics for an already loaded user.
func (s *Service) DemographicsOf(u *User) (*Demographics, error) {
	age := u.Age
	if age <= 0 {
		age = AgeFromDateOfBirth(u.DateOfBirth, s.now())
	}

	gender, err := NormalizeGender(u.Gender)
	if err != nil {
		return nil, err
	}

	return &Demographics{
		Age:      age,
		AgeGroup: AgeGroupOf(age),
		Gender:   gender,
	}, nil
}

func logFields(ctx context.Context) []zap.Field {
	sc := trace.SpanFromContext(ctx).SpanContext()
	return []zap.Field{
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	}
}
