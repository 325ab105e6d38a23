package user

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"smallbiznis-rewards/pkg/errutil"
	"smallbiznis-rewards/services/testutil"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func TestAgeGroupOf(t *testing.T) {
	cases := map[int]AgeGroup{
		0:  AgeGroup18To24,
		17: AgeGroup18To24,
		18: AgeGroup18To24,
		24: AgeGroup18To24,
		25: AgeGroup25To33,
		33: AgeGroup25To33,
		34: AgeGroup18To24,
		35: AgeGroup35To44,
		44: AgeGroup35To44,
		45: AgeGroup45Plus,
		90: AgeGroup45Plus,
	}
	for age, want := range cases {
		require.Equal(t, want, AgeGroupOf(age), "age %d", age)
	}
}

func TestNormalizeGender(t *testing.T) {
	g, err := NormalizeGender("Male")
	require.NoError(t, err)
	require.Equal(t, GenderMale, g)

	g, err = NormalizeGender("")
	require.NoError(t, err)
	require.Equal(t, GenderOther, g)

	_, err = NormalizeGender("robot")
	require.Error(t, err)
	require.True(t, errutil.IsStatus(err, errutil.StatusBadRequest))
}

func TestAgeFromDateOfBirth(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

	require.Equal(t, 30, AgeFromDateOfBirth("1996-06-15", now))
	require.Equal(t, 29, AgeFromDateOfBirth("1996-06-16", now))
	require.Equal(t, 0, AgeFromDateOfBirth("", now))
	require.Equal(t, 0, AgeFromDateOfBirth("not-a-date", now))
}

func TestDemographics(t *testing.T) {
	db := testutil.NewTestDB(t, &User{})
	svc := NewService(Params{DB: db})
	svc.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	require.NoError(t, db.Create(&User{ID: "1", Email: "a@x.io", Age: 40, Gender: "FEMALE"}).Error)
	require.NoError(t, db.Create(&User{ID: "2", Email: "b@x.io", DateOfBirth: "2000-06-01", Gender: "male"}).Error)
	require.NoError(t, db.Create(&User{ID: "3", Email: "c@x.io", Gender: "unknown"}).Error)

	d, err := svc.Demographics(ctx, "1")
	require.NoError(t, err)
	require.Equal(t, AgeGroup35To44, d.AgeGroup)
	require.Equal(t, GenderFemale, d.Gender)

	d, err = svc.Demographics(ctx, "2")
	require.NoError(t, err)
	require.Equal(t, 25, d.Age)
	require.Equal(t, AgeGroup25To33, d.AgeGroup)

	_, err = svc.Demographics(ctx, "3")
	require.True(t, errutil.IsStatus(err, errutil.StatusBadRequest))

	_, err = svc.Demographics(ctx, "404")
	require.True(t, errutil.IsStatus(err, errutil.StatusNotFound))
}
