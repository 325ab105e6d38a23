package featureflags

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"smallbiznis-rewards/pkg/config"
)

func TestUnconfiguredFlagsUseFallback(t *testing.T) {
	ff := ProvideFeatureFlag(FeatureParams{Config: &config.Config{}})

	require.True(t, ff.Enabled(context.Background(), SurveyDuplicateGuard, true))
	require.False(t, ff.Enabled(context.Background(), SurveyDuplicateGuard, false))
}

func TestStaticFlags(t *testing.T) {
	ff := Static{SurveyDuplicateGuard: true}

	require.True(t, ff.Enabled(context.Background(), SurveyDuplicateGuard, false))
	require.False(t, ff.Enabled(context.Background(), "unknown", false))
}
