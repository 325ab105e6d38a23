package schema

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"smallbiznis-rewards/services/billing"
	"smallbiznis-rewards/services/testutil"
)

func TestMigrateCreatesEveryTable(t *testing.T) {
	db := testutil.NewTestDB(t)
	require.NoError(t, Migrate(context.Background(), db))
	// second run is a no-op
	require.NoError(t, Migrate(context.Background(), db))

	for _, m := range Models() {
		require.True(t, db.Migrator().HasTable(m), "%T", m)
	}
	require.True(t, db.Migrator().HasIndex(&billing.PaymentHistory{}, "ux_campaign_payments_attempt"))
}
