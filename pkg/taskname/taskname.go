package taskname

const (
	// Notification tasks
	NotificationCampaignCompleted = "notification:campaign:completed"

	// Billing tasks
	BillingDeductDaily = "billing:deduct:daily"

	// Ledger tasks
	LedgerRetentionSweep = "ledger:retention:sweep"
)
