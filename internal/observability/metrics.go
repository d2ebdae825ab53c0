package observability

const (
	MUsecaseRequests    MetricKey = "usecase_requests_total"
	MUsecaseDuration    MetricKey = "usecase_duration_seconds"
	MStockAdjustments   MetricKey = "stock_adjustments_total"
	MNotificationSent   MetricKey = "notification_sent_total"
	MNotificationFailed MetricKey = "notification_failed_total"
	MRestockNotified    MetricKey = "restock_notifications_total"
	MEventPublishFailed MetricKey = "event_publish_failed_total"
)
