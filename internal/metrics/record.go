package metrics

// The Record helpers are no-ops until Initialize has been called, so domain
// packages can record unconditionally.

func RecordNotification(notificationType, outcome string) {
	if m := Get(); m != nil {
		m.NotificationsTotal.WithLabelValues(notificationType, outcome).Inc()
	}
}

func SetNotificationQueueDepth(depth int) {
	if m := Get(); m != nil {
		m.NotificationQueue.Set(float64(depth))
	}
}

func RecordReaction(targetType, kind, result string) {
	if m := Get(); m != nil {
		m.ReactionsTotal.WithLabelValues(targetType, kind, result).Inc()
	}
}

func RecordReport(targetType, reason string) {
	if m := Get(); m != nil {
		m.ReportsTotal.WithLabelValues(targetType, reason).Inc()
	}
}

func RecordDoctorDecision(decision string) {
	if m := Get(); m != nil {
		m.DoctorDecisions.WithLabelValues(decision).Inc()
	}
}

func RecordEventRegistration(action, outcome string) {
	if m := Get(); m != nil {
		m.EventRegistrations.WithLabelValues(action, outcome).Inc()
	}
}

func RecordMessageSent(transport string) {
	if m := Get(); m != nil {
		m.MessagesSentTotal.WithLabelValues(transport).Inc()
	}
}

func AddWebSocketConnections(delta int) {
	if m := Get(); m != nil {
		m.WebSocketConnections.Add(float64(delta))
	}
}

func RecordCacheHit(cacheName string) {
	if m := Get(); m != nil {
		m.CacheHitsTotal.WithLabelValues(cacheName).Inc()
	}
}

func RecordCacheMiss(cacheName string) {
	if m := Get(); m != nil {
		m.CacheMissesTotal.WithLabelValues(cacheName).Inc()
	}
}

func RecordRateLimitExceeded(endpoint, method string) {
	if m := Get(); m != nil {
		m.RateLimitExceededTotal.WithLabelValues(endpoint, method).Inc()
	}
}

func RecordError(errorType, component string) {
	if m := Get(); m != nil {
		m.ErrorsTotal.WithLabelValues(errorType, component).Inc()
	}
}
