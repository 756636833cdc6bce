package metrics

import "time"

// RecordItemsGathered records how many candidates a branch found in a run,
// before dedup and persistence.
func RecordItemsGathered(branch string, count int) {
	ItemsGatheredTotal.WithLabelValues(branch).Add(float64(count))
}

// RecordItemsPersisted records a branch's persist outcome for one candidate:
// whether it was written as new or dropped as a duplicate.
func RecordItemsPersisted(branch string, persisted bool) {
	if persisted {
		ItemsPersistedTotal.WithLabelValues(branch).Inc()
		return
	}
	ItemsDuplicateTotal.WithLabelValues(branch).Inc()
}

// RecordExtraction records the outcome and duration of one extract-and-summarize
// call. Kind is "web", "feed", or "video".
func RecordExtraction(kind string, duration time.Duration, err error) {
	ExtractionDuration.WithLabelValues(kind).Observe(duration.Seconds())
	if err != nil {
		ExtractionErrorsTotal.WithLabelValues(kind).Inc()
	}
}

// RecordBranchDuration records how long a gatherer branch ran for in one run.
func RecordBranchDuration(branch string, duration time.Duration) {
	BranchDuration.WithLabelValues(branch).Observe(duration.Seconds())
}

// RecordDigestSize records the number of items in a synthesized digest.
func RecordDigestSize(count int) {
	DigestItemsTotal.Observe(float64(count))
}

// UpdateNewsItemsTotal updates the gauge tracking total news items stored.
func UpdateNewsItemsTotal(count int) {
	NewsItemsTotal.Set(float64(count))
}

// UpdateSourcesTotal updates the gauge tracking active sources of one kind
// ("topic", "feed", "channel").
func UpdateSourcesTotal(kind string, count int) {
	SourcesTotal.WithLabelValues(kind).Set(float64(count))
}

// UpdateDBConnectionStats updates database connection pool statistics.
func UpdateDBConnectionStats(active, idle int) {
	DBConnectionsActive.Set(float64(active))
	DBConnectionsIdle.Set(float64(idle))
}
