package syncengine

import "time"

const (
	defaultWorkerCount = 20

	sleepDuration     = 5 * time.Second
	idleSleepDuration = 5 * time.Second

	// GapFillProgressThreshold is the progress percentage at or above
	// which a cycle runs the gap-detection pass instead of a large
	// forward/backward plan.
	GapFillProgressThreshold = 95.0

	nearCompletionForwardCap  uint64 = 500
	nearCompletionBackwardCap uint64 = 1000

	gapFillRecentWindowDays      = 3
	gapFillHistoricalWindowDays  = 7

	progressPublishEveryNBatches = 2

	senderResolveConcurrencyCap = 15

	secondsPerDay int64 = 86400
)
