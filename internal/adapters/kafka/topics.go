package kafka

// Topic definitions for Kafka event streaming
const (
	// Analysis events
	TopicZoneDetected      = "analysis.zones"
	TopicSweepDetected     = "analysis.sweeps"
	TopicStructureBreak    = "analysis.structure"
	TopicBreakoutValidated = "analysis.breakouts"

	// System events
	TopicWorkerFailed = "system.worker_failures"
)
