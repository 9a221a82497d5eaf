package kafka_client

const (
	KAFKA_TOPIC_ANALYSIS_RESULTS = "text-analysis-results"

	FLUSH_TIMEOUT_MS    = 5000
	DELIVERY_TIMEOUT_MS = 30000
)
