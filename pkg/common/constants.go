package common

const (
	RedisStreamPredictionResolution = "prediction.resolution"

	RedisStreamGroup    = "scoring-group"
	RedisStreamConsumer = "scoring-consumer"

	// HeaderUserID carries the already-authenticated user identity
	// resolved by the auth layer in front of this service.
	HeaderUserID = "X-User-ID"
)
