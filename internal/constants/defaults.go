package constants

// Default queue configuration values
const (
	DefaultMaxQueueSize     = 1000
	DefaultMaxSendAttempts  = 10
	DefaultSweepIntervalSec = 1
)

// RetryDelaysSec is the fixed backoff ladder, indexed by retry count and
// clamped to the last tier.
var RetryDelaysSec = []int{1, 2, 5, 10, 30}

// Default network monitor values
const (
	DefaultProbeIntervalSec = 5
	DefaultProbeTimeoutSec  = 10
)

// Default store values
const (
	DefaultStoreRetryAttempts  = 3
	DefaultStoreRetryBackoffMs = 100
	DefaultStoreMaxBackoffMs   = 1000
	QueueRecordKey             = "offline_queue"
	QueueSchemaVersion         = 1
)

// Encryption settings
const (
	EncryptionSalt       = "sevalink-queue-salt-v1"
	EncryptionKeySize    = 32
	EncryptionNonceSize  = 12
	EncryptionIterations = 100000
)
