package domain

// TTLState classifies the outcome of a repository TTL probe. Keyed stores
// traditionally overload negative integers here (-1 no expiry, -2 missing);
// adapters translate those into an explicit state so callers never interpret
// raw sentinels.
type TTLState int

const (
	// TTLMissing means the key does not exist (or has already been evicted).
	TTLMissing TTLState = iota
	// TTLNoExpiry means the key exists but carries no expiry. Session
	// records are always written with one, so this is an anomaly worth
	// cleaning up.
	TTLNoExpiry
	// TTLRemaining means the key exists and Seconds holds its remaining
	// lifetime.
	TTLRemaining
)

// TTL is the result of a repository TTL probe. Seconds is only meaningful
// when State is TTLRemaining.
type TTL struct {
	State   TTLState
	Seconds int
}

// RemainingTTL builds a probe result for a live key.
func RemainingTTL(seconds int) TTL {
	return TTL{State: TTLRemaining, Seconds: seconds}
}
