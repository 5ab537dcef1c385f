package domaincheck

import "time"

// CachePolicy controls cache TTLs per lookup outcome.
type CachePolicy struct {
	AvailableTTL time.Duration
	TakenTTL     time.Duration
	ErrorTTL     time.Duration
}

func cachePolicyWithDefaults(policy CachePolicy) CachePolicy {
	if policy.AvailableTTL == 0 {
		policy.AvailableTTL = 5 * time.Minute
	}
	if policy.TakenTTL == 0 {
		policy.TakenTTL = time.Hour
	}
	if policy.ErrorTTL == 0 {
		policy.ErrorTTL = 30 * time.Second
	}
	return policy
}

func cacheTTL(policy CachePolicy, status Status) time.Duration {
	policy = cachePolicyWithDefaults(policy)

	switch status {
	case StatusAvailable:
		return policy.AvailableTTL
	case StatusTaken:
		return policy.TakenTTL
	default:
		return policy.ErrorTTL
	}
}
