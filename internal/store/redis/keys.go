package redis

import "strings"

const (
	// KeyPrefix namespaces every key written by tenancy.
	KeyPrefix = "tenancy:"
	// KeyUsage is the hash of request counters, field = service name.
	KeyUsage = KeyPrefix + "usage"
	// KeyLastSeen is the hash of last request times (unix seconds), field = service name.
	KeyLastSeen = KeyPrefix + "last_seen"
)

// UsageKey returns the counters hash, optionally scoped (ex: per root path)
// so several deployments can share one Redis database.
func UsageKey(scope string) string {
	return scopedKey(KeyUsage, scope)
}

// LastSeenKey returns the last-seen hash for scope.
func LastSeenKey(scope string) string {
	return scopedKey(KeyLastSeen, scope)
}

func scopedKey(key, scope string) string {
	scope = strings.Trim(scope, ":")
	if scope == "" {
		return key
	}
	return key + ":" + scope
}
