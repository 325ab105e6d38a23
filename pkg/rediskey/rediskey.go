package rediskey

import "fmt"

const (
	RateLimitPrefix = "ratelimit"
	LockPrefix      = "lock"
	SequencePrefix  = "seq"
)

func NamespaceKey(namespace, key string) string {
	return fmt.Sprintf("%s:%s", namespace, key)
}

// BuildRateLimitKey returns "ratelimit:{scope}:{subject}"
func BuildRateLimitKey(scope, subject string) string {
	return NamespaceKey(RateLimitPrefix, NamespaceKey(scope, subject))
}

// BuildLockKey returns "lock:{name}"
func BuildLockKey(name string) string {
	return NamespaceKey(LockPrefix, name)
}

// BuildSequenceKey returns "seq:{prefix}:{day}"
func BuildSequenceKey(prefix, day string) string {
	return NamespaceKey(SequencePrefix, NamespaceKey(prefix, day))
}
