package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const (
	GlobalKeyPrefix = "moviequiz"

	QuestionServiceName = "question"
	TourServiceName     = "tour"
)

// GenerateCacheKey joins the prefix, service, object type and identifier
// with ":". Extra params are joined by "_" and appended as the last segment.
func GenerateCacheKey(serviceName, objectType, identifier string, paramsKey ...string) string {
	baseKey := strings.Join([]string{GlobalKeyPrefix, serviceName, objectType, identifier}, ":")
	if len(paramsKey) > 0 {
		return strings.Join([]string{baseKey, strings.Join(paramsKey, "_")}, ":")
	}
	return baseKey
}

// CandidatePoolKey addresses the cached candidate pool of a settings
// fingerprint. The fingerprint is hashed to keep keys short.
func CandidatePoolKey(fingerprint string) string {
	sum := sha256.Sum256([]byte(fingerprint))
	return GenerateCacheKey(QuestionServiceName, "pool", hex.EncodeToString(sum[:16]))
}

// TourRatingKey addresses a user's cached tour rating under a rating
// version. Moving to a new version retires every cached rating at once.
func TourRatingKey(username, version string) string {
	return GenerateCacheKey(TourServiceName, "rating", username, version)
}

// TourRatingVersionKey addresses the current rating version
func TourRatingVersionKey() string {
	return GenerateCacheKey(TourServiceName, "rating_version", "current")
}

// TopPlayersKey addresses the cached top players list
func TopPlayersKey() string {
	return GenerateCacheKey(TourServiceName, "top", "all")
}
