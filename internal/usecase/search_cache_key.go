package usecase

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"jobdash/internal/domain/job"
	"jobdash/internal/search"
)

const (
	listCachePrefix = "jobs:list:"
	listLockPrefix  = "jobs:lock:"
	// listVersionKey counts listing and bookmark writes. It sits outside
	// listCachePrefix so invalidation never resets it.
	listVersionKey = "jobs:version"
	anonymousScope  = "anon"
)

type jobListCacheKeyInput struct {
	Search    string `json:"search"`
	Limit     int    `json:"limit"`
	Offset    int    `json:"offset"`
	SavedOnly bool   `json:"saved_only"`
}

// userScope is a short stable token for the user part of list keys, so a
// user's pages can be dropped with one SCAN pattern.
func userScope(userID string) string {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return anonymousScope
	}
	sum := sha256.Sum256([]byte(userID))
	return hex.EncodeToString(sum[:8])
}

func JobListCacheKey(f job.ListFilter) string {
	in := jobListCacheKeyInput{
		Search:    search.NormalizeQuery(f.Search),
		Limit:     f.Limit,
		Offset:    f.Offset,
		SavedOnly: f.SavedOnly,
	}

	b, _ := json.Marshal(in)
	sum := sha256.Sum256(b)
	return listCachePrefix + userScope(f.UserID) + ":" + hex.EncodeToString(sum[:])
}

func JobListLockKey(listKey string) string {
	listKey = strings.TrimSpace(listKey)
	if strings.HasPrefix(listKey, listCachePrefix) {
		return listLockPrefix + strings.TrimPrefix(listKey, listCachePrefix)
	}
	return listLockPrefix + listKey
}

func userListPattern(userID string) string {
	return listCachePrefix + userScope(userID) + ":*"
}

func allListsPattern() string {
	return listCachePrefix + "*"
}
