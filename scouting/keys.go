package scouting

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/kafaat/sahool-scouting/cache"
)

const feature = "scouting"

func sessionKey(sessionID string) cache.Key {
	return cache.Key{Feature: feature, Entity: "session", ID: sessionID}
}

func activeSessionKey(fieldID string) cache.Key {
	return cache.Key{Feature: feature, Entity: "activeSession", ID: fieldID}
}

func observationsKey(sessionID string) cache.Key {
	return cache.Key{Feature: feature, Entity: "observations", ID: sessionID}
}

func summaryKey(sessionID string) cache.Key {
	return cache.Key{Feature: feature, Entity: "summary", ID: sessionID}
}

func statisticsKey(fieldID string) cache.Key {
	return cache.Key{Feature: feature, Entity: "statistics", ID: fieldID}
}

// historyKey discriminates cached history listings by a hash of the encoded
// filter, so distinct filters never collide and the whole family shares the
// historyPrefix for invalidation.
func historyKey(encodedFilter string) cache.Key {
	sum := sha256.Sum256([]byte(encodedFilter))
	return cache.Key{Feature: feature, Entity: "history", ID: "all", Filter: hex.EncodeToString(sum[:8])}
}

const historyPrefix = feature + ":history:"
