// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

package store

import (
	"fmt"
	"strings"
	"time"
)

// Key prefixes for BadgerDB storage
const (
	relationPrefix       = "rel:"
	relationPairPrefix   = "relpair:"
	relationUserPrefix   = "reluser:"
	relationExpiryPrefix = "relexp:"
	activityPrefix       = "act:"
	idempotencyPrefix    = "idem:"
	nominationPrefix     = "nom:"
	nominatorPrefix      = "nomuser:"
	nomineePrefix        = "nomtarget:"
	pendingPrefix        = "nompending:"
	cycleMarkerPrefix    = "nomcycle:"
	rejectionPrefix      = "rejection:"
	ledgerPrefix         = "nomledger:"
	cycleRunPrefix       = "cyclerun:"
)

// stamp renders a time as a fixed-width sortable integer.
func stamp(t time.Time) string {
	n := t.UnixNano()
	if n < 0 {
		n = 0
	}
	return fmt.Sprintf("%020d", n)
}

func relationKey(id string) []byte { return []byte(relationPrefix + id) }

func relationPairKey(pairKey string) []byte { return []byte(relationPairPrefix + pairKey) }

func relationUserKey(userID, relationID string) []byte {
	return []byte(relationUserPrefix + userID + ":" + relationID)
}

func relationUserScan(userID string) []byte { return []byte(relationUserPrefix + userID + ":") }

func relationExpiryKey(end time.Time, relationID string) []byte {
	return []byte(relationExpiryPrefix + stamp(end) + ":" + relationID)
}

func activityKey(relationID string, at time.Time, entryID string) []byte {
	return []byte(activityPrefix + relationID + ":" + stamp(at) + ":" + entryID)
}

func activityScan(relationID string) []byte { return []byte(activityPrefix + relationID + ":") }

func activitySeek(relationID string, since time.Time) []byte {
	return []byte(activityPrefix + relationID + ":" + stamp(since))
}

func idempotencyKey(relationID, key string) []byte {
	return []byte(idempotencyPrefix + relationID + ":" + key)
}

func nominationKey(id string) []byte { return []byte(nominationPrefix + id) }

func nominatorKey(nominatorID string, created time.Time, id string) []byte {
	return []byte(nominatorPrefix + nominatorID + ":" + stamp(created) + ":" + id)
}

func nominatorScan(nominatorID string) []byte { return []byte(nominatorPrefix + nominatorID + ":") }

func nomineeKey(nomineeID, id string) []byte { return []byte(nomineePrefix + nomineeID + ":" + id) }

func nomineeScan(nomineeID string) []byte { return []byte(nomineePrefix + nomineeID + ":") }

func pendingKey(expires time.Time, id string) []byte {
	return []byte(pendingPrefix + stamp(expires) + ":" + id)
}

func cycleMarkerKey(cycleID, pairKey string) []byte {
	return []byte(cycleMarkerPrefix + cycleID + ":" + pairKey)
}

func rejectionKey(nominatorID, nomineeID string) []byte {
	return []byte(rejectionPrefix + nominatorID + ":" + nomineeID)
}

func rejectionScan(nominatorID string) []byte { return []byte(rejectionPrefix + nominatorID + ":") }

func ledgerKey(userID string) []byte { return []byte(ledgerPrefix + userID) }

func cycleRunKey(cycleID string, started time.Time) []byte {
	return []byte(cycleRunPrefix + cycleID + ":" + stamp(started))
}

// lastSegment returns the text after the final ':' of a key.
func lastSegment(key []byte) string {
	s := string(key)
	if i := strings.LastIndexByte(s, ':'); i >= 0 {
		return s[i+1:]
	}
	return s
}

// stampSegment parses the sortable timestamp that follows prefix in key.
func stampSegment(key []byte, prefix string) (time.Time, bool) {
	s := strings.TrimPrefix(string(key), prefix)
	i := strings.IndexByte(s, ':')
	if i < 0 {
		return time.Time{}, false
	}
	var n int64
	if _, err := fmt.Sscanf(s[:i], "%d", &n); err != nil {
		return time.Time{}, false
	}
	return time.Unix(0, n).UTC(), true
}
