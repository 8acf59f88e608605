// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

/*
Package store persists relations, activity logs, nominations and cycle runs
in BadgerDB.

The store is the only mutation path for scores and statuses. Every write is
a single Badger transaction, so each operation either fully applies or not
at all:

  - ApplyPoints: read totals, add deltas, recompute derived fields, append
    one activity log entry
  - SetStatus: validated lifecycle transition
  - CreateNomination: limit checks, cycle dedupe, pending relation and
    nomination insert
  - AcceptNomination / RejectNomination / CancelNomination: nomination and
    relation transition together
  - ExpireNominations / ExpireRelations: one transaction per record, status
    re-checked inside the transaction

# Concurrency

Badger runs serializable snapshot transactions and reports write-write and
read-write conflicts as badger.ErrConflict. The store retries conflicting
transactions a bounded number of times with linear backoff and returns
ErrRetriesExhausted once attempts run out.

Writers touching the same relation or nominator are additionally serialized
in-process through striped mutexes, which keeps conflicts rare without any
global lock. Nomination transactions read and rewrite a per-nominator ledger
key so that two concurrent nominations by the same user always conflict and
cannot both pass the limit checks.

# Key Layout

	rel:<relationID>                          relation JSON
	relpair:<pairKey>                         relationID of the open relation
	reluser:<userID>:<relationID>             membership index
	relexp:<endUnixNano>:<relationID>         active relations by end date
	act:<relationID>:<unixNano>:<entryID>     activity log entry JSON
	idem:<relationID>:<key>                   replay record (with TTL)
	nom:<nominationID>                        nomination JSON
	nomuser:<nominatorID>:<unixNano>:<nomID>  nominations sent
	nomtarget:<nomineeID>:<nomID>             nominations received
	nompending:<expiresUnixNano>:<nomID>      pending nominations by expiry
	nomcycle:<cycleID>:<pairKey>              cycle dedupe marker
	rejection:<nominatorID>:<nomineeID>       last rejection time
	nomledger:<nominatorID>                   conflict anchor
	cyclerun:<cycleID>:<startedUnixNano>      cycle run JSON

Relations and log entries are never deleted, so there is no cascade.
*/
package store
