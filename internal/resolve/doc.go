// Package resolve turns enumerated items (game folders, app packages) into
// human-readable display names.
//
// # Resolution Order
//
// Each [Candidate] is resolved exactly once per batch, in input order:
//
//   - cache: the key already has a name in the [Cache]
//   - backend: the item has an external id and the [Backend] knows it
//   - heuristic: locale hints are present, combined by [PreferName]
//   - raw: the item's raw name, unchanged
//
// New names are written back with Cache.Put as they resolve. Cache.Persist
// is called once, after the whole batch has finished.
//
// # Failure Handling
//
// A backend error (see [ErrNetwork], [ErrMalformedResponse]) is handled
// like a miss: that one item degrades to heuristic or raw, and the fallback
// is cached like any other name. An item with no raw name still gets a non-empty name and carries
// [ErrInvalidCandidate]. Cancelling the context aborts the batch without
// persisting. A failed persist is reported as [*PersistError] next to the
// otherwise complete [Batch].
package resolve
