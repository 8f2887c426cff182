// Package namecache persists resolved display names keyed by a stable
// local identifier (a package's full name, or a game folder's name).
//
// The cache lives at ~/.shelf/names.json unless configured otherwise:
//
//	{
//	  "version": 1,
//	  "entries": [
//	    {"key": "Portal 2", "name": "传送门 2"},
//	    {"key_raw": "UG9y/nRhbA==", "name": "Portal"}
//	  ]
//	}
//
// Keys and names are JSON strings, so any separator character (newlines
// included) survives a round trip. Values that are not valid UTF-8 are
// stored base64-encoded in key_raw or name_raw.
//
// # Failure Semantics
//
// [Load] never fails: a missing, unreadable or corrupt file gives an empty
// store so name resolution can continue without a cache. [Store.Persist]
// does fail loudly, and writes through a temp file plus rename so a crash
// never leaves a half-written cache behind.
//
// # Concurrency
//
// A Store is not safe for concurrent use. Use [LoadLocked] to hold an
// exclusive lock on names.json.lock for the duration of a batch.
//
// # Entry Lifecycle
//
// Entries are never deleted by resolution, only overwritten. The
// "shelf cache clear" command is the manual way to drop stale names.
package namecache
