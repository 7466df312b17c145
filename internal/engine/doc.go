// Package engine contains the progression loop and the session controller.
//
// ProgressionSystem and LeaderboardSystem are plain state machines with no
// locking of their own. Engine owns both, serializes every call behind one
// mutex, persists after mutations and drives the two periodic Tickers.
package engine
