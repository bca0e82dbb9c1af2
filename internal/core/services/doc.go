// Package services implements the core of the sync engine: inventory
// scanning, metric hydration, change-feed synchronisation, optimistic
// writes and the polling orchestrator, plus the tracker facade that
// ties them together for callers.
package services
