// Package driving defines the interfaces the core exposes to callers:
// the tracker facade consumed by UIs and tools, plus the scanner and
// poller contracts.
package driving
