// Package driven defines the interfaces the core consumes: the remote
// store client, the in-memory item model, the evidence cache and the
// change-token store. Adapters implement these.
package driven
