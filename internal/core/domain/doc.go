// Package domain contains the core business entities for Casetrack.
// These types have no external dependencies and represent the
// fundamental concepts: work items, evidence documents, collection
// roots, cycles and change-feed events.
package domain
