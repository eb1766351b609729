// Package aggregates contains the transactional implementations of the
// lesson-plan cache and the curriculum lookup.
//
// Implementations compose table-level repos from internal/data/repos and own
// the transaction boundary of every multi-row write.
package aggregates
