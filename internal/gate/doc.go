// Package gate decides whether a reconciled update may be applied to the
// destination list.
//
// The gate keys on the exact raw series title plus the reconciled progress
// value, so replaying the same watch-history entry across runs produces at
// most one applied update. Entries pass the gate before side effects and are
// recorded only after the destination confirms the write, so a failed apply
// stays eligible for the next run.
package gate
