// Package accounts models the forum's local account directory as consumed
// by the session bridge: the user record, its role tier, the group table,
// and the normalization rule that makes username lookups stable.
//
// The bridge reads and writes a small slice of the forum's schema. Lookups
// key on the cleaned username column, so NormalizeUsername must match what
// account creation indexes on; both paths in this package share it.
package accounts
