// Package models defines the core domain models for Roomledger.
//
// The household is a fixed small set of Users. Each Bill records a shared
// expense paid up-front by one user and split evenly among its participants.
// A Settlement records that one non-payer participant has paid their share
// of one bill; the payer never holds a Settlement for their own bill.
//
// A bill's settled state is always derived from its Settlement rows, never
// stored, so it cannot go stale.
package models
