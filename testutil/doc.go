// Package testutil provides deterministic fixtures for testing the
// engine: a seeded random number generator, random sparse arrays in COO
// form, and a dense reference model for cross-checking subassignment.
package testutil
