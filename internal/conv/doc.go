// Package conv provides checked integer conversions for the 32-bit
// materialization boundaries of the engine.
package conv
