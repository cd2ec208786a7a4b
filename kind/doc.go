// Package kind enumerates the element kinds a sparse array can store and
// provides the uniform operations the engine needs over them: zero values,
// zero tests, and element-wise and bulk copies between kind-typed buffers.
package kind
