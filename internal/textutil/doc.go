// Package textutil provides text clean-up helpers shared by the OCR adapters,
// the classifier, and the exporters.
//
// The primary use cases are:
//   - Normalizing OCR fragments (NFKC folding, control stripping, whitespace collapse)
//   - Matching fragments against a configured list of region names
//   - Sanitizing tokens for safe filesystem use
package textutil
