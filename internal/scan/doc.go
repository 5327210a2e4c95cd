// Package scan runs one uploaded card image through the pipeline: validate
// the bytes, archive them, detect text, classify the fragments, and
// optionally hand the record to the reconciler.
package scan
