// Package ocr turns card images into ordered text detections.
//
// Two Detector implementations are provided: TesseractDetector shells out to
// the tesseract CLI in TSV mode and groups words into lines, and
// VisionDetector calls Google Cloud Vision text detection and assembles its
// word annotations into lines by geometry. CachedDetector wraps either one
// with a Redis cache keyed by the image's SHA-256.
//
// Fragments converts detections into classifier input: it drops detections
// under the confidence floor, orders the rest top to bottom and left to
// right, and NFKC-normalizes the text.
package ocr
