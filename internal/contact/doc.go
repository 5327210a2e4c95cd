// Package contact defines the business-card domain types shared by the
// classifier, the reconciler, the store, and the exporters.
//
// A Record holds ten scalar text fields plus the raw card image. Fields
// that the classifier could not populate carry the Sentinel value "NA".
package contact
