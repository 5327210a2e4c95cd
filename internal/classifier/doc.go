// Package classifier turns an ordered list of OCR fragments into a contact
// record.
//
// Classification is a pure function. Fragments are visited top to bottom and
// each one is tested against an ordered rule table: positional rules first
// (name, designation, company), then content patterns (phone, email, website,
// street, city, state, pin code, known region), then a remainder rule that
// files leftovers under street. The first matching rule claims the fragment.
//
// Matches are collected in an Accumulator whose per-field policies cap the
// number of phone numbers, keep only the latest state, and concatenate
// everything else. The Finalizer flattens the accumulator into a
// contact.Record, filling untouched fields with contact.Sentinel.
//
// Explain returns the same record together with a per-fragment trace so
// callers can show which rule claimed each line.
package classifier
