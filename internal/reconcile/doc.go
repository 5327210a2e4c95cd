// Package reconcile maps contact records onto store mutations.
//
// Save refuses to insert a record whose name already exists. Update and
// Delete locate rows by a whitelisted selector (id, name or email) and report
// NotFoundError when nothing matched. Every operation is a single committed
// store call; nothing is retried here.
package reconcile
