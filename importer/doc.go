// Package importer runs one import of a remote export end to end.
//
// An Attempt walks a single data version through its lifecycle:
//   - Begin fingerprints the source and asks the registry whether that
//     version was already imported; if so the attempt is skipped and
//     nothing is created
//   - Ingest streams, normalizes and uploads the records
//   - Activate marks the version active, or Fail marks it failed
//
// Importer wires an Attempt from an engine name, a data set and source
// options, and records every invocation in the run ledger.
package importer
