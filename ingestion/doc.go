// Package ingestion turns a raw byte stream from a remote export into
// normalized records.
//
// The work is split into three stages:
//   - Reassembly: arbitrary chunks are cut into complete lines, carrying the
//     trailing partial line over to the next chunk and dropping the header once
//   - Normalization: each batch of lines is parsed as CSV and mapped to
//     core.NormalizedRecord values
//   - Streaming: Pipeline reads the next chunk only after the previous batch
//     has been fully handled, so at most one batch is in flight
//
// Feed and Finish are pure functions over ReassemblyState; Reassembler is a
// small stateful wrapper for callers that prefer it.
package ingestion
