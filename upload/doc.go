// Package upload sends normalized records to a record sink in pages.
//
// Records are partitioned into at most MaxWorkers lanes. Lanes run
// concurrently on a worker pool; pages within a lane are sent one after
// another in order. Each lane accumulates its own core.ImportStats, which
// are merged only after every lane has finished. The first page failure
// cancels the remaining lanes and fails the whole upload.
package upload
