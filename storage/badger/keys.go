package badger

import (
	"encoding/binary"
	"time"
)

const (
	runRecordPrefix   = "imprun:"
	runByTimePrefix   = "impruntm:"
	runByImportPrefix = "imprunix:"
)

// makeRunKey generates a key for a run record by ID.
func makeRunKey(id string) []byte {
	return []byte(runRecordPrefix + id)
}

// makeRunTimeKey generates the global time index key.
// Format: prefix + big endian start micros + id
func makeRunTimeKey(startedAt time.Time, id string) []byte {
	return appendTimeAndID([]byte(runByTimePrefix), startedAt, id)
}

// makeRunImportKey generates the per-import time index key.
// Format: prefix + import name + 0x00 + big endian start micros + id
func makeRunImportKey(importName string, startedAt time.Time, id string) []byte {
	return appendTimeAndID(makeRunImportPrefix(importName), startedAt, id)
}

// makeRunImportPrefix returns the index prefix shared by all runs of an import.
// The separator keeps "a" from matching "ab".
func makeRunImportPrefix(importName string) []byte {
	buf := make([]byte, 0, len(runByImportPrefix)+len(importName)+1)
	buf = append(buf, runByImportPrefix...)
	buf = append(buf, importName...)
	return append(buf, 0)
}

func appendTimeAndID(prefix []byte, startedAt time.Time, id string) []byte {
	buf := make([]byte, len(prefix), len(prefix)+8+len(id))
	copy(buf, prefix)
	// BigEndian so lexicographic order is chronological
	buf = binary.BigEndian.AppendUint64(buf, uint64(startedAt.UnixMicro()))
	return append(buf, id...)
}

// seekEnd returns a key that sorts after every key with the given prefix.
func seekEnd(prefix []byte) []byte {
	buf := make([]byte, len(prefix), len(prefix)+9)
	copy(buf, prefix)
	return append(buf, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff)
}
