// Package checksum computes content digests used for change detection.
package checksum

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"time"
)

// Sequence returns a version string for a pair of parallel id and date
// sequences. Any change in content, order or length yields a new version.
func Sequence(ids, dates []string) string {
	h := sha256.New()
	var buf [8]byte
	writeLen := func(n int) {
		binary.LittleEndian.PutUint64(buf[:], uint64(n))
		h.Write(buf[:])
	}
	writeLen(len(ids))
	for _, id := range ids {
		writeLen(len(id))
		h.Write([]byte(id))
	}
	writeLen(len(dates))
	for _, d := range dates {
		writeLen(len(d))
		h.Write([]byte(d))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint identifies a file revision by size, modification time and
// the bytes of its metadata sidecar (nil when there is none).
func Fingerprint(size int64, modTime time.Time, sidecar []byte) string {
	h := sha256.New()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(size))
	h.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], uint64(modTime.UnixNano()))
	h.Write(buf[:])
	h.Write(sidecar)
	return hex.EncodeToString(h.Sum(nil))
}
