package hash

import (
	"strconv"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
)

// guidCounter is folded into every generated guid so that two calls in the same
// process never collide even if they race on the same nanosecond clock reading.
var guidCounter uint64

// GenerateGuid returns a process-unique, non-zero 64-bit id, salted by salt (the
// sender id, typically) — used for value.KindGuid fields (spec.md §4.1: "generate
// must never return 0").
func GenerateGuid(salt string, nowNanos int64) uint64 {
	n := atomic.AddUint64(&guidCounter, 1)

	h := xxhash.New()
	h.Write([]byte(salt))
	h.Write([]byte(strconv.FormatInt(nowNanos, 36)))
	h.Write([]byte(strconv.FormatUint(n, 36)))
	id := h.Sum64()

	if id == 0 {
		id = 1
	}

	return id
}
