package crypto

import (
	"runtime"
	"sync/atomic"
)

// eraseSink keeps the zeroing loop observable so the compiler cannot
// remove it as a dead store.
var eraseSink atomic.Uint64

// SecureErase overwrites key material with zeros before the buffer is
// released. Copies may still linger in registers or swap; this only
// shortens the window, it cannot close it.
func SecureErase(b []byte) {
	if len(b) == 0 {
		return
	}
	var sum uint64
	for i := range b {
		sum += uint64(b[i])
		b[i] = 0
	}
	eraseSink.Add(sum)
	runtime.KeepAlive(b)
}
