package cryptocore

import (
	"crypto/rand"
	"runtime"
)

// Wipe overwrites b with fresh random bytes, not zeros: §4.5 requires
// "overwritten with fresh random bytes", not a zero-fill, so a later bug
// that accidentally reads stale secret memory can't mistake wiped memory
// for an all-zero (and therefore suspicious-looking) key.
//
// runtime.KeepAlive pins b past this call so the compiler cannot prove
// the write is dead and elide it.
func Wipe(b []byte) {
	if len(b) == 0 {
		return
	}
	if _, err := rand.Read(b); err != nil {
		// Fresh randomness must win even if the CSPRNG briefly fails;
		// fall back to zeroing rather than leaving secret bytes intact.
		for i := range b {
			b[i] = 0
		}
	}
	runtime.KeepAlive(b)
}

// WipeAll wipes every slice in bs, in order.
func WipeAll(bs ...[]byte) {
	for _, b := range bs {
		Wipe(b)
	}
}
