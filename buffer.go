package chardev

import (
	"fmt"
	"sync"
)

// DefaultCapacity is the buffer size used when the device config does not
// set one.
const DefaultCapacity = 1024

// Cursor is a per-session position within a BoundedBuffer.
//
// A cursor is owned by exactly one session, starts at 0 when the session
// opens, and advances only by successful transfers. Cursors from different
// sessions are fully independent.
type Cursor struct {
	Position uint64
}

// CopyFunc moves min(len(dst), len(src)) bytes from src to dst and returns
// the number of bytes moved. It is the fallible boundary between caller
// memory and buffer storage: returning an error (or a short count) aborts
// the surrounding transfer with a *TransferFault.
type CopyFunc func(dst, src []byte) (int, error)

// BufferOption configures a BoundedBuffer.
type BufferOption func(*BoundedBuffer)

// WithCopier replaces the copy primitive. The default copier is the builtin
// copy and never fails.
func WithCopier(fn CopyFunc) BufferOption {
	return func(b *BoundedBuffer) {
		if fn != nil {
			b.copyFn = fn
		}
	}
}

// BoundedBuffer is a fixed-capacity byte store accessed through
// caller-supplied cursors. Capacity is immutable for the buffer's lifetime
// and every accepted transfer stays within [0, capacity).
//
// The storage is a single shared resource across sessions. Individual
// copies are serialized internally so the store stays safe under the Go
// memory model, but there is no isolation between sessions: overlapping
// writes from different sessions land in unspecified order and the last
// completed write wins. Callers needing exclusion must serialize
// externally (see DeviceConfig.ExclusiveWriter).
type BoundedBuffer struct {
	mu       sync.Mutex
	capacity uint64
	storage  []byte
	copyFn   CopyFunc
}

// NewBoundedBuffer creates a buffer with the given capacity in bytes.
func NewBoundedBuffer(capacity int, opts ...BufferOption) (*BoundedBuffer, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("buffer capacity must be positive, got %d", capacity)
	}
	b := &BoundedBuffer{
		capacity: uint64(capacity),
		storage:  make([]byte, capacity),
		copyFn:   builtinCopy,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

func builtinCopy(dst, src []byte) (int, error) { return copy(dst, src), nil }

// Capacity returns the fixed capacity in bytes.
func (b *BoundedBuffer) Capacity() int { return int(b.capacity) }

// ReadAt copies up to n bytes out of the buffer starting at cur and returns
// the bytes together with the advanced cursor.
//
// A cursor at or past capacity yields zero bytes and a nil error:
// end-of-data is a success, not a fault. The transfer is clipped to
// min(n, capacity-position) and never reads past capacity. On a copy
// failure a *TransferFault is returned and the cursor does not advance.
func (b *BoundedBuffer) ReadAt(cur Cursor, n int) ([]byte, Cursor, error) {
	if n <= 0 || cur.Position >= b.capacity {
		return nil, cur, nil
	}

	transfer := uint64(n)
	if remain := b.capacity - cur.Position; transfer > remain {
		transfer = remain
	}

	out := make([]byte, transfer)

	b.mu.Lock()
	copied, err := b.copyFn(out, b.storage[cur.Position:cur.Position+transfer])
	b.mu.Unlock()

	if err != nil || uint64(copied) != transfer {
		if err == nil {
			err = fmt.Errorf("short copy: %d of %d bytes", copied, transfer)
		}
		return nil, cur, &TransferFault{Op: "read", Offset: cur.Position, Length: int(transfer), Cause: err}
	}

	cur.Position += transfer
	return out, cur, nil
}

// WriteAt copies a prefix of p into the buffer starting at cur and returns
// the number of bytes accepted together with the advanced cursor.
//
// A cursor at or past capacity accepts zero bytes with a nil error. Input
// beyond capacity is silently dropped (truncating-sink semantics): callers
// detect truncation by comparing the accepted count to len(p). On a copy
// failure a *TransferFault is returned, no bytes are accepted and the
// cursor does not advance.
func (b *BoundedBuffer) WriteAt(cur Cursor, p []byte) (int, Cursor, error) {
	if len(p) == 0 || cur.Position >= b.capacity {
		return 0, cur, nil
	}

	transfer := uint64(len(p))
	if remain := b.capacity - cur.Position; transfer > remain {
		transfer = remain
	}

	// The fallible crossing happens into a staging slice so that a failed
	// copy leaves the shared storage untouched.
	staging := make([]byte, transfer)
	copied, err := b.copyFn(staging, p[:transfer])
	if err != nil || uint64(copied) != transfer {
		if err == nil {
			err = fmt.Errorf("short copy: %d of %d bytes", copied, transfer)
		}
		return 0, cur, &TransferFault{Op: "write", Offset: cur.Position, Length: int(transfer), Cause: err}
	}

	b.mu.Lock()
	copy(b.storage[cur.Position:cur.Position+transfer], staging)
	b.mu.Unlock()

	cur.Position += transfer
	return int(transfer), cur, nil
}
