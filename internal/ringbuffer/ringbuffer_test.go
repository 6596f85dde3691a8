package ringbuffer

import (
	"sync"
	"testing"
)

func TestRingBuffer_ConcurrentReadWrite(t *testing.T) {
	// Use a large number of symbols to ensure goroutines have to wait for each
	// other, forcing the wait conditions in Read and Write to be exercised.
	const totalSymbols = 200000
	const bufferSize = 8192
	const writeChunkSize = 256
	const readChunkSize = 192 // Use different, non-aligned chunk sizes to stress test the logic.

	rb := New(bufferSize)

	// Generate the source data that the writer will send.
	// Using sequential numbers makes it easy to verify correctness later.
	sourceData := make([]byte, totalSymbols)
	for i := 0; i < totalSymbols; i++ {
		sourceData[i] = byte(i)
	}

	// This slice will hold the data the reader receives.
	// It's protected by a mutex because it's written to from the reader goroutine.
	destData := make([]byte, 0, totalSymbols)
	var destMutex sync.Mutex

	var wg sync.WaitGroup
	wg.Add(2)

	// --- Writer Goroutine ---
	go func() {
		defer wg.Done()
		writtenCount := 0
		for writtenCount < totalSymbols {
			end := writtenCount + writeChunkSize
			if end > totalSymbols {
				end = totalSymbols
			}
			chunk := sourceData[writtenCount:end]
			rb.Write(chunk)
			writtenCount = end
		}
		// Signal that the writer is done.
		rb.Close()
	}()

	// --- Reader Goroutine ---
	go func() {
		defer wg.Done()
		for {
			chunk := rb.Read(readChunkSize)
			// If the chunk is nil, the buffer is closed and empty.
			if chunk == nil {
				break
			}

			destMutex.Lock()
			destData = append(destData, chunk...)
			destMutex.Unlock()
		}
	}()

	// Wait for both the reader and writer to finish their work.
	wg.Wait()

	// --- Verification ---
	if len(destData) != totalSymbols {
		t.Fatalf("Data loss detected: expected %d symbols, but got %d", totalSymbols, len(destData))
	}

	for i := 0; i < totalSymbols; i++ {
		if sourceData[i] != destData[i] {
			t.Fatalf("Data corruption at index %d: expected %d, but got %d", i, sourceData[i], destData[i])
		}
	}
}

func TestRingBuffer_WriteNeverWrapsOntoReadIndex(t *testing.T) {
	// A single write of the full buffer length lands exactly where the
	// write index would wrap onto the read index at slot 0. The write
	// must spill into a second chunk once the reader frees space, not
	// alias the full buffer to an empty one.
	rb := New(8)

	go func() {
		rb.Write([]byte{0, 1, 2, 3, 4, 5, 6, 7})
		rb.Close()
	}()

	var got []byte
	for {
		chunk := rb.Read(3)
		if chunk == nil {
			break
		}
		got = append(got, chunk...)
	}

	if len(got) != 8 {
		t.Fatalf("Data loss detected: expected 8 symbols, but got %d", len(got))
	}
	for i, b := range got {
		if b != byte(i) {
			t.Fatalf("Data corruption at index %d: expected %d, but got %d", i, i, b)
		}
	}
}

func TestRingBuffer_ReadReturnsPartialChunks(t *testing.T) {
	rb := New(64)
	rb.Write([]byte{1, 0, 1})

	// A reader asking for more than is buffered must get what is there
	// rather than blocking for a full chunk.
	got := rb.Read(16)
	if len(got) != 3 {
		t.Fatalf("Expected a partial read of 3 symbols, got %d", len(got))
	}

	rb.Close()
	if got := rb.Read(16); got != nil {
		t.Fatalf("Expected nil after close on empty buffer, got %v", got)
	}
}
