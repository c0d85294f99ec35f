package capture

import (
	"errors"
	"io"
	"log"
)

// Pump reads fixed-size chunks from a capture stream, feeds the level
// meter, and forwards each chunk to sink. It runs until the stream
// ends and then closes done. Errors are logged, not propagated: a
// failing pump degrades transcripts, never the call.
func Pump(stream Stream, meter *LevelMeter, chunkSize int, sink func([]byte), done chan struct{}) {
	defer close(done)

	if chunkSize < 256 {
		chunkSize = 3200
	}

	buf := make([]byte, chunkSize)
	for {
		n, err := io.ReadFull(stream, buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			if meter != nil {
				meter.Feed(chunk)
			}
			sink(chunk)
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.ErrClosedPipe) {
				log.Printf("capture: pump stopped: %v", err)
			}
			return
		}
	}
}
