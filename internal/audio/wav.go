// Package audio converts between raw PCM16LE sample bytes and WAV
// containers, for local meeting recordings and replay input.
package audio

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
)

// wavHeader is the 44-byte RIFF/WAVE prelude for a mono 16-bit PCM
// stream, written in one shot.
type wavHeader struct {
	RIFFTag  [4]byte
	RIFFSize uint32
	WAVETag  [4]byte
	FmtTag   [4]byte
	FmtSize  uint32
	Format   uint16
	Channels uint16
	Rate     uint32
	ByteRate uint32
	Align    uint16
	Bits     uint16
	DataTag  [4]byte
	DataSize uint32
}

func newWAVHeader(dataSize uint32, sampleRate int) wavHeader {
	const (
		channels = 1
		bits     = 16
	)
	return wavHeader{
		RIFFTag:  [4]byte{'R', 'I', 'F', 'F'},
		RIFFSize: 36 + dataSize,
		WAVETag:  [4]byte{'W', 'A', 'V', 'E'},
		FmtTag:   [4]byte{'f', 'm', 't', ' '},
		FmtSize:  16,
		Format:   1, // PCM
		Channels: channels,
		Rate:     uint32(sampleRate),
		ByteRate: uint32(sampleRate * channels * bits / 8),
		Align:    channels * bits / 8,
		Bits:     bits,
		DataTag:  [4]byte{'d', 'a', 't', 'a'},
		DataSize: dataSize,
	}
}

// EncodeWAVPCM16LE wraps raw PCM16LE mono audio bytes in a WAV container.
func EncodeWAVPCM16LE(pcm []byte, sampleRate int) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteWAVPCM16LETo(&buf, pcm, sampleRate); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteWAVPCM16LEFile writes raw PCM16LE mono audio bytes as a WAV file.
func WriteWAVPCM16LEFile(path string, pcm []byte, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteWAVPCM16LETo(f, pcm, sampleRate)
}

// WriteWAVPCM16LETo writes raw PCM16LE mono audio bytes to out as a WAV stream.
func WriteWAVPCM16LETo(out io.Writer, pcm []byte, sampleRate int) error {
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	if err := binary.Write(out, binary.LittleEndian, newWAVHeader(uint32(len(pcm)), sampleRate)); err != nil {
		return err
	}
	_, err := out.Write(pcm)
	return err
}
