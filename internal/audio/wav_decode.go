package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
)

type wavFormat struct {
	format   uint16
	channels int
	rate     int
	bits     uint16
}

// DecodeWAVPCM16 extracts mono PCM16LE samples and the sample rate
// from a WAV container, downmixing multi-channel audio by averaging.
func DecodeWAVPCM16(data []byte) ([]byte, int, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, 0, errors.New("not a RIFF/WAVE stream")
	}

	var (
		format *wavFormat
		pcm    []byte
	)
	for off := 12; off+8 <= len(data); {
		tag := string(data[off : off+4])
		size := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		off += 8
		if size < 0 || off+size > len(data) {
			return nil, 0, errors.New("truncated wav chunk")
		}
		chunk := data[off : off+size]
		switch tag {
		case "fmt ":
			f, err := parseFormatChunk(chunk)
			if err != nil {
				return nil, 0, err
			}
			format = &f
		case "data":
			pcm = append(pcm[:0], chunk...)
		}
		// Chunks are word aligned.
		off += size + size%2
	}

	switch {
	case format == nil:
		return nil, 0, errors.New("wav fmt chunk missing")
	case len(pcm) == 0:
		return nil, 0, errors.New("wav data chunk missing")
	case format.format != 1:
		return nil, 0, fmt.Errorf("unsupported wav audio format %d", format.format)
	case format.bits != 16:
		return nil, 0, fmt.Errorf("unsupported wav bits_per_sample %d", format.bits)
	}

	if format.channels == 1 {
		if len(pcm)%2 != 0 {
			pcm = pcm[:len(pcm)-1]
		}
		return pcm, format.rate, nil
	}
	mono, err := downmix(pcm, format.channels)
	if err != nil {
		return nil, 0, err
	}
	return mono, format.rate, nil
}

func parseFormatChunk(chunk []byte) (wavFormat, error) {
	if len(chunk) < 16 {
		return wavFormat{}, errors.New("invalid wav fmt chunk")
	}
	f := wavFormat{
		format:   binary.LittleEndian.Uint16(chunk[0:2]),
		channels: int(binary.LittleEndian.Uint16(chunk[2:4])),
		rate:     int(binary.LittleEndian.Uint32(chunk[4:8])),
		bits:     binary.LittleEndian.Uint16(chunk[14:16]),
	}
	if f.channels == 0 {
		return wavFormat{}, errors.New("invalid wav channels=0")
	}
	if f.rate <= 0 {
		f.rate = 16000
	}
	return f, nil
}

// downmix averages interleaved 16-bit channels into mono.
func downmix(pcm []byte, channels int) ([]byte, error) {
	frameBytes := channels * 2
	if len(pcm) < frameBytes {
		return nil, errors.New("invalid wav frame bytes")
	}
	frames := len(pcm) / frameBytes
	mono := make([]byte, frames*2)
	for i := 0; i < frames; i++ {
		base := i * frameBytes
		sum := 0
		for ch := 0; ch < channels; ch++ {
			sum += int(int16(binary.LittleEndian.Uint16(pcm[base+ch*2 : base+ch*2+2])))
		}
		binary.LittleEndian.PutUint16(mono[i*2:i*2+2], uint16(int16(sum/channels)))
	}
	return mono, nil
}
