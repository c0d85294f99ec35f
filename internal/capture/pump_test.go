package capture

import (
	"context"
	"testing"
	"time"
)

func TestPumpForwardsChunksAndFeedsMeter(t *testing.T) {
	data := make([]byte, 1024)
	for i := range data {
		data[i] = byte(i % 7)
	}
	mock := &MockCapture{Data: data}
	stream, err := mock.Start(context.Background(), Config{})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	meter := NewLevelMeter()
	var got []byte
	done := make(chan struct{})
	go Pump(stream, meter, 256, func(chunk []byte) {
		got = append(got, chunk...)
	}, done)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("pump never finished")
	}

	if len(got) != len(data) {
		t.Fatalf("forwarded %d bytes, want %d", len(got), len(data))
	}
	for i := range got {
		if got[i] != data[i] {
			t.Fatalf("byte %d = %d, want %d", i, got[i], data[i])
		}
	}
	if meter.Level() == 0 {
		t.Fatalf("meter was never fed")
	}
}

func TestPumpStopsWhenStreamStops(t *testing.T) {
	mock := &MockCapture{Data: make([]byte, 1<<20)}
	stream, err := mock.Start(context.Background(), Config{})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	done := make(chan struct{})
	go Pump(stream, nil, 512, func([]byte) {}, done)

	_ = stream.Stop()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("pump did not stop after stream stop")
	}
}
