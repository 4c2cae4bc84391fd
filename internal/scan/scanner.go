// Package scan runs the cancellable camera-decode poll used to read a
// device identifier from a QR or barcode frame. Frame capture and
// decoding themselves are a collaborator behind the Decoder interface;
// this package only owns the polling loop and its termination rules.
package scan

import (
	"context"
	"errors"
	"time"
)

// ErrCameraDenied is returned by decoders when the camera cannot be
// opened. The workflow surfaces it on the current screen; the operator
// falls back to manual device-id entry.
var ErrCameraDenied = errors.New("camera access denied")

// Decoder grabs one frame and attempts to decode an identifier from
// it. An empty string with a nil error means the frame contained no
// readable code and the poll should continue.
type Decoder interface {
	DecodeFrame(ctx context.Context) (string, error)
}

// DecoderFunc adapts a function to the Decoder interface.
type DecoderFunc func(ctx context.Context) (string, error)

func (f DecoderFunc) DecodeFrame(ctx context.Context) (string, error) { return f(ctx) }

// Scan polls the decoder once per interval until a code is found, the
// decoder fails, or ctx is cancelled. Cancellation is checked before
// every frame grab, so the loop is guaranteed to terminate the instant
// scanning stops; there is no orphaned polling loop racing a flag.
func Scan(ctx context.Context, dec Decoder, interval time.Duration) (string, error) {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		id, err := dec.DecodeFrame(ctx)
		if err != nil {
			return "", err
		}
		if id != "" {
			return id, nil
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}
	}
}
