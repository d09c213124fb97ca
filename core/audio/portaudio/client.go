package portaudio

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gordonklaus/portaudio"
	"go.opentelemetry.io/contrib/bridges/otelslog"

	"github.com/koscakluka/ema-live/core/audio"
)

const scopeName = "github.com/koscakluka/ema-live/core/audio/portaudio"

// Client reads the default input device and writes to the default output
// device through blocking PortAudio streams. Each direction runs on its own
// goroutine.
type Client struct {
	bufferSize       int
	captureEncoding  audio.EncodingInfo
	playbackEncoding audio.EncodingInfo
	filler           audio.Filler
	logger           *slog.Logger

	captureStream  *portaudio.Stream
	playbackStream *portaudio.Stream
	in             []int16
	out            []int16

	mu           sync.Mutex
	stopCapture  context.CancelFunc
	captureDone  chan struct{}
	stopPlayback context.CancelFunc
	playbackDone chan struct{}
}

type ClientOption func(*Client)

func WithCaptureSampleRate(rate int) ClientOption {
	return func(c *Client) {
		if rate > 0 {
			c.captureEncoding.SampleRate = rate
		}
	}
}

func WithPlaybackSampleRate(rate int) ClientOption {
	return func(c *Client) {
		if rate > 0 {
			c.playbackEncoding.SampleRate = rate
		}
	}
}

func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient opens both streams. bufferSize is the number of frames moved per
// read or write.
func NewClient(bufferSize int, filler audio.Filler, opts ...ClientOption) (*Client, error) {
	if bufferSize <= 0 {
		return nil, fmt.Errorf("invalid buffer size %d", bufferSize)
	}
	if filler == nil {
		return nil, fmt.Errorf("no audio source for playback")
	}

	c := &Client{
		bufferSize:       bufferSize,
		captureEncoding:  audio.GetDefaultEncodingInfo(),
		playbackEncoding: audio.GetDefaultOutputEncodingInfo(),
		filler:           filler,
		logger:           otelslog.NewLogger(scopeName),
		in:               make([]int16, bufferSize),
		out:              make([]int16, bufferSize),
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}

	var err error
	c.captureStream, err = portaudio.OpenDefaultStream(1, 0, float64(c.captureEncoding.SampleRate), bufferSize, c.in)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to open capture stream: %w", err)
	}
	c.playbackStream, err = portaudio.OpenDefaultStream(0, 1, float64(c.playbackEncoding.SampleRate), bufferSize, c.out)
	if err != nil {
		c.captureStream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to open playback stream: %w", err)
	}

	return c, nil
}

func (c *Client) EncodingInfo() audio.EncodingInfo { return c.captureEncoding }

func (c *Client) PlaybackEncodingInfo() audio.EncodingInfo { return c.playbackEncoding }

func (c *Client) StartCapture(ctx context.Context, onAudio func(audio []byte)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopCapture != nil {
		return nil
	}

	if err := c.captureStream.Start(); err != nil {
		return fmt.Errorf("failed to start capture stream: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	c.stopCapture, c.captureDone = cancel, done

	go func() {
		defer close(done)
		for ctx.Err() == nil {
			if err := c.captureStream.Read(); err != nil {
				// Overflows repeat every read while the consumer lags.
				c.logger.Debug("capture stream read failed", "error", err)
				continue
			}

			chunk := make([]byte, len(c.in)*2)
			for i, sample := range c.in {
				binary.LittleEndian.PutUint16(chunk[i*2:], uint16(sample))
			}
			onAudio(chunk)
		}
	}()
	return nil
}

func (c *Client) StopCapture() error {
	c.mu.Lock()
	stop, done := c.stopCapture, c.captureDone
	c.stopCapture, c.captureDone = nil, nil
	c.mu.Unlock()

	if stop == nil {
		return nil
	}
	stop()
	<-done

	if err := c.captureStream.Stop(); err != nil {
		return fmt.Errorf("failed to stop capture stream: %w", err)
	}
	return nil
}

func (c *Client) StartPlayback(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopPlayback != nil {
		return nil
	}

	if err := c.playbackStream.Start(); err != nil {
		return fmt.Errorf("failed to start playback stream: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	c.stopPlayback, c.playbackDone = cancel, done

	go func() {
		defer close(done)
		block := make([]byte, len(c.out)*2)
		for ctx.Err() == nil {
			c.filler.Fill(block)
			for i := range c.out {
				c.out[i] = int16(binary.LittleEndian.Uint16(block[i*2:]))
			}
			// Write blocks until the device has room, which paces the loop.
			if err := c.playbackStream.Write(); err != nil {
				c.logger.Debug("playback stream write failed", "error", err)
			}
		}
	}()
	return nil
}

func (c *Client) StopPlayback() error {
	c.mu.Lock()
	stop, done := c.stopPlayback, c.playbackDone
	c.stopPlayback, c.playbackDone = nil, nil
	c.mu.Unlock()

	if stop == nil {
		return nil
	}
	stop()
	<-done

	if err := c.playbackStream.Stop(); err != nil {
		return fmt.Errorf("failed to stop playback stream: %w", err)
	}
	return nil
}

// ClearBuffer is a no-op. The playback goroutine holds at most one block.
func (c *Client) ClearBuffer() {}

func (c *Client) Close() {
	_ = c.StopCapture()
	_ = c.StopPlayback()
	c.captureStream.Close()
	c.playbackStream.Close()
	portaudio.Terminate()
}
