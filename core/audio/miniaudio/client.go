package miniaudio

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gen2brain/malgo"
	"go.opentelemetry.io/contrib/bridges/otelslog"

	"github.com/koscakluka/ema-live/core/audio"
)

const scopeName = "github.com/koscakluka/ema-live/core/audio/miniaudio"

// Client drives the default capture and playback devices through miniaudio.
// Capture is exposed as a capture source and playback pulls audio from a
// Filler from inside the device callback.
type Client struct {
	// audioContext is only saved to be able to uninitialize it, it is an
	// ownership thing
	audioContext *malgo.AllocatedContext
	playbackClient
	captureClient

	logger *slog.Logger
}

type ClientOption func(*clientOptions)

type clientOptions struct {
	captureEncoding  audio.EncodingInfo
	playbackEncoding audio.EncodingInfo
	logger           *slog.Logger
}

// WithCaptureEncoding sets the rate captured audio is recorded at. Only
// linear16 is supported by the device.
func WithCaptureEncoding(encoding audio.EncodingInfo) ClientOption {
	return func(o *clientOptions) {
		if !encoding.IsZero() {
			o.captureEncoding = encoding
		}
	}
}

// WithPlaybackEncoding sets the rate of audio handed out by the Filler.
func WithPlaybackEncoding(encoding audio.EncodingInfo) ClientOption {
	return func(o *clientOptions) {
		if !encoding.IsZero() {
			o.playbackEncoding = encoding
		}
	}
}

func WithLogger(l *slog.Logger) ClientOption {
	return func(o *clientOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

func NewClient(filler audio.Filler, opts ...ClientOption) (*Client, error) {
	options := clientOptions{
		captureEncoding:  audio.GetDefaultEncodingInfo(),
		playbackEncoding: audio.GetDefaultOutputEncodingInfo(),
		logger:           otelslog.NewLogger(scopeName),
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.captureEncoding.Format != audio.EncodingLinear16 ||
		options.playbackEncoding.Format != audio.EncodingLinear16 {
		return nil, fmt.Errorf("unsupported device format, only linear16 is supported")
	}

	logger := options.logger
	audioCtx, err := malgo.InitContext(
		nil,
		malgo.ContextConfig{},
		func(message string) { logger.Debug("malgo", "message", message) },
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audio context: %w", err)
	}

	client := Client{
		audioContext: audioCtx,
		logger:       logger,
	}

	if err := client.playbackClient.Init(audioCtx, options.playbackEncoding, filler); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to initialize playback client: %w", err)
	}

	if err := client.captureClient.Init(audioCtx, options.captureEncoding); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to initialize capture client: %w", err)
	}

	return &client, nil
}

func (c *Client) StartCapture(_ context.Context, onAudio func(audio []byte)) error {
	return c.captureClient.Start(onAudio)
}

func (c *Client) StopCapture() error {
	return c.captureClient.Stop()
}

// EncodingInfo is the format of captured audio.
func (c *Client) EncodingInfo() audio.EncodingInfo {
	return c.captureClient.encoding
}

func (c *Client) PlaybackEncodingInfo() audio.EncodingInfo {
	return c.playbackClient.encoding
}

func (c *Client) StartPlayback(_ context.Context) error {
	return c.playbackClient.Start()
}

func (c *Client) StopPlayback() error {
	return c.playbackClient.Stop()
}

func (c *Client) Close() {
	_ = c.captureClient.Uninit()
	_ = c.playbackClient.Uninit()
	_ = c.audioContext.Uninit()
	c.audioContext.Free()
}
