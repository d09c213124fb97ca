package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/koscakluka/ema-live/core/audio"
	"github.com/koscakluka/ema-live/core/audio/miniaudio"
	"github.com/koscakluka/ema-live/core/audio/portaudio"
	"github.com/koscakluka/ema-live/core/capture"
	"github.com/koscakluka/ema-live/core/events"
	"github.com/koscakluka/ema-live/core/live"
	"github.com/koscakluka/ema-live/core/playback"
	"github.com/koscakluka/ema-live/core/session"
)

// portaudioFrames is the number of frames moved per PortAudio read or write.
const portaudioFrames = 480

type device interface {
	capture.Source
	StartPlayback(ctx context.Context) error
	StopPlayback() error
	ClearBuffer()
	Close()
}

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Start a live voice conversation",
	Long: `Connect to the backend, stream microphone audio and play the model's
replies through the default output device. Press Ctrl+C to hang up.`,
	RunE: runConnect,
}

func init() {
	connectCmd.Flags().Bool("mute", false, "start with the microphone muted")
	connectCmd.Flags().String("text", "", "send a text message once the session is ready")
	connectCmd.Flags().String("audio-backend", "", "audio backend to use: malgo or portaudio")
}

func runConnect(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	muted, err := flags.GetBool("mute")
	if err != nil {
		return fmt.Errorf("failed to read 'mute' flag: %w", err)
	}
	text, err := flags.GetString("text")
	if err != nil {
		return fmt.Errorf("failed to read 'text' flag: %w", err)
	}
	if backend, err := flags.GetString("audio-backend"); err != nil {
		return fmt.Errorf("failed to read 'audio-backend' flag: %w", err)
	} else if backend != "" {
		globalConfig.AudioBackend = backend
	}
	if err := globalConfig.validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	playbackOpts := []playback.Option{playback.WithCapacity(globalConfig.PlaybackBuffer)}
	if cliLogger != nil {
		playbackOpts = append(playbackOpts, playback.WithLogger(cliLogger))
	}
	speaker := playback.NewPipeline(playbackOpts...)

	dev, err := openDevice(globalConfig.AudioBackend, speaker)
	if err != nil {
		return err
	}
	defer dev.Close()
	speaker.AddSink(dev)

	if err := dev.StartPlayback(ctx); err != nil {
		return fmt.Errorf("failed to start playback: %w", err)
	}
	defer dev.StopPlayback()

	client, err := live.NewClient(globalConfig.URL, clientOptions()...)
	if err != nil {
		return err
	}
	defer client.Close()

	captureOpts := []capture.Option{capture.WithChunkDuration(globalConfig.ChunkDuration)}
	sessionOpts := []session.Option{
		session.WithPlayback(speaker),
		session.WithMuted(muted),
	}
	if cliLogger != nil {
		captureOpts = append(captureOpts, capture.WithLogger(cliLogger))
		sessionOpts = append(sessionOpts, session.WithLogger(cliLogger))
	}
	sessionOpts = append(sessionOpts, session.WithCapture(capture.NewPipeline(dev, captureOpts...)))

	s, err := session.New(client, sessionOpts...)
	if err != nil {
		return err
	}
	defer s.Close()

	closed := make(chan events.Closed, 1)
	unsubscribe := printEvents(cmd.OutOrStdout(), client, s, text, closed)
	defer unsubscribe()

	if err := s.Connect(ctx); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), Styles.Dim.Render("connected as "+client.UserID()+", press Ctrl+C to hang up"))

	select {
	case <-ctx.Done():
		s.Disconnect()
		return nil
	case event := <-closed:
		return closedError(event)
	}
}

// closedError reports an abnormal close. Normal closures end the command
// without error.
func closedError(event events.Closed) error {
	if event.Code == websocket.CloseNormalClosure {
		return nil
	}
	return fmt.Errorf("connection closed: %s (%d)", event.Reason, event.Code)
}

func openDevice(backend string, filler audio.Filler) (device, error) {
	switch backend {
	case "portaudio":
		opts := []portaudio.ClientOption{}
		if cliLogger != nil {
			opts = append(opts, portaudio.WithLogger(cliLogger))
		}
		return portaudio.NewClient(portaudioFrames, filler, opts...)
	case "malgo", "":
		opts := []miniaudio.ClientOption{}
		if cliLogger != nil {
			opts = append(opts, miniaudio.WithLogger(cliLogger))
		}
		return miniaudio.NewClient(filler, opts...)
	}
	return nil, errors.New("unknown audio backend " + backend)
}

// printEvents renders the conversation to w. text is sent once the session
// is ready. The first Closed event is delivered on closed.
func printEvents(w io.Writer, client *live.Client, s *session.Session, text string, closed chan<- events.Closed) func() {
	bus := client.Events()
	unsubscribe := []func(){
		events.Subscribe(bus, func(e events.SetupComplete) {
			fmt.Fprintln(w, Styles.Success.Render("session ready"))
			if text == "" {
				return
			}
			fmt.Fprintln(w, Styles.User.Render("you:"), text)
			if err := s.SendText(text); err != nil {
				fmt.Fprintln(w, Styles.Error.Render("failed to send text:"), err)
			}
		}),
		events.Subscribe(bus, func(e events.InputTranscript) {
			if e.Finished && strings.TrimSpace(e.Text) != "" {
				fmt.Fprintln(w, Styles.User.Render("you:"), e.Text)
			}
		}),
		events.Subscribe(bus, func(e events.OutputTranscript) {
			if e.Finished && strings.TrimSpace(e.Text) != "" {
				fmt.Fprintln(w, Styles.Model.Render("ema:"), e.Text)
			}
		}),
		events.Subscribe(bus, func(e events.Content) {
			if reply := e.Text(); strings.TrimSpace(reply) != "" {
				fmt.Fprintln(w, Styles.Model.Render("ema:"), reply)
			}
		}),
		events.Subscribe(bus, func(e events.StatusMessage) {
			fmt.Fprintln(w, Styles.Status.Render(e.Text))
		}),
		events.Subscribe(bus, func(e events.Interrupted) {
			fmt.Fprintln(w, Styles.Dim.Render("(interrupted)"))
		}),
		events.Subscribe(bus, func(e events.DomainEvent) {
			if e.StageIndex != nil {
				fmt.Fprintln(w, Styles.Label.Render(fmt.Sprintf("stage %d", *e.StageIndex)))
			}
		}),
		events.Subscribe(bus, func(e events.Closed) {
			select {
			case closed <- e:
			default:
			}
		}),
	}
	return func() {
		for _, fn := range unsubscribe {
			fn()
		}
	}
}
