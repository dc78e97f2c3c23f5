// Package chime plays a short tone on chain lifecycle events, an optional
// audible cue layered on top of the event bus.
package chime

import (
	"bytes"
	_ "embed"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
	"github.com/gopxl/beep/wav"

	"github.com/Danondso/rhkd/internal/events"
)

//go:embed assets/begin.wav
var defaultBeginWav []byte

//go:embed assets/end.wav
var defaultEndWav []byte

//go:embed assets/timeout.wav
var defaultTimeoutWav []byte

// Player is an events.Sink that plays a tone for KindBeginChain,
// KindEndChain, and KindTimeout, and is silent for every other kind.
type Player struct {
	beginData   []byte
	endData     []byte
	timeoutData []byte
	enabled     bool
	logger      *log.Logger
	initOnce    sync.Once
	initErr     error
}

// New creates a Player. Empty paths fall back to the embedded defaults. When
// enabled is false, Publish still returns true (the sink stays registered)
// but never plays anything. enabled is fixed for the Player's lifetime.
func New(beginPath, endPath, timeoutPath string, enabled bool, logger *log.Logger) (*Player, error) {
	p := &Player{
		beginData:   defaultBeginWav,
		endData:     defaultEndWav,
		timeoutData: defaultTimeoutWav,
		enabled:     enabled,
		logger:      logger,
	}

	for path, dst := range map[string]*[]byte{
		beginPath:   &p.beginData,
		endPath:     &p.endData,
		timeoutPath: &p.timeoutData,
	} {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read chime %s: %w", path, err)
		}
		*dst = data
	}

	return p, nil
}

// Publish implements events.Sink. It never reports failure — a broken audio
// device silences the chime, it doesn't drop the bus's other sinks.
func (p *Player) Publish(e events.Event) bool {
	switch e.Kind {
	case events.KindBeginChain:
		p.play(p.beginData)
	case events.KindEndChain:
		p.play(p.endData)
	case events.KindTimeout:
		p.play(p.timeoutData)
	}
	return true
}

func (p *Player) initSpeaker(format beep.Format) {
	p.initOnce.Do(func() {
		p.initErr = speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10))
	})
}

func (p *Player) play(data []byte) {
	if !p.enabled || len(data) == 0 {
		return
	}

	go func() {
		reader := bytes.NewReader(data)
		streamer, format, err := wav.Decode(reader)
		if err != nil {
			if p.logger != nil {
				p.logger.Printf("chime: wav decode error: %v", err)
			}
			return
		}
		defer streamer.Close()

		p.initSpeaker(format)
		if p.initErr != nil {
			if p.logger != nil {
				p.logger.Printf("chime: speaker init error: %v", p.initErr)
			}
			return
		}

		done := make(chan struct{})
		speaker.Play(beep.Seq(streamer, beep.Callback(func() {
			close(done)
		})))
		<-done
	}()
}
