package main

import (
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/gen2brain/malgo"

	"github.com/hr7657316/education-ai/pkg/core"
)

// micSource captures 16-bit mono PCM from the default input device. It
// implements session.CaptureSource.
type micSource struct {
	sampleRate int

	ctx    *malgo.AllocatedContext
	device *malgo.Device

	mu     sync.Mutex
	cond   *sync.Cond
	buf    []byte
	closed bool
}

func newMicSource(sampleRate int) *micSource {
	m := &micSource{
		sampleRate: sampleRate,
		buf:        make([]byte, 0, sampleRate*2),
	}
	m.cond = sync.NewCond(&m.mu)
	return m
}

func (m *micSource) Start() error {
	ctxConfig := malgo.ContextConfig{}
	ctxConfig.ThreadPriority = malgo.ThreadPriorityRealtime
	ctx, err := malgo.InitContext(nil, ctxConfig, nil)
	if err != nil {
		return core.NewDeviceError("init audio context", err)
	}
	m.ctx = ctx

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = 1
	deviceConfig.SampleRate = uint32(m.sampleRate)
	deviceConfig.PeriodSizeInMilliseconds = 20

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, input []byte, _ uint32) {
			m.mu.Lock()
			m.buf = append(m.buf, input...)
			m.mu.Unlock()
			m.cond.Signal()
		},
	}
	device, err := malgo.InitDevice(ctx.Context, deviceConfig, callbacks)
	if err != nil {
		m.ctx.Uninit()
		return core.NewPermissionError("open microphone", err)
	}
	m.device = device

	if err := device.Start(); err != nil {
		device.Uninit()
		m.ctx.Uninit()
		return core.NewDeviceError("start microphone", err)
	}

	m.mu.Lock()
	m.closed = false
	m.mu.Unlock()
	return nil
}

func (m *micSource) Read(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for len(m.buf) == 0 && !m.closed {
		m.cond.Wait()
	}
	if m.closed {
		return 0, fmt.Errorf("microphone closed")
	}
	n := copy(p, m.buf)
	m.buf = m.buf[n:]
	return n, nil
}

func (m *micSource) Stop() error {
	m.mu.Lock()
	m.closed = true
	m.buf = m.buf[:0]
	m.cond.Broadcast()
	m.mu.Unlock()

	if m.device != nil {
		m.device.Stop()
		m.device.Uninit()
		m.device = nil
	}
	if m.ctx != nil {
		m.ctx.Uninit()
		m.ctx = nil
	}
	return nil
}

// speakerSink streams 24kHz PCM to the default output device. The playback
// queue hands chunks over in schedule order, so appending to one buffer
// plays them back to back. It implements session.PlaybackSink.
type speakerSink struct {
	otoCtx *oto.Context

	mu      sync.Mutex
	buf     []byte
	player  *oto.Player
	playing bool
	closed  bool
}

func newSpeakerSink(sampleRate int) (*speakerSink, error) {
	opts := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
		// 100ms at 24kHz mono 16-bit keeps latency low without glitching.
		BufferSize: sampleRate / 10 * 2,
	}
	ctx, ready, err := oto.NewContext(opts)
	if err != nil {
		return nil, core.NewDeviceError("init speaker", err)
	}
	<-ready

	return &speakerSink{otoCtx: ctx, buf: make([]byte, 0, sampleRate*4)}, nil
}

func (s *speakerSink) Play(pcm []byte, start time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	s.buf = append(s.buf, pcm...)
	if !s.playing {
		s.playing = true
		s.player = s.otoCtx.NewPlayer(s)
		s.player.Play()
	}
}

// Read feeds oto. Silence is returned while the queue is empty so the
// player keeps draining.
func (s *speakerSink) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.buf) == 0 {
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}
	n := copy(p, s.buf)
	s.buf = s.buf[n:]
	return n, nil
}

// Stop discards buffered audio and tears the player down so the next Play
// starts clean.
func (s *speakerSink) Stop() {
	s.mu.Lock()
	s.buf = s.buf[:0]
	player := s.player
	s.player = nil
	s.playing = false
	s.mu.Unlock()

	if player != nil {
		player.Pause()
		player.Close()
	}
}

func (s *speakerSink) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.Stop()
}
