// Package audio implements the audio-queue capability (spec §6.4) over
// SDL2's audio device, grounded on the teacher repository's
// pkg/audio/sdl.go. The core only ever calls apu.AudioQueue.Push per
// synthesized stereo sample; the buffering-to-4096-frames and
// catch-up-throttle behaviour spec §4.5 describes lives here, on the
// consumer side of that interface, not inside the APU.
package audio

import (
	"time"

	"github.com/veandco/go-sdl2/sdl"
)

const (
	sampleRate = 44100

	// flushFrames is the stereo-frame count spec §4.5 names as the
	// mixer's buffer target before a flush to the downstream queue.
	flushFrames = 4096

	// backlogFrames is the queued-sample threshold past which the
	// producer throttles (spec §4.5): "if the downstream queue has more
	// than 8192 samples pending, the mixer sleeps proportionally".
	backlogFrames = 8192

	maxThrottle = 40 * time.Millisecond
)

// SDLQueue implements apu.AudioQueue over an SDL2 audio device opened in
// queue (not callback) mode, so the producer side controls pacing
// directly instead of being driven by an SDL callback.
type SDLQueue struct {
	device sdl.AudioDeviceID
	buf    []float32
}

// Open initializes the SDL audio subsystem (if not already) and opens a
// stereo float32 output device at 44.1kHz.
func Open() (*SDLQueue, error) {
	if err := sdl.InitSubSystem(sdl.INIT_AUDIO); err != nil {
		return nil, err
	}

	spec := sdl.AudioSpec{
		Freq:     sampleRate,
		Format:   sdl.AUDIO_F32,
		Channels: 2,
		Samples:  2048,
	}
	dev, err := sdl.OpenAudioDevice("", false, &spec, nil, 0)
	if err != nil {
		return nil, err
	}
	sdl.PauseAudioDevice(dev, false)

	return &SDLQueue{device: dev}, nil
}

// Push appends one interleaved stereo sample and flushes to the SDL
// device once flushFrames have accumulated, matching spec §4.5's mixer
// buffering target.
func (q *SDLQueue) Push(left, right float32) {
	q.buf = append(q.buf, left, right)
	if len(q.buf) >= flushFrames*2 {
		q.flush()
	}
}

func (q *SDLQueue) flush() {
	if err := sdl.QueueAudio(q.device, float32SliceToBytes(q.buf)); err == nil {
		q.buf = q.buf[:0]
	}

	// Throttle proportionally to how far behind the consumer has fallen
	// (spec §4.5), capped so a stalled consumer never blocks the core for
	// more than maxThrottle.
	queued := sdl.GetQueuedAudioSize(q.device)
	queuedFrames := int(queued) / (4 * 2) // 4 bytes/float32 * 2 channels
	if queuedFrames > backlogFrames {
		over := queuedFrames - backlogFrames
		sleep := time.Duration(over) * time.Microsecond
		if sleep > maxThrottle {
			sleep = maxThrottle
		}
		time.Sleep(sleep)
	}
}

// QueuedSamples reports the device's currently queued stereo-frame
// count, for the debugger's audio-visualizer views.
func (q *SDLQueue) QueuedSamples() int {
	return int(sdl.GetQueuedAudioSize(q.device)) / (4 * 2)
}

// Close stops and releases the audio device.
func (q *SDLQueue) Close() {
	sdl.CloseAudioDevice(q.device)
}
