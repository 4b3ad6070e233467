// Package webstream implements the draw-target and audio-queue
// capabilities (spec §6.3, §6.4) over a websocket connection, as an
// alternate transport to the SDL/Fyne desktop frontends, grounded on the
// teacher repository's pkg/display/web (hub/player/client). Frame
// payloads are brotli-compressed and deduplicated against the previous
// frame's xxHash before being broadcast, mirroring the teacher's
// compression + unchanged-frame-skip pipeline.
package webstream

import (
	"math"
	"net/http"
	"sync"

	"github.com/cespare/xxhash"
	"github.com/google/brotli/go/cbrotli"
	"github.com/gorilla/websocket"

	"github.com/bassicali/gem-sub000/internal/core/gpu"
)

const (
	frameMsg = 0x01
	audioMsg = 0x02

	compressionQuality = 2 // teacher's default: low-latency over ratio
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server implements gpu.DrawTarget and apu.AudioQueue by broadcasting
// frames and audio samples to every connected websocket client.
type Server struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]chan []byte

	lastFrameHash uint64
	audioBuf      []float32
}

// New returns an empty Server ready to accept connections via
// ServeHTTP and frames/samples via Present/Push.
func New() *Server {
	return &Server{clients: make(map[*websocket.Conn]chan []byte)}
}

// ServeHTTP upgrades the request to a websocket connection and registers
// it as a broadcast target until the connection closes.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	send := make(chan []byte, 8)
	s.mu.Lock()
	s.clients[conn] = send
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.clients, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	for msg := range send {
		if err := conn.WriteMessage(websocket.BinaryMessage, msg); err != nil {
			return
		}
	}
}

func (s *Server) broadcast(msg []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.clients {
		select {
		case ch <- msg:
		default:
			// a slow client drops a frame rather than blocking the core's
			// Tick loop; the next frame supersedes it anyway.
		}
	}
}

// Present implements gpu.DrawTarget: it flattens frame to raw RGBA bytes,
// skips the broadcast entirely if the content hash matches the previous
// frame (static screens are common during menus/pauses), brotli-compresses
// the remainder, and fans it out to every connected client.
func (s *Server) Present(frame *[gpu.ScreenHeight][gpu.ScreenWidth][4]uint8) {
	raw := make([]byte, 0, gpu.ScreenWidth*gpu.ScreenHeight*4)
	for y := 0; y < gpu.ScreenHeight; y++ {
		for x := 0; x < gpu.ScreenWidth; x++ {
			p := frame[y][x]
			raw = append(raw, p[0], p[1], p[2], p[3])
		}
	}

	hash := xxhash.Sum64(raw)
	if hash == s.lastFrameHash {
		return
	}
	s.lastFrameHash = hash

	compressed, err := cbrotli.Encode(raw, cbrotli.WriterOptions{Quality: compressionQuality})
	if err != nil {
		return
	}
	s.broadcast(append([]byte{frameMsg}, compressed...))
}

// Push implements apu.AudioQueue, buffering stereo samples and flushing
// a websocket message once a reasonably sized chunk has accumulated.
func (s *Server) Push(left, right float32) {
	s.audioBuf = append(s.audioBuf, left, right)
	if len(s.audioBuf) < 2048 {
		return
	}
	payload := make([]byte, 1+len(s.audioBuf)*4)
	payload[0] = audioMsg
	for i, f := range s.audioBuf {
		bits := math.Float32bits(f)
		off := 1 + i*4
		payload[off+0] = byte(bits)
		payload[off+1] = byte(bits >> 8)
		payload[off+2] = byte(bits >> 16)
		payload[off+3] = byte(bits >> 24)
	}
	s.audioBuf = s.audioBuf[:0]
	s.broadcast(payload)
}

var _ gpu.DrawTarget = (*Server)(nil)
