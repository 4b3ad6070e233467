package audio

import "unsafe"

// float32SliceToBytes reinterprets a []float32 as its little-endian byte
// representation without copying, the same unsafe.Slice/pointer-cast
// idiom the teacher's pkg/audio/sdl.go uses to hand SDL its raw sample
// buffer.
func float32SliceToBytes(samples []float32) []byte {
	if len(samples) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&samples[0])), len(samples)*4)
}
