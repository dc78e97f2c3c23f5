//go:build ignore

// This program regenerates the embedded begin/end/timeout chime WAV files.
// Run with: go run generate_chimes.go
package main

import (
	"encoding/binary"
	"log"
	"math"
	"os"
)

func main() {
	sampleRate := 44100

	// Begin chain: ascending tone (A4 440Hz -> C#5 554Hz).
	write("assets/begin.wav", generateChime(sampleRate, 0.12, 440, 554), sampleRate)

	// End chain: descending tone, mirroring begin.
	write("assets/end.wav", generateChime(sampleRate, 0.12, 554, 440), sampleRate)

	// Timeout: longer, lower, descending tone distinct from end-chain.
	write("assets/timeout.wav", generateChime(sampleRate, 0.18, 330, 220), sampleRate)
}

func write(path string, samples []int16, sampleRate int) {
	if err := os.WriteFile(path, encodeWAV(samples, sampleRate), 0644); err != nil {
		log.Fatal(err)
	}
}

func generateChime(sampleRate int, duration, startFreq, endFreq float64) []int16 {
	numSamples := int(float64(sampleRate) * duration)
	samples := make([]int16, numSamples)
	for i := 0; i < numSamples; i++ {
		t := float64(i) / float64(sampleRate)
		progress := float64(i) / float64(numSamples)
		freq := startFreq + (endFreq-startFreq)*progress
		// Apply envelope (fade in/out)
		envelope := math.Sin(math.Pi * progress)
		val := math.Sin(2*math.Pi*freq*t) * envelope * 16000
		samples[i] = int16(val)
	}
	return samples
}

// encodeWAV writes samples as a mono 16-bit PCM WAV file.
func encodeWAV(samples []int16, sampleRate int) []byte {
	dataSize := len(samples) * 2
	byteRate := sampleRate * 2

	buf := make([]byte, 0, 44+dataSize)
	buf = append(buf, "RIFF"...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(36+dataSize))
	buf = append(buf, "WAVE"...)
	buf = append(buf, "fmt "...)
	buf = binary.LittleEndian.AppendUint32(buf, 16)
	buf = binary.LittleEndian.AppendUint16(buf, 1) // PCM
	buf = binary.LittleEndian.AppendUint16(buf, 1) // mono
	buf = binary.LittleEndian.AppendUint32(buf, uint32(sampleRate))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(byteRate))
	buf = binary.LittleEndian.AppendUint16(buf, 2)  // block align
	buf = binary.LittleEndian.AppendUint16(buf, 16) // bits per sample
	buf = append(buf, "data"...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(dataSize))
	for _, s := range samples {
		buf = binary.LittleEndian.AppendUint16(buf, uint16(s))
	}
	return buf
}
