package engine

import (
	"bytes"
	"encoding/binary"
)

const (
	placeholderSampleRate = 44100
	placeholderSeconds    = 1
)

// placeholderWAV returns a one-second silent 16-bit mono PCM WAV file. It
// stands in for an asset when neither retrieval nor synthesis could produce
// audio, so downstream tooling always has a playable file per event.
func placeholderWAV() []byte {
	sampleCount := placeholderSampleRate * placeholderSeconds
	dataSize := sampleCount * 2

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // mono
	binary.Write(&buf, binary.LittleEndian, uint32(placeholderSampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(placeholderSampleRate*2)) // byte rate
	binary.Write(&buf, binary.LittleEndian, uint16(2))                       // block align
	binary.Write(&buf, binary.LittleEndian, uint16(16))                      // bits per sample

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataSize))
	buf.Write(make([]byte, dataSize))

	return buf.Bytes()
}
