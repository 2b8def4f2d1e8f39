// Package record decodes recorded-frame state files and enumerates the
// recorded-frame ids a run should process.
package record

import (
	"encoding/binary"
	"fmt"
	"math"
)

// fieldOrder is the fixed binary layout of a state record: six
// float64s (little-endian) holding the fields the core consumes,
// followed by whatever trailing bytes the capture format appends (kept
// verbatim in Extra, never interpreted).
var fieldOrder = []string{"ego_location_x", "ego_location_y", "ego_location_z", "pitch", "heading", "roll"}

const headerSize = 8 * 6

// State is a decoded state record. The core only reads EgoLocation,
// Pitch, Heading and Roll (all radians); Extra carries any trailing
// bytes through unexamined, per spec.md §6 ("other fields are carried
// through").
type State struct {
	EgoLocationX, EgoLocationY, EgoLocationZ float64
	Pitch, Heading, Roll                     float64
	Extra                                    []byte
}

// DecodeState parses the fixed binary schema described by fieldOrder.
func DecodeState(data []byte) (*State, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("state record too short: got %d bytes, want at least %d", len(data), headerSize)
	}
	values := make([]float64, len(fieldOrder))
	for i := range fieldOrder {
		bits := binary.LittleEndian.Uint64(data[i*8 : i*8+8])
		values[i] = math.Float64frombits(bits)
	}
	s := &State{
		EgoLocationX: values[0],
		EgoLocationY: values[1],
		EgoLocationZ: values[2],
		Pitch:        values[3],
		Heading:      values[4],
		Roll:         values[5],
	}
	if len(data) > headerSize {
		s.Extra = append([]byte(nil), data[headerSize:]...)
	}
	return s, nil
}

// EncodeState is the inverse of DecodeState, used by tests to build
// synthetic fixture records.
func EncodeState(s *State) []byte {
	out := make([]byte, headerSize+len(s.Extra))
	values := []float64{s.EgoLocationX, s.EgoLocationY, s.EgoLocationZ, s.Pitch, s.Heading, s.Roll}
	for i, v := range values {
		binary.LittleEndian.PutUint64(out[i*8:i*8+8], math.Float64bits(v))
	}
	copy(out[headerSize:], s.Extra)
	return out
}
