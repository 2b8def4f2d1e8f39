// Package classes holds the process-wide semantic class table: the static
// mapping from class name to train-id and display colour that every
// generator consults when turning a triangle index into a label pixel.
package classes

import (
	"fmt"
	"math"
)

// Void is the sentinel train-id for "no intersection". It is never a
// value a real class may use.
const Void = -1

// voidIndex is where the void entry lives in the dense lookup arrays:
// the last slot, so that a byte raster's -1 (reinterpreted as 255,
// math.MaxUint8) lands on it directly without a branch.
const voidIndex = math.MaxUint8

// RGB is a display colour in red/green/blue order, 0-255 per channel.
type RGB struct {
	R, G, B uint8
}

// Class is one semantic class entry.
type Class struct {
	Name    string
	TrainID int
	Colour  RGB
}

// Table is the immutable, process-wide semantic class table plus its
// derived lookup structures. Construct with New; never mutate the
// returned value.
type Table struct {
	classes []Class

	nameToRGB     map[string]RGB
	nameToTrainID map[string]int

	// colourByID and trainIDByID are indexed by raw class id as it
	// appears in a per-pixel id raster (train-id ascending, 0..K-1),
	// with the void entry appended at voidIndex.
	colourByID  [256]RGB
	trainIDByID [256]uint8
}

// canonicalClasses is the single source of truth for the semantic class
// list. §9 of the spec flags that the source project carried two
// disagreeing copies of this list (one starting at "drivable" id 0,
// another at "road"); this reimplementation picks the "road"-first list
// as canonical. Changing this list changes the meaning of every
// previously generated trainids/seg_colour raster.
var canonicalClasses = []Class{
	{Name: "road", TrainID: 0, Colour: RGB{128, 64, 128}},
	{Name: "lane_marking", TrainID: 1, Colour: RGB{255, 255, 255}},
	{Name: "curb", TrainID: 2, Colour: RGB{196, 196, 196}},
	{Name: "sidewalk", TrainID: 3, Colour: RGB{244, 35, 232}},
	{Name: "grass", TrainID: 4, Colour: RGB{107, 142, 35}},
	{Name: "tree", TrainID: 5, Colour: RGB{70, 130, 70}},
	{Name: "barrier", TrainID: 6, Colour: RGB{190, 153, 153}},
	{Name: "building", TrainID: 7, Colour: RGB{70, 70, 70}},
	{Name: "sky", TrainID: 8, Colour: RGB{70, 130, 180}},
	{Name: "car", TrainID: 9, Colour: RGB{0, 0, 142}},
	{Name: "sign", TrainID: 10, Colour: RGB{220, 220, 0}},
	{Name: "pole", TrainID: 11, Colour: RGB{153, 153, 153}},
	{Name: "void", TrainID: Void, Colour: RGB{0, 0, 0}},
}

// Default returns the canonical process-wide class table.
func Default() *Table {
	t, err := New(canonicalClasses)
	if err != nil {
		// canonicalClasses is a compile-time constant; a failure here
		// is a programming error, not a runtime condition.
		panic(fmt.Sprintf("classes: invalid canonical table: %v", err))
	}
	return t
}

// New builds a Table from an explicit class list, validating the
// invariants from spec.md §3: unique names, non-negative train-ids
// contiguous from zero, and exactly one void entry.
func New(list []Class) (*Table, error) {
	t := &Table{
		nameToRGB:     make(map[string]RGB, len(list)),
		nameToTrainID: make(map[string]int, len(list)),
	}

	seenIDs := make(map[int]bool)
	voidSeen := false
	maxID := -1
	for _, c := range list {
		if _, dup := t.nameToRGB[c.Name]; dup {
			return nil, fmt.Errorf("classes: duplicate class name %q", c.Name)
		}
		if c.TrainID == Void {
			if voidSeen {
				return nil, fmt.Errorf("classes: void entry must be unique")
			}
			voidSeen = true
		} else {
			if c.TrainID < 0 {
				return nil, fmt.Errorf("classes: negative train id %d for %q", c.TrainID, c.Name)
			}
			if seenIDs[c.TrainID] {
				return nil, fmt.Errorf("classes: duplicate train id %d", c.TrainID)
			}
			seenIDs[c.TrainID] = true
			if c.TrainID > maxID {
				maxID = c.TrainID
			}
		}
		t.nameToRGB[c.Name] = c.Colour
		t.nameToTrainID[c.Name] = c.TrainID
		t.classes = append(t.classes, c)
	}
	if !voidSeen {
		return nil, fmt.Errorf("classes: table must contain a void entry")
	}
	for id := 0; id <= maxID; id++ {
		if !seenIDs[id] {
			return nil, fmt.Errorf("classes: train ids must be contiguous from 0, missing %d", id)
		}
	}

	for _, c := range list {
		if c.TrainID == Void {
			continue
		}
		t.colourByID[c.TrainID] = c.Colour
		t.trainIDByID[c.TrainID] = uint8(c.TrainID)
	}
	voidColour := t.nameToRGB["void"]
	t.colourByID[voidIndex] = voidColour
	t.trainIDByID[voidIndex] = voidIndex

	return t, nil
}

// Classes returns the ordered class list the table was built from.
func (t *Table) Classes() []Class { return append([]Class(nil), t.classes...) }

// TrainID looks up the train-id for a class name.
func (t *Table) TrainID(name string) (int, bool) {
	id, ok := t.nameToTrainID[name]
	return id, ok
}

// Colour looks up the display colour for a class name.
func (t *Table) Colour(name string) (RGB, bool) {
	rgb, ok := t.nameToRGB[name]
	return rgb, ok
}

// ColourByRawID returns the display colour for a raw per-pixel class id,
// where 255 (i.e. -1 reinterpreted as unsigned) is the void sentinel.
func (t *Table) ColourByRawID(rawID uint8) RGB { return t.colourByID[rawID] }

// TrainIDByRawID returns the byte-encoded train-id for a raw per-pixel
// class id, where 255 maps to 255 (void).
func (t *Table) TrainIDByRawID(rawID uint8) uint8 { return t.trainIDByID[rawID] }

// VoidRawID is the raw per-pixel id used for "no intersection".
const VoidRawID uint8 = voidIndex
