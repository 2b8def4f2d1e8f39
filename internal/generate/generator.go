package generate

import (
	"image"
	"sync"

	"github.com/simlabels/groundtruth/internal/imagesink"
	"github.com/simlabels/groundtruth/internal/intersect"
	"github.com/simlabels/groundtruth/internal/mesh"
)

// GenerationContext is the shared setup state every generator needs,
// built once per run and reused for every record.
type GenerationContext struct {
	Width, Height int
	Scene         *mesh.Scene
	// TriangleToClassID maps a scene triangle index to its train id;
	// built by the segmentation generator's Setup, shared so other
	// generators can reuse it without a second material lookup pass.
	TriangleToClassID []uint8
	VoidTrainID       uint8
	VoidColour        [3]byte
	Enabled           map[OutputKind]bool
}

// Generator is the shared contract for the three label generators
// (§9 re-architecture guidance: "a small interface with two required
// operations").
type Generator interface {
	// Setup performs the per-run, per-generator preparation (e.g.
	// building a triangle-index -> value lookup table). It is called
	// once per run after the mesh and accelerator are loaded; the same
	// generator value then serves every generation worker.
	Setup(ctx *GenerationContext) error

	// Generate produces this generator's rasters for one record and
	// writes them via sink, using outputPrefix + a fixed suffix per
	// spec.md §6's output filename list.
	Generate(rec *intersect.Record, sourceFrame image.Image, sink imagesink.Sink, outputPrefix string) error
}

// PixelClassSummary accumulates per-class pixel counts across a run,
// for internal/report's post-run histogram.
type PixelClassSummary struct {
	CountByTrainID map[uint8]int64

	mu sync.Mutex
}

func NewPixelClassSummary() *PixelClassSummary {
	return &PixelClassSummary{CountByTrainID: make(map[uint8]int64)}
}

func (s *PixelClassSummary) Add(trainIDs []uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range trainIDs {
		s.CountByTrainID[id]++
	}
}
