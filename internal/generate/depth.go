package generate

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/simlabels/groundtruth/internal/imagesink"
	"github.com/simlabels/groundtruth/internal/intersect"
)

// DepthGenerator emits a visual depth raster per record, per
// spec.md §4.3.3. It is only legal when the record was produced in
// all-hits (depth-enabled) mode; requesting "data" output is a
// configuration-time error (reserved, not implemented).
type DepthGenerator struct {
	Enabled map[OutputKind]bool
}

// Setup implements Generator; the depth generator needs no per-run
// lookup table.
func (g *DepthGenerator) Setup(ctx *GenerationContext) error {
	if g.Enabled[Data] {
		return fmt.Errorf("depth generator: \"data\" output is reserved and unsupported")
	}
	return nil
}

// Generate implements Generator.
func (g *DepthGenerator) Generate(rec *intersect.Record, sourceFrame image.Image, sink imagesink.Sink, outputPrefix string) error {
	if !g.Enabled[Visuals] {
		return nil
	}
	if !rec.HasDepthData() {
		return fmt.Errorf("depth generator: record %s was not produced in all-hits mode", rec.RecordID)
	}

	w, h := rec.PixelWidth, rec.PixelHeight
	depths := make([]float64, len(rec.RayIndices))
	for i, rayIdx := range rec.RayIndices {
		hit := rec.HitLocations[i]
		dir := rec.RayDirections[rayIdx]
		dx, dy, dz := hit.X-rec.RayOrigin.X, hit.Y-rec.RayOrigin.Y, hit.Z-rec.RayOrigin.Z
		depths[i] = dx*dir.X + dy*dir.Y + dz*dir.Z
	}

	minD, maxD := math.Inf(1), math.Inf(-1)
	for _, d := range depths {
		minD, maxD = math.Min(minD, d), math.Max(maxD, d)
	}
	span := maxD - minD
	if span == 0 {
		span = 1
	}

	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0
	}
	for i, pc := range rec.PixelToRay {
		norm := (depths[i] - minD) / span
		inverted := 1 - norm
		img.SetGray(pc.X, pc.Y, color.Gray{Y: byteFromUnit(inverted)})
	}

	oriented := imagesink.Orient(toNRGBAFromGray(img), false)
	return sink.WritePNG(outputPrefix+"-depth.png", oriented)
}

func byteFromUnit(v float64) uint8 {
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	return uint8(v * 255)
}
