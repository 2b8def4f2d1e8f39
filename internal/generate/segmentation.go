package generate

import (
	"fmt"
	"image"
	"image/color"

	"github.com/simlabels/groundtruth/internal/classes"
	"github.com/simlabels/groundtruth/internal/imagesink"
	"github.com/simlabels/groundtruth/internal/intersect"
	"github.com/simlabels/groundtruth/internal/mesh"
	"github.com/simlabels/groundtruth/internal/track"
)

// SegmentationGenerator emits BGR colour, train-id and overlay rasters
// for each record, per spec.md §4.3.1.
type SegmentationGenerator struct {
	Classes      *classes.Table
	TrackProfile *track.Profile
	Enabled      map[OutputKind]bool

	triangleToClassID []uint8
	summary           *PixelClassSummary
}

// Setup builds the dense triangle_index -> class_id lookup, per
// spec.md §4.3.1: a missing material is a fatal configuration error.
// Triangles with no material, or with mesh.PhysicsMaterial (which the
// accelerator never reports as a hit), map to void.
func (g *SegmentationGenerator) Setup(ctx *GenerationContext) error {
	g.triangleToClassID = make([]uint8, len(ctx.Scene.Triangles))
	for i, material := range ctx.Scene.Material {
		if material == "" || material == mesh.PhysicsMaterial {
			g.triangleToClassID[i] = classes.VoidRawID
			continue
		}
		id, ok := g.TrackProfile.MaterialToID[material]
		if !ok {
			return fmt.Errorf("segmentation setup: triangle %d has material %q with no class mapping", i, material)
		}
		g.triangleToClassID[i] = uint8(id)
	}
	ctx.TriangleToClassID = g.triangleToClassID
	ctx.VoidTrainID = classes.VoidRawID
	voidColour, _ := g.Classes.Colour("void")
	ctx.VoidColour = [3]byte{voidColour.B, voidColour.G, voidColour.R}
	g.summary = NewPixelClassSummary()
	return nil
}

// classIDRaster maps the record's triangle-per-pixel array to a
// width x height raster of raw class ids, scattering via pixel_to_ray
// when the record carries ragged all-hits data.
func (g *SegmentationGenerator) classIDRaster(rec *intersect.Record) []uint8 {
	raster := make([]uint8, rec.PixelWidth*rec.PixelHeight)
	for i := range raster {
		raster[i] = classes.VoidRawID
	}

	if rec.HasDepthData() {
		for i, pc := range rec.PixelToRay {
			rayIdx := rec.RayIndices[i]
			triIdx := rec.TrianglePerPixel[rayIdx]
			raster[pc.Y*rec.PixelWidth+pc.X] = g.classIDFor(triIdx)
		}
		return raster
	}

	for i, triIdx := range rec.TrianglePerPixel {
		raster[i] = g.classIDFor(triIdx)
	}
	return raster
}

func (g *SegmentationGenerator) classIDFor(triIdx int) uint8 {
	if triIdx == intersect.MissTriangle {
		return classes.VoidRawID
	}
	return g.triangleToClassID[triIdx]
}

// Generate implements Generator.
func (g *SegmentationGenerator) Generate(rec *intersect.Record, sourceFrame image.Image, sink imagesink.Sink, outputPrefix string) error {
	raster := g.classIDRaster(rec)
	g.summary.Add(raster)

	w, h := rec.PixelWidth, rec.PixelHeight
	flipVertical := !rec.HasDepthData()

	if g.Enabled[Data] {
		trainIDs := image.NewGray(image.Rect(0, 0, w, h))
		for i, id := range raster {
			trainIDs.Pix[i] = g.Classes.TrainIDByRawID(id)
		}
		oriented := imagesink.Orient(toNRGBAFromGray(trainIDs), flipVertical)
		if err := sink.WritePNG(outputPrefix+"-trainids.png", oriented); err != nil {
			return err
		}
	}

	var colourImg *image.NRGBA
	if g.Enabled[Visuals] || g.Enabled[Overlays] {
		colourImg = image.NewNRGBA(image.Rect(0, 0, w, h))
		for i, id := range raster {
			c := g.Classes.ColourByRawID(id)
			// BGR order: the sink encodes NRGBA bytes as they are, so the
			// written image holds each class colour with red and blue swapped.
			px := i * 4
			colourImg.Pix[px+0] = c.B
			colourImg.Pix[px+1] = c.G
			colourImg.Pix[px+2] = c.R
			colourImg.Pix[px+3] = 255
		}
	}

	if g.Enabled[Visuals] {
		oriented := imagesink.Orient(colourImg, flipVertical)
		if err := sink.WritePNG(outputPrefix+"-seg_colour.png", oriented); err != nil {
			return err
		}
	}

	if g.Enabled[Overlays] {
		overlay := blend(sourceFrame, colourImg)
		oriented := imagesink.Orient(overlay, flipVertical)
		if err := sink.WritePNG(outputPrefix+"-seg_overlay.png", oriented); err != nil {
			return err
		}
	}
	return nil
}

// Summary returns the accumulated per-class pixel counts across every
// record processed so far, for internal/report.
func (g *SegmentationGenerator) Summary() *PixelClassSummary { return g.summary }

// toNRGBAFromGray widens a greyscale raster to NRGBA with R=G=B, because
// Orient operates on *image.NRGBA so every generator shares one
// rotate/flip implementation. The PNG encoder writes the result as a
// three-channel image with equal channels: trainids.png and depth.png are
// not single-channel files, though every channel holds the byte unchanged.
func toNRGBAFromGray(gray *image.Gray) *image.NRGBA {
	b := gray.Bounds()
	out := image.NewNRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			v := gray.GrayAt(x, y).Y
			out.SetNRGBA(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return out
}

// blend produces a 50/50 per-channel linear blend of frame and colour,
// per spec.md §4.3.1's seg_overlay rule.
func blend(frame image.Image, colour *image.NRGBA) *image.NRGBA {
	b := colour.Bounds()
	out := image.NewNRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			fr, fg, fb, _ := frame.At(x, y).RGBA()
			ci := colour.NRGBAAt(x, y)
			out.SetNRGBA(x, y, color.NRGBA{
				R: blendChannel(uint8(fr>>8), ci.R),
				G: blendChannel(uint8(fg>>8), ci.G),
				B: blendChannel(uint8(fb>>8), ci.B),
				A: 255,
			})
		}
	}
	return out
}

func blendChannel(a, b uint8) uint8 {
	return uint8((uint16(a) + uint16(b)) / 2)
}
