package generate

import (
	"image"
	"math"

	"github.com/simlabels/groundtruth/internal/geom"
	"github.com/simlabels/groundtruth/internal/imagesink"
	"github.com/simlabels/groundtruth/internal/intersect"
)

// NormalsGenerator emits a visual surface-normal raster per record, per
// spec.md §4.3.2.
type NormalsGenerator struct {
	Enabled map[OutputKind]bool

	triangleToNormal []geom.Vec
}

// Setup builds the triangle_index -> unit normal table. Degenerate
// triangles already carry a zero normal from mesh.Scene construction
// and are tolerated here, per spec.md §4.3.2.
func (g *NormalsGenerator) Setup(ctx *GenerationContext) error {
	g.triangleToNormal = make([]geom.Vec, len(ctx.Scene.Triangles))
	for i, tri := range ctx.Scene.Triangles {
		g.triangleToNormal[i] = tri.Normal
	}
	return nil
}

// Generate implements Generator.
func (g *NormalsGenerator) Generate(rec *intersect.Record, sourceFrame image.Image, sink imagesink.Sink, outputPrefix string) error {
	if !g.Enabled[Visuals] {
		return nil
	}
	w, h := rec.PixelWidth, rec.PixelHeight
	normals := make([]geom.Vec, w*h)

	if rec.HasDepthData() {
		for i, pc := range rec.PixelToRay {
			rayIdx := rec.RayIndices[i]
			triIdx := rec.TrianglePerPixel[rayIdx]
			if triIdx != intersect.MissTriangle {
				normals[pc.Y*w+pc.X] = g.triangleToNormal[triIdx]
			}
		}
	} else {
		for i, triIdx := range rec.TrianglePerPixel {
			if triIdx != intersect.MissTriangle {
				normals[i] = g.triangleToNormal[triIdx]
			}
		}
	}

	img := normalize(normals, w, h)
	flipVertical := !rec.HasDepthData()
	oriented := imagesink.Orient(img, flipVertical)
	return sink.WritePNG(outputPrefix+"-normals.png", oriented)
}

// normalize reshapes normals into an image, shifting by the
// component-wise min and dividing by the component-wise range before
// scaling to bytes, per spec.md §4.3.2's per-frame normalisation rule
// (preserved verbatim from the source behaviour, not mapped to
// (n+1)/2).
func normalize(normals []geom.Vec, w, h int) *image.NRGBA {
	minX, minY, minZ := math.Inf(1), math.Inf(1), math.Inf(1)
	maxX, maxY, maxZ := math.Inf(-1), math.Inf(-1), math.Inf(-1)
	for _, n := range normals {
		minX, maxX = math.Min(minX, n.X), math.Max(maxX, n.X)
		minY, maxY = math.Min(minY, n.Y), math.Max(maxY, n.Y)
		minZ, maxZ = math.Min(minZ, n.Z), math.Max(maxZ, n.Z)
	}
	rangeOf := func(lo, hi float64) float64 {
		if hi-lo == 0 {
			return 1
		}
		return hi - lo
	}
	rx, ry, rz := rangeOf(minX, maxX), rangeOf(minY, maxY), rangeOf(minZ, maxZ)

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i, n := range normals {
		px := i * 4
		img.Pix[px+0] = byte(255 * (n.X - minX) / rx)
		img.Pix[px+1] = byte(255 * (n.Y - minY) / ry)
		img.Pix[px+2] = byte(255 * (n.Z - minZ) / rz)
		img.Pix[px+3] = 255
	}
	return img
}
