package imagesink

import "image"

// Orient applies the output orientation rule from spec.md §4.3: every
// raster is rotated 90 degrees counter-clockwise before writing, and
// additionally flipped vertically when flipVertical is true (i.e. when
// depth is not being generated; the all-hits path used for depth
// already produces pixel coordinates in the depth-consistent
// orientation). All three generators and the copied source frame must
// apply this identically.
func Orient(src *image.NRGBA, flipVertical bool) *image.NRGBA {
	rotated := rotate90CCW(src)
	if flipVertical {
		flipVerticalInPlace(rotated)
	}
	return rotated
}

func rotate90CCW(src *image.NRGBA) *image.NRGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewNRGBA(image.Rect(0, 0, h, w))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			// (x, y) -> (y, w-1-x) rotates the source 90 degrees
			// counter-clockwise into dst.
			dst.Set(y, w-1-x, src.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return dst
}

func flipVerticalInPlace(img *image.NRGBA) {
	b := img.Bounds()
	h := b.Dy()
	for y := 0; y < h/2; y++ {
		top := y * img.Stride
		bottom := (h - 1 - y) * img.Stride
		for x := 0; x < img.Stride; x++ {
			img.Pix[top+x], img.Pix[bottom+x] = img.Pix[bottom+x], img.Pix[top+x]
		}
	}
}
