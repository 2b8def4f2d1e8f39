// Package imagesink provides the narrow image byte-sink interface
// named in spec.md §1 and a default filesystem-backed implementation
// using the standard library's image codecs.
package imagesink

import (
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
)

// Sink is the narrow external-collaborator interface for low-level
// image encode/decode (spec.md §1, out of scope for the core).
type Sink interface {
	WritePNG(path string, img image.Image) error
	WriteJPEG(path string, img image.Image, quality int) error
	CopyFile(srcPath, destPath string) error
}

// FileSink writes images directly to the local filesystem.
type FileSink struct{}

// WritePNG implements Sink.
func (FileSink) WritePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

// WriteJPEG implements Sink.
func (FileSink) WriteJPEG(path string, img image.Image, quality int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return jpeg.Encode(f, img, &jpeg.Options{Quality: quality})
}

// CopyFile implements Sink, used to copy the source frame into the
// output directory unmodified (spec.md §6, "{record_id}.jpeg — copy of
// input frame").
func (FileSink) CopyFile(srcPath, destPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer src.Close()
	dest, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer dest.Close()
	_, err = io.Copy(dest, src)
	return err
}
