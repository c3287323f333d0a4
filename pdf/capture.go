package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"math"

	"github.com/go-pdf/fpdf"
	"golang.org/x/image/draw"
)

// Band is a horizontal slice of a captured raster, in source pixels.
type Band struct {
	Offset int
	Height int
}

// Bands cuts a raster srcH pixels tall into consecutive bands of at most
// bandH pixels. Bands are contiguous and their heights sum to srcH.
func Bands(srcH, bandH int) []Band {
	if srcH <= 0 || bandH <= 0 {
		return nil
	}
	bands := make([]Band, 0, (srcH+bandH-1)/bandH)
	for off := 0; off < srcH; off += bandH {
		bands = append(bands, Band{Offset: off, Height: min(bandH, srcH-off)})
	}
	return bands
}

// CaptureOptions controls RenderCapture.
type CaptureOptions struct {
	PageSize    string
	Margin      float64
	Title       string
	JPEGQuality int
	// MaxPixels caps the declared width×height of an accepted capture.
	MaxPixels int64
}

// DefaultCaptureOptions returns A4 settings with a 10mm margin.
func DefaultCaptureOptions() CaptureOptions {
	return CaptureOptions{PageSize: "A4", Margin: 10, JPEGQuality: 90, MaxPixels: defaultMaxDecodePixels}
}

// captureBandHeight returns how many source rows fit on one page once the
// raster is scaled to the usable page width.
func captureBandHeight(pageW, pageH, margin float64, srcW int) int {
	scale := (pageW - 2*margin) / float64(srcW)
	return max(1, int(math.Floor((pageH-2*margin)/scale)))
}

// DecodeCapture reads a screenshot of the preview. Inputs larger than
// maxBytes, or declaring more than maxPixels pixels, are refused. A
// non-positive limit disables that check.
func DecodeCapture(r io.Reader, maxBytes, maxPixels int64) (image.Image, error) {
	if maxBytes > 0 {
		r = io.LimitReader(r, maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading capture: %w", err)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("capture exceeds %d bytes", maxBytes)
	}
	img, err := decodeBounded(data, maxPixels)
	if err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}
	return img, nil
}

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

// RenderCapture lays a single tall screenshot of the preview across as many
// pages as needed. The raster is scaled to the page width and each page
// shows the next band, so nothing is repeated or lost at page boundaries.
func RenderCapture(img image.Image, opts CaptureOptions) (*Output, error) {
	if img == nil {
		return nil, errors.New("pdf: nil capture")
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, errors.New("pdf: empty capture")
	}
	if opts.PageSize == "" {
		opts.PageSize = "A4"
	}
	if opts.JPEGQuality <= 0 {
		opts.JPEGQuality = 90
	}

	doc := fpdf.New("P", "mm", opts.PageSize, "")
	doc.SetMargins(opts.Margin, opts.Margin, opts.Margin)
	doc.SetAutoPageBreak(false, opts.Margin)
	if opts.Title != "" {
		doc.SetTitle(opts.Title, true)
	}
	doc.SetCreator("fleetcheck", false)

	pageW, pageH := doc.GetPageSize()
	usableW := pageW - 2*opts.Margin
	scale := usableW / float64(b.Dx())
	bandH := captureBandHeight(pageW, pageH, opts.Margin, b.Dx())

	for i, band := range Bands(b.Dy(), bandH) {
		rect := image.Rect(b.Min.X, b.Min.Y+band.Offset, b.Max.X, b.Min.Y+band.Offset+band.Height)
		data, typ, err := encodeImage(cropImage(img, rect), opts.JPEGQuality)
		if err != nil {
			return nil, fmt.Errorf("encoding band %d: %w", i, err)
		}

		name := fmt.Sprintf("band-%d", i)
		doc.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: typ}, bytes.NewReader(data))
		doc.AddPage()
		doc.ImageOptions(name, opts.Margin, opts.Margin, usableW, float64(band.Height)*scale, false, fpdf.ImageOptions{}, 0, "")
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("writing pdf: %w", err)
	}
	return &Output{Data: buf.Bytes(), Pages: doc.PageCount()}, nil
}

func cropImage(img image.Image, r image.Rectangle) image.Image {
	if s, ok := img.(subImager); ok {
		return s.SubImage(r)
	}
	dst := image.NewNRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(dst, dst.Bounds(), img, r.Min, draw.Src)
	return dst
}
