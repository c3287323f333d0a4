package pdf

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/dukerupert/fleetcheck"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// ImageLoader fetches the bytes of an image referenced by a report.
type ImageLoader interface {
	Load(ctx context.Context, url string) (io.ReadCloser, error)
}

// ImageLoaderFunc adapts a function to ImageLoader.
type ImageLoaderFunc func(ctx context.Context, url string) (io.ReadCloser, error)

func (f ImageLoaderFunc) Load(ctx context.Context, url string) (io.ReadCloser, error) {
	return f(ctx, url)
}

// HTTPLoader fetches images over HTTP(S).
type HTTPLoader struct {
	Client *http.Client
}

// Load issues a GET bound to ctx. Any status other than 200 is an error.
func (l *HTTPLoader) Load(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("unsupported image url %q", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching image: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetching image: unexpected status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// StorageLoader reads images stored in our own FileStorage directly and
// hands every other URL to Next.
type StorageLoader struct {
	Storage fleetcheck.FileStorage
	Next    ImageLoader
}

func (l *StorageLoader) Load(ctx context.Context, url string) (io.ReadCloser, error) {
	if l.Storage != nil {
		if key, ok := l.Storage.KeyFromURL(url); ok {
			return l.Storage.Open(ctx, key)
		}
	}
	if l.Next == nil {
		return nil, fmt.Errorf("no loader for image url %q", url)
	}
	return l.Next.Load(ctx, url)
}

var errNotDataURL = errors.New("not a data url")

// openDataURL decodes an inline "data:image/png;base64,..." reference, the
// form signature pads produce.
func openDataURL(ref string) (io.ReadCloser, error) {
	rest, ok := strings.CutPrefix(ref, "data:")
	if !ok {
		return nil, errNotDataURL
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, errors.New("malformed data url")
	}
	if !strings.HasSuffix(meta, ";base64") {
		unescaped, err := url.PathUnescape(payload)
		if err != nil {
			return nil, fmt.Errorf("decoding data url: %w", err)
		}
		return io.NopCloser(strings.NewReader(unescaped)), nil
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decoding data url: %w", err)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// ErrImageTooLarge is returned for images whose declared dimensions exceed
// the configured pixel budget.
var ErrImageTooLarge = errors.New("image dimensions too large")

// loadImage fetches and decodes ref. JPEG, PNG, GIF, BMP and WebP are
// understood.
func loadImage(ctx context.Context, loader ImageLoader, ref string, maxBytes, maxPixels int64) (image.Image, error) {
	rc, err := openDataURL(ref)
	if errors.Is(err, errNotDataURL) {
		if loader == nil {
			return nil, errors.New("no image loader configured")
		}
		rc, err = loader.Load(ctx, ref)
	}
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var r io.Reader = rc
	if maxBytes > 0 {
		r = io.LimitReader(rc, maxBytes)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}
	return decodeBounded(data, maxPixels)
}

// decodeBounded decodes data after checking the dimensions in its header,
// so an image that declares more than maxPixels pixels is refused before
// its raster is allocated. maxPixels <= 0 disables the check.
func decodeBounded(data []byte, maxPixels int64) (image.Image, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image header: %w", err)
	}
	if maxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > maxPixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrImageTooLarge, cfg.Width, cfg.Height, maxPixels)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return img, nil
}

// FitImage scales a w×h image to maxW, then shrinks it further if the
// result is taller than maxH. The aspect ratio is always kept.
func FitImage(w, h, maxW, maxH float64) (float64, float64) {
	if w <= 0 || h <= 0 || maxW <= 0 || maxH <= 0 {
		return 0, 0
	}
	outW, outH := maxW, h*maxW/w
	if outH > maxH {
		outW, outH = w*maxH/h, maxH
	}
	return outW, outH
}

// downscale shrinks img so neither side exceeds maxPx.
func downscale(img image.Image, maxPx int) image.Image {
	b := img.Bounds()
	if maxPx <= 0 || (b.Dx() <= maxPx && b.Dy() <= maxPx) {
		return img
	}
	w, h := FitImage(float64(b.Dx()), float64(b.Dy()), float64(maxPx), float64(maxPx))
	dst := image.NewNRGBA(image.Rect(0, 0, max(1, int(w)), max(1, int(h))))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

type opaquer interface {
	Opaque() bool
}

// encodeImage re-encodes img for embedding. Opaque images become JPEG;
// anything with transparency is flattened onto white and kept as PNG so
// signature strokes stay sharp. Returns the fpdf image type with the bytes.
func encodeImage(img image.Image, quality int) ([]byte, string, error) {
	var buf bytes.Buffer
	if o, ok := img.(opaquer); ok && o.Opaque() {
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, "", fmt.Errorf("encoding jpeg: %w", err)
		}
		return buf.Bytes(), "JPG", nil
	}

	b := img.Bounds()
	nrgba := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(nrgba, nrgba.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(nrgba, nrgba.Bounds(), img, b.Min, draw.Over)
	if err := png.Encode(&buf, nrgba); err != nil {
		return nil, "", fmt.Errorf("encoding png: %w", err)
	}
	return buf.Bytes(), "PNG", nil
}
