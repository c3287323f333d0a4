package pdf

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dukerupert/fleetcheck"
	"github.com/dukerupert/fleetcheck/mock"
	"github.com/dukerupert/fleetcheck/report"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func pngBytes(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// pngHeader returns a PNG signature and IHDR chunk declaring a w×h 8-bit
// grayscale image. It carries no pixel data.
func pngHeader(w, h uint32) []byte {
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:], w)
	binary.BigEndian.PutUint32(ihdr[4:], h)
	ihdr[8] = 8

	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	chunk := append([]byte("IHDR"), ihdr...)
	buf.Write(chunk)
	binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

// recordingLoader serves fixed images and remembers the order of requests.
type recordingLoader struct {
	mu     sync.Mutex
	images map[string][]byte
	calls  []string
}

func (l *recordingLoader) Load(ctx context.Context, url string) (io.ReadCloser, error) {
	l.mu.Lock()
	l.calls = append(l.calls, url)
	l.mu.Unlock()
	data, ok := l.images[url]
	if !ok {
		return nil, errors.New("not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func testContext(items int) *fleetcheck.ReportContext {
	mileage := 12345
	rc := &fleetcheck.ReportContext{
		Inspection: &fleetcheck.Inspection{
			ID:               uuid.New(),
			InspectionDate:   time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC),
			Mileage:          &mileage,
			OverallCondition: "Veículo em bom estado.",
			AdditionalNotes:  "Trocar palhetas na próxima revisão.",
			InteriorPhotoURL: "https://img.example.com/interior.png",
			ExteriorPhotoURL: "https://img.example.com/exterior.png",
			SignatureURL:     "https://img.example.com/signature.png",
		},
		Vehicle:     &fleetcheck.Vehicle{Model: "Actros", Plate: "ABC1D23", Year: 2021, Category: "caminhão"},
		Inspector:   &fleetcheck.Inspector{FirstName: "Ana", LastName: "Silva"},
		Answers:     fleetcheck.AnswerMap{},
		GeneratedAt: time.Date(2026, 3, 9, 14, 30, 0, 0, time.UTC),
	}
	for i := 0; i < items; i++ {
		name := "Item " + strings.Repeat("x", i%7) + string(rune('a'+i%26))
		rc.Items = append(rc.Items, &fleetcheck.ChecklistItem{
			Name:        name,
			Description: "Verificar estado e funcionamento.",
			Category:    []string{"interior", "exterior", "seguranca"}[i%3],
			Order:       i,
		})
		rc.Answers[fleetcheck.NormalizeFieldKey(name)] = fleetcheck.Answer{
			Status:      fleetcheck.StatusNeedsReview,
			Observation: "Observação do item.",
		}
	}
	return rc
}

func TestFitImage(t *testing.T) {
	tests := []struct {
		name         string
		w, h         float64
		maxW, maxH   float64
		wantW, wantH float64
	}{
		{"landscape fits by width", 400, 200, 120, 90, 120, 60},
		{"portrait capped by height", 300, 600, 120, 90, 45, 90},
		{"square capped by height", 100, 100, 120, 90, 90, 90},
		{"small image is scaled up to width", 40, 20, 120, 90, 120, 60},
		{"zero width", 0, 100, 120, 90, 0, 0},
		{"zero max", 100, 100, 0, 90, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := FitImage(tt.w, tt.h, tt.maxW, tt.maxH)
			assert.InDelta(t, tt.wantW, w, 1e-9)
			assert.InDelta(t, tt.wantH, h, 1e-9)
			assert.LessOrEqual(t, w, tt.maxW)
			assert.LessOrEqual(t, h, tt.maxH)
		})
	}
}

func TestCursor_Ensure(t *testing.T) {
	pages := 0
	c := newCursor(10, 90, func() { pages++ })
	c.newPage()

	// 80 units per page, blocks of 20: four per page.
	for i := 0; i < 10; i++ {
		c.ensure(20)
		c.advance(20)
	}
	assert.Equal(t, 3, pages)
	assert.Equal(t, 3, c.pages)
	assert.InDelta(t, 50, c.y, 1e-9)
}

func TestCursor_OversizedBlock(t *testing.T) {
	c := newCursor(10, 90, func() {})
	c.newPage()

	assert.False(t, c.ensure(200), "fresh page takes an oversized block")
	c.advance(200)
	assert.True(t, c.ensure(1))
	assert.Equal(t, 2, c.pages)
}

func TestBands(t *testing.T) {
	tests := []struct {
		srcH, bandH int
		want        []Band
	}{
		{1000, 300, []Band{{0, 300}, {300, 300}, {600, 300}, {900, 100}}},
		{600, 300, []Band{{0, 300}, {300, 300}}},
		{100, 300, []Band{{0, 100}}},
		{0, 300, nil},
		{100, 0, nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Bands(tt.srcH, tt.bandH))
	}
}

func TestBands_Contiguous(t *testing.T) {
	for srcH := 1; srcH < 2000; srcH += 97 {
		for _, bandH := range []int{1, 50, 148, 333, 5000} {
			bands := Bands(srcH, bandH)
			require.Len(t, bands, (srcH+bandH-1)/bandH)

			total := 0
			for i, b := range bands {
				assert.Equal(t, total, b.Offset, "band %d starts where the previous ended", i)
				assert.Greater(t, b.Height, 0)
				assert.LessOrEqual(t, b.Height, bandH)
				total += b.Height
			}
			assert.Equal(t, srcH, total)
		}
	}
}

func TestRenderCapture(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 1000))
	for y := 0; y < 1000; y++ {
		for x := 0; x < 100; x++ {
			img.Set(x, y, color.RGBA{uint8(y % 256), 80, 120, 255})
		}
	}

	out, err := RenderCapture(img, DefaultCaptureOptions())
	require.NoError(t, err)

	// A4 is 210x297mm.
	bandH := captureBandHeight(210, 297, 10, 100)
	assert.Equal(t, 145, bandH)
	assert.Equal(t, len(Bands(1000, bandH)), out.Pages)
	assert.True(t, bytes.HasPrefix(out.Data, []byte("%PDF-")))
}

func TestRenderCapture_Empty(t *testing.T) {
	_, err := RenderCapture(nil, DefaultCaptureOptions())
	assert.Error(t, err)

	_, err = RenderCapture(image.NewRGBA(image.Rect(0, 0, 0, 0)), DefaultCaptureOptions())
	assert.Error(t, err)
}

func TestDecodeCapture(t *testing.T) {
	data := pngBytes(t, 40, 300, color.RGBA{1, 2, 3, 255})

	img, err := DecodeCapture(bytes.NewReader(data), int64(len(data)), 0)
	require.NoError(t, err)
	assert.Equal(t, 300, img.Bounds().Dy())

	_, err = DecodeCapture(bytes.NewReader(data), int64(len(data))-1, 0)
	assert.Error(t, err)

	_, err = DecodeCapture(bytes.NewReader([]byte("not an image")), 0, 0)
	assert.Error(t, err)
}

func TestDecodeCapture_RejectsOversizedDimensions(t *testing.T) {
	data := pngHeader(8000, 20000)

	_, err := DecodeCapture(bytes.NewReader(data), 32<<20, DefaultCaptureOptions().MaxPixels)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrImageTooLarge)

	small := pngBytes(t, 20, 30, color.White)
	img, err := DecodeCapture(bytes.NewReader(small), 0, 600)
	require.NoError(t, err)
	assert.Equal(t, 30, img.Bounds().Dy())

	_, err = DecodeCapture(bytes.NewReader(small), 0, 599)
	assert.ErrorIs(t, err, ErrImageTooLarge)
}

func TestLoadImage_RejectsOversizedDimensions(t *testing.T) {
	ref := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngHeader(50000, 50000))

	_, err := loadImage(context.Background(), nil, ref, 0, DefaultConfig().MaxDecodePixels)
	assert.ErrorIs(t, err, ErrImageTooLarge)
}

func TestRenderer_Render(t *testing.T) {
	loader := &recordingLoader{images: map[string][]byte{
		"https://img.example.com/interior.png":  pngBytes(t, 64, 48, color.RGBA{200, 10, 10, 255}),
		"https://img.example.com/exterior.png":  pngBytes(t, 48, 64, color.RGBA{10, 200, 10, 255}),
		"https://img.example.com/signature.png": pngBytes(t, 120, 40, color.NRGBA{0, 0, 0, 0}),
	}}
	r := NewRenderer(loader, DefaultConfig(), testLogger())
	doc := report.Compose(testContext(5), &report.PortugueseStrings)

	out, err := r.Render(context.Background(), doc, &report.PortugueseStrings)
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(out.Data, []byte("%PDF-")))
	assert.GreaterOrEqual(t, out.Pages, 1)
	assert.Equal(t, []string{
		"https://img.example.com/interior.png",
		"https://img.example.com/exterior.png",
		"https://img.example.com/signature.png",
	}, loader.calls)
}

func TestRenderer_Render_Paginates(t *testing.T) {
	r := NewRenderer(&recordingLoader{}, DefaultConfig(), testLogger())

	short, err := r.Render(context.Background(), report.Compose(testContext(3), &report.PortugueseStrings), nil)
	require.NoError(t, err)
	long, err := r.Render(context.Background(), report.Compose(testContext(120), &report.PortugueseStrings), nil)
	require.NoError(t, err)

	assert.Greater(t, long.Pages, short.Pages)
	assert.GreaterOrEqual(t, long.Pages, 5)
}

func TestRenderer_Render_ImageFailures(t *testing.T) {
	loader := &recordingLoader{images: map[string][]byte{
		"https://img.example.com/exterior.png": []byte("not an image"),
	}}
	r := NewRenderer(loader, DefaultConfig(), testLogger())
	doc := report.Compose(testContext(2), &report.PortugueseStrings)

	out, err := r.Render(context.Background(), doc, nil)
	require.NoError(t, err, "broken images never abort the document")
	assert.True(t, bytes.HasPrefix(out.Data, []byte("%PDF-")))
	assert.Len(t, loader.calls, 3)
}

func TestRenderer_Render_NoItems(t *testing.T) {
	r := NewRenderer(nil, DefaultConfig(), testLogger())
	doc := report.Compose(&fleetcheck.ReportContext{}, &report.EnglishStrings)

	out, err := r.Render(context.Background(), doc, &report.EnglishStrings)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Pages)
}

func TestRenderer_Render_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	loader := ImageLoaderFunc(func(ctx context.Context, url string) (io.ReadCloser, error) {
		cancel()
		return nil, ctx.Err()
	})
	r := NewRenderer(loader, DefaultConfig(), testLogger())
	doc := report.Compose(testContext(2), &report.PortugueseStrings)

	_, err := r.Render(ctx, doc, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRenderer_Render_NilDocument(t *testing.T) {
	r := NewRenderer(nil, DefaultConfig(), nil)
	_, err := r.Render(context.Background(), nil, nil)
	assert.Error(t, err)
}

func TestLoadImage_DataURL(t *testing.T) {
	ref := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes(t, 10, 5, color.Black))

	img, err := loadImage(context.Background(), nil, ref, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 10, 5), img.Bounds())

	_, err = loadImage(context.Background(), nil, "data:image/png;base64", 0, 0)
	assert.Error(t, err)

	_, err = loadImage(context.Background(), nil, "https://example.com/a.png", 0, 0)
	assert.Error(t, err)
}

func TestHTTPLoader(t *testing.T) {
	data := pngBytes(t, 8, 8, color.White)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ok.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(data)
	}))
	defer srv.Close()

	l := &HTTPLoader{Client: srv.Client()}

	img, err := loadImage(context.Background(), l, srv.URL+"/ok.png", 1<<20, 0)
	require.NoError(t, err)
	assert.Equal(t, 8, img.Bounds().Dx())

	_, err = l.Load(context.Background(), srv.URL+"/missing.png")
	assert.Error(t, err)

	_, err = l.Load(context.Background(), "ftp://example.com/a.png")
	assert.Error(t, err)
}

func TestStorageLoader(t *testing.T) {
	data := pngBytes(t, 4, 4, color.White)
	var opened []string
	storage := &mock.FileStorage{
		OpenFn: func(ctx context.Context, key string) (io.ReadCloser, error) {
			opened = append(opened, key)
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
	var forwarded []string
	next := ImageLoaderFunc(func(ctx context.Context, url string) (io.ReadCloser, error) {
		forwarded = append(forwarded, url)
		return io.NopCloser(bytes.NewReader(data)), nil
	})
	l := &StorageLoader{Storage: storage, Next: next}

	rc, err := l.Load(context.Background(), storage.GetURL("inspections/1/interior.png"))
	require.NoError(t, err)
	rc.Close()
	rc, err = l.Load(context.Background(), "https://elsewhere.example.com/x.png")
	require.NoError(t, err)
	rc.Close()

	assert.Equal(t, []string{"inspections/1/interior.png"}, opened)
	assert.Equal(t, []string{"https://elsewhere.example.com/x.png"}, forwarded)
}

func TestToneColor(t *testing.T) {
	assert.Equal(t, rgb{22, 163, 74}, toneColor(report.ToneSuccess))
	assert.Equal(t, rgb{217, 119, 6}, toneColor(report.ToneWarning))
	assert.Equal(t, rgb{220, 38, 38}, toneColor(report.ToneDanger))
	assert.Equal(t, inkDefault, toneColor(report.ToneNeutral))
	assert.Equal(t, inkDefault, toneColor(""))
}

func TestEncodeImage(t *testing.T) {
	opaque := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := range opaque.Pix {
		opaque.Pix[i] = 255
	}
	_, typ, err := encodeImage(opaque, 80)
	require.NoError(t, err)
	assert.Equal(t, "JPG", typ)

	_, typ, err = encodeImage(image.NewNRGBA(image.Rect(0, 0, 4, 4)), 80)
	require.NoError(t, err)
	assert.Equal(t, "PNG", typ)
}

func TestDownscale(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3200, 1600))
	got := downscale(img, 1600)
	assert.Equal(t, image.Rect(0, 0, 1600, 800), got.Bounds())

	small := image.NewRGBA(image.Rect(0, 0, 10, 10))
	assert.Same(t, small, downscale(small, 1600))
}
