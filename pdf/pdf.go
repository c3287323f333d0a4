// Package pdf renders composed reports as paginated PDF documents.
package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dukerupert/fleetcheck/report"
	"github.com/go-pdf/fpdf"
)

// Config controls page geometry and image handling. Lengths are in mm.
type Config struct {
	PageSize     string
	Margin       float64
	BottomMargin float64

	MaxImageWidth      float64
	MaxImageHeight     float64
	SignatureMaxWidth  float64
	SignatureMaxHeight float64

	// ImageTimeout bounds each image fetch. Zero means no limit beyond ctx.
	ImageTimeout time.Duration
	// MaxImageBytes caps how much of an image is read.
	MaxImageBytes int64
	// MaxImagePixels downsizes large photos before embedding.
	MaxImagePixels int
	// MaxDecodePixels refuses images whose header declares more pixels
	// than this. Zero disables the check.
	MaxDecodePixels int64
	JPEGQuality    int
}

// DefaultConfig returns A4 portrait settings.
func DefaultConfig() Config {
	return Config{
		PageSize:           "A4",
		Margin:             15,
		BottomMargin:       20,
		MaxImageWidth:      120,
		MaxImageHeight:     90,
		SignatureMaxWidth:  60,
		SignatureMaxHeight: 25,
		ImageTimeout:       15 * time.Second,
		MaxImageBytes:      defaultMaxImageBytes,
		MaxImagePixels:     1600,
		MaxDecodePixels:    defaultMaxDecodePixels,
		JPEGQuality:        85,
	}
}

const defaultMaxImageBytes = 20 << 20

// defaultMaxDecodePixels bounds a decoded raster to roughly 160 MB of RGBA.
const defaultMaxDecodePixels = 40_000_000

// Output is a rendered document.
type Output struct {
	Data  []byte
	Pages int
}

// Renderer turns report documents into PDFs. It holds no per-render state
// and is safe for concurrent use.
type Renderer struct {
	config Config
	loader ImageLoader
	logger *slog.Logger
}

// NewRenderer returns a renderer that fetches images through loader.
func NewRenderer(loader ImageLoader, config Config, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{config: config, loader: loader, logger: logger}
}

// Render draws doc. Images are fetched one at a time in document order; an
// image that cannot be fetched or decoded becomes a placeholder line. The
// render is abandoned when ctx is cancelled.
func (r *Renderer) Render(ctx context.Context, doc *report.Document, s *report.Strings) (*Output, error) {
	if doc == nil {
		return nil, errors.New("pdf: nil document")
	}
	if s == nil {
		s = &report.PortugueseStrings
	}

	w := newWriter(ctx, r, s, doc.Title)
	for _, sec := range doc.Sections {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := w.section(sec); err != nil {
			return nil, err
		}
	}
	return w.finish()
}

const (
	fontFamily = "Helvetica"
	lineH      = 5.5
	smallH     = 4.5
	headingH   = 8
	blockGap   = 3
	labelW     = 45
	badgeW     = 32
)

type rgb struct{ r, g, b int }

var (
	inkDefault = rgb{31, 41, 55}
	inkMuted   = rgb{107, 114, 128}
	ruleColor  = rgb{209, 213, 219}
	bandColor  = rgb{243, 244, 246}

	toneColors = map[report.Tone]rgb{
		report.ToneSuccess: {22, 163, 74},
		report.ToneWarning: {217, 119, 6},
		report.ToneDanger:  {220, 38, 38},
	}
)

// toneColor returns the ink for a badge tone. Neutral uses the default ink.
func toneColor(t report.Tone) rgb {
	if c, ok := toneColors[t]; ok {
		return c
	}
	return inkDefault
}

// writer is the state of a single render.
type writer struct {
	ctx    context.Context
	cfg    Config
	s      *report.Strings
	loader ImageLoader
	logger *slog.Logger

	pdf   *fpdf.Fpdf
	cur   *cursor
	tr    func(string) string
	left  float64
	width float64

	images int
}

func newWriter(ctx context.Context, r *Renderer, s *report.Strings, title string) *writer {
	cfg := r.config
	doc := fpdf.New("P", "mm", cfg.PageSize, "")
	doc.SetMargins(cfg.Margin, cfg.Margin, cfg.Margin)
	doc.SetAutoPageBreak(false, cfg.BottomMargin)
	doc.SetTitle(title, true)
	doc.SetCreator("fleetcheck", false)
	doc.AliasNbPages("")

	pageW, pageH := doc.GetPageSize()
	w := &writer{
		ctx:    ctx,
		cfg:    cfg,
		s:      s,
		loader: r.loader,
		logger: r.logger,
		pdf:    doc,
		tr:     doc.UnicodeTranslatorFromDescriptor(""),
		left:   cfg.Margin,
		width:  pageW - 2*cfg.Margin,
	}

	doc.SetFooterFunc(func() {
		doc.SetY(pageH - cfg.BottomMargin/2 - smallH/2)
		doc.SetFont(fontFamily, "", 8)
		doc.SetTextColor(inkMuted.r, inkMuted.g, inkMuted.b)
		doc.CellFormat(0, smallH, fmt.Sprintf("%d / {nb}", doc.PageNo()), "", 0, "C", false, 0, "")
	})

	w.cur = newCursor(cfg.Margin, pageH-cfg.BottomMargin, doc.AddPage)
	w.cur.newPage()
	return w
}

func (w *writer) finish() (*Output, error) {
	var buf bytes.Buffer
	if err := w.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("writing pdf: %w", err)
	}
	return &Output{Data: buf.Bytes(), Pages: w.cur.pages}, nil
}

func (w *writer) section(sec report.Section) error {
	switch sec.Kind {
	case report.SectionIssuer:
		w.issuer(sec)
	case report.SectionGeneral, report.SectionVehicle:
		w.heading(sec.Title)
		w.fields(sec.Fields)
	case report.SectionChecklist:
		w.heading(sec.Title)
		if len(sec.Items) == 0 {
			w.paragraph(sec.Text, "I", 10, inkMuted)
		}
		for _, it := range sec.Items {
			w.item(it)
		}
	case report.SectionOverall, report.SectionNotes:
		w.heading(sec.Title)
		w.paragraph(sec.Text, "", 10, inkDefault)
	case report.SectionPhotos:
		w.heading(sec.Title)
		for _, img := range sec.Images {
			if err := w.photo(img); err != nil {
				return err
			}
		}
	case report.SectionSignature:
		w.heading(sec.Title)
		return w.signature(sec)
	case report.SectionFooter:
		w.footer(sec)
	}
	w.cur.advance(blockGap)
	return nil
}

func (w *writer) font(style string, size float64) {
	w.pdf.SetFont(fontFamily, style, size)
}

func (w *writer) ink(c rgb) {
	w.pdf.SetTextColor(c.r, c.g, c.b)
}

// split wraps text to width with the current font. The returned lines are
// already translated to the document encoding.
func (w *writer) split(text string, width float64) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	var out []string
	for _, line := range w.pdf.SplitLines([]byte(w.tr(text)), width) {
		out = append(out, string(line))
	}
	return out
}

func (w *writer) text(x, y, width, h float64, line, align string) {
	w.pdf.SetXY(x, y)
	w.pdf.CellFormat(width, h, line, "", 0, align, false, 0, "")
}

func (w *writer) rule(y float64) {
	w.pdf.SetDrawColor(ruleColor.r, ruleColor.g, ruleColor.b)
	w.pdf.Line(w.left, y, w.left+w.width, y)
}

func (w *writer) issuer(sec report.Section) {
	w.font("B", 14)
	name := w.split(sec.Title, w.width)
	w.font("", 9)
	var fieldLines []string
	for _, f := range sec.Fields {
		fieldLines = append(fieldLines, w.split(f.Label+": "+f.Value, w.width)...)
	}
	h := 7*float64(len(name)) + smallH*float64(len(fieldLines)) + 12 + blockGap
	w.cur.ensure(h)

	w.ink(inkDefault)
	w.font("B", 14)
	for _, line := range name {
		w.text(w.left, w.cur.y, w.width, 7, line, "L")
		w.cur.advance(7)
	}
	w.font("", 9)
	w.ink(inkMuted)
	for _, line := range fieldLines {
		w.text(w.left, w.cur.y, w.width, smallH, line, "L")
		w.cur.advance(smallH)
	}
	w.cur.advance(2)
	w.ink(inkDefault)
	w.font("B", 16)
	w.text(w.left, w.cur.y, w.width, 9, w.tr(sec.Text), "C")
	w.cur.advance(10)
	w.rule(w.cur.y)
	w.cur.advance(blockGap)
}

// heading keeps at least one line of content with the section title.
func (w *writer) heading(title string) {
	w.cur.ensure(headingH + lineH)
	w.pdf.SetFillColor(bandColor.r, bandColor.g, bandColor.b)
	w.pdf.Rect(w.left, w.cur.y, w.width, headingH-1, "F")
	w.font("B", 11)
	w.ink(inkDefault)
	w.text(w.left+2, w.cur.y, w.width-4, headingH-1, w.tr(title), "L")
	w.cur.advance(headingH + 1)
}

func (w *writer) fields(fields []report.Field) {
	for _, f := range fields {
		w.font("", 10)
		value := w.split(f.Value, w.width-labelW)
		if len(value) == 0 {
			value = []string{""}
		}
		h := lineH * float64(len(value))
		w.cur.ensure(h)

		w.font("B", 10)
		w.ink(inkDefault)
		w.text(w.left, w.cur.y, labelW, lineH, w.tr(f.Label), "L")
		w.font("", 10)
		for i, line := range value {
			w.text(w.left+labelW, w.cur.y+lineH*float64(i), w.width-labelW, lineH, line, "L")
		}
		w.cur.advance(h)
	}
}

// paragraph draws wrapped text one line at a time so long text flows over
// page breaks.
func (w *writer) paragraph(text, style string, size float64, c rgb) {
	w.font(style, size)
	for _, line := range w.split(text, w.width) {
		w.cur.ensure(lineH)
		w.font(style, size)
		w.ink(c)
		w.text(w.left, w.cur.y, w.width, lineH, line, "L")
		w.cur.advance(lineH)
	}
}

func (w *writer) item(it report.Item) {
	nameW := w.width - badgeW
	w.font("B", 10)
	name := w.split(it.Name, nameW)
	w.font("I", 8)
	desc := w.split(it.Description, nameW)
	w.font("", 9)
	var obs []string
	if it.Observation != "" {
		obs = w.split(w.s.ObservationLabel+": "+it.Observation, nameW)
	}
	h := lineH*float64(max(1, len(name))) + smallH*float64(len(desc)+len(obs)) + 2
	w.cur.ensure(h)

	top := w.cur.y
	w.font("B", 10)
	w.ink(inkDefault)
	for _, line := range name {
		w.text(w.left, w.cur.y, nameW, lineH, line, "L")
		w.cur.advance(lineH)
	}
	if len(name) == 0 {
		w.cur.advance(lineH)
	}

	w.ink(toneColor(it.Badge.Tone))
	w.text(w.left+nameW, top, badgeW, lineH, w.tr(it.Badge.Label), "R")
	w.ink(inkDefault)

	w.font("I", 8)
	w.ink(inkMuted)
	for _, line := range desc {
		w.text(w.left, w.cur.y, nameW, smallH, line, "L")
		w.cur.advance(smallH)
	}
	w.font("", 9)
	w.ink(inkDefault)
	for _, line := range obs {
		w.text(w.left, w.cur.y, nameW, smallH, line, "L")
		w.cur.advance(smallH)
	}
	w.cur.advance(1)
	w.rule(w.cur.y)
	w.cur.advance(1)
}

func (w *writer) placeholder(label string) {
	w.cur.ensure(lineH)
	w.font("I", 9)
	w.ink(inkMuted)
	text := w.s.ImageUnavailable
	if label != "" {
		text = label + ": " + text
	}
	w.text(w.left, w.cur.y, w.width, lineH, w.tr(text), "L")
	w.ink(inkDefault)
	w.cur.advance(lineH)
}

type embedded struct {
	name string
	w, h float64
}

// embed fetches, decodes and registers an image. A cancelled context is
// returned as is so the caller can stop the render.
func (w *writer) embed(ref string) (*embedded, error) {
	ctx := w.ctx
	if w.cfg.ImageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.cfg.ImageTimeout)
		defer cancel()
	}

	img, err := loadImage(ctx, w.loader, ref, w.cfg.MaxImageBytes, w.cfg.MaxDecodePixels)
	if err != nil {
		return nil, err
	}
	img = downscale(img, w.cfg.MaxImagePixels)
	data, typ, err := encodeImage(img, w.cfg.JPEGQuality)
	if err != nil {
		return nil, err
	}

	w.images++
	name := fmt.Sprintf("image-%d", w.images)
	w.pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: typ}, bytes.NewReader(data))
	if err := w.pdf.Error(); err != nil {
		w.pdf.ClearError()
		return nil, fmt.Errorf("embedding image: %w", err)
	}
	b := img.Bounds()
	return &embedded{name: name, w: float64(b.Dx()), h: float64(b.Dy())}, nil
}

// tryEmbed is embed with failures logged and swallowed. Only a cancelled
// render is reported as an error.
func (w *writer) tryEmbed(ref string) (*embedded, error) {
	e, err := w.embed(ref)
	if err == nil {
		return e, nil
	}
	if ctxErr := w.ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	w.logger.Warn("report image unavailable",
		slog.String("url", truncateRef(ref)),
		slog.String("error", err.Error()))
	return nil, nil
}

func (w *writer) photo(img report.Image) error {
	e, err := w.tryEmbed(img.URL)
	if err != nil {
		return err
	}
	if e == nil {
		w.placeholder(img.Label)
		return nil
	}

	dw, dh := FitImage(e.w, e.h, w.cfg.MaxImageWidth, w.cfg.MaxImageHeight)
	labelH := 0.0
	if img.Label != "" {
		labelH = lineH
	}
	w.cur.ensure(labelH + dh + blockGap)
	if labelH > 0 {
		w.font("B", 9)
		w.ink(inkDefault)
		w.text(w.left, w.cur.y, w.width, lineH, w.tr(img.Label), "L")
		w.cur.advance(lineH)
	}
	w.pdf.ImageOptions(e.name, w.left, w.cur.y, dw, dh, false, fpdf.ImageOptions{}, 0, "")
	w.cur.advance(dh + blockGap)
	return nil
}

func (w *writer) signature(sec report.Section) error {
	var e *embedded
	if len(sec.Images) > 0 {
		var err error
		if e, err = w.tryEmbed(sec.Images[0].URL); err != nil {
			return err
		}
	}

	var dw, dh float64
	if e != nil {
		dw, dh = FitImage(e.w, e.h, w.cfg.SignatureMaxWidth, w.cfg.SignatureMaxHeight)
	} else {
		dh = lineH
	}
	lineW := w.cfg.SignatureMaxWidth
	x := w.left + (w.width-lineW)/2
	w.cur.ensure(dh + 2 + lineH + smallH)

	if e != nil {
		w.pdf.ImageOptions(e.name, x+(lineW-dw)/2, w.cur.y, dw, dh, false, fpdf.ImageOptions{}, 0, "")
		w.cur.advance(dh)
	} else {
		w.font("I", 9)
		w.ink(inkMuted)
		w.text(x, w.cur.y, lineW, lineH, w.tr(w.s.ImageUnavailable), "C")
		w.cur.advance(lineH)
	}
	w.cur.advance(1)
	w.pdf.SetDrawColor(inkDefault.r, inkDefault.g, inkDefault.b)
	w.pdf.Line(x, w.cur.y, x+lineW, w.cur.y)
	w.cur.advance(1)

	w.font("B", 10)
	w.ink(inkDefault)
	w.text(x, w.cur.y, lineW, lineH, w.tr(sec.Text), "C")
	w.cur.advance(lineH)
	w.font("", 8)
	w.ink(inkMuted)
	w.text(x, w.cur.y, lineW, smallH, w.tr(sec.Caption), "C")
	w.cur.advance(smallH)
	w.ink(inkDefault)
	w.cur.advance(blockGap)
	return nil
}

func (w *writer) footer(sec report.Section) {
	w.font("", 8)
	attribution := w.split(sec.Text, w.width)
	h := 2 + smallH*float64(len(sec.Fields)+len(attribution))
	w.cur.ensure(h)

	w.rule(w.cur.y)
	w.cur.advance(2)
	w.ink(inkMuted)
	for _, f := range sec.Fields {
		w.text(w.left, w.cur.y, w.width, smallH, w.tr(f.Label+": "+f.Value), "C")
		w.cur.advance(smallH)
	}
	for _, line := range attribution {
		w.text(w.left, w.cur.y, w.width, smallH, line, "C")
		w.cur.advance(smallH)
	}
	w.ink(inkDefault)
}

// truncateRef keeps data URLs out of the logs.
func truncateRef(ref string) string {
	if len(ref) > 80 {
		return ref[:80] + "..."
	}
	return ref
}
