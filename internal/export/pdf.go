// Package export renders a finished project as a two-page PDF: the
// chosen design image on page one, the typeset final plan on page two.
package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"roomcraft/internal/media"
	"roomcraft/internal/snapshot"
)

// ErrNotExportable means the project has no selected image or no final
// plan yet.
var ErrNotExportable = errors.New("export: project is not finalized")

// A4 in PDF points, with the printable area inside the margins.
const (
	pageWidth  = 595.0
	pageHeight = 842.0
	margin     = 50.0
)

// descriptor is the pdfcpu create-from-JSON page model.
type descriptor struct {
	Paper  string          `json:"paper"`
	Origin string          `json:"origin"`
	Pages  map[string]page `json:"pages"`
}

type page struct {
	Content content `json:"content"`
}

type content struct {
	Text  []textBox  `json:"text,omitempty"`
	Image []imageBox `json:"image,omitempty"`
}

type textBox struct {
	Value    string     `json:"value"`
	Position [2]float64 `json:"pos"`
	Width    float64    `json:"width,omitempty"`
	Font     font       `json:"font"`
}

type font struct {
	Name  string `json:"name"`
	Size  int    `json:"size"`
	Color string `json:"col,omitempty"`
}

type imageBox struct {
	Src      string     `json:"src"`
	Position [2]float64 `json:"pos"`
	Width    float64    `json:"width"`
	Height   float64    `json:"height"`
}

type Exporter struct{}

func NewExporter() *Exporter { return &Exporter{} }

// Export writes the PDF for a finalized snapshot to w.
func (e *Exporter) Export(w io.Writer, title string, snap snapshot.ProjectSnapshot) error {
	selected, ok := snap.Selected()
	if !ok || snap.FinalPlan == nil {
		return ErrNotExportable
	}

	raw, err := media.DecodeBytes(selected)
	if err != nil {
		return fmt.Errorf("export: decode selected image: %w", err)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("export: read image dimensions: %w", err)
	}

	// pdfcpu resolves image content by file path.
	tmp, err := os.CreateTemp("", "roomcraft-export-*"+extFor(selected.MIMEType))
	if err != nil {
		return fmt.Errorf("export: temp image: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("export: write temp image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("export: close temp image: %w", err)
	}

	desc := buildDescriptor(title, tmp.Name(), cfg.Width, cfg.Height, *snap.FinalPlan)
	js, err := json.Marshal(desc)
	if err != nil {
		return fmt.Errorf("export: encode descriptor: %w", err)
	}
	if err := api.Create(nil, bytes.NewReader(js), w, model.NewDefaultConfiguration()); err != nil {
		return fmt.Errorf("export: create pdf: %w", err)
	}
	return nil
}

// buildDescriptor lays out both pages. Pure, so the layout is testable
// without producing a PDF.
func buildDescriptor(title, imagePath string, imgW, imgH int, plan snapshot.FinalPlan) descriptor {
	title = strings.TrimSpace(title)
	if title == "" {
		title = "Design Plan"
	}

	// Page 1: title, then the render fitted to the remaining area with
	// its aspect ratio preserved.
	const titleBlock = 60.0
	areaW := pageWidth - 2*margin
	areaH := pageHeight - 2*margin - titleBlock
	fitW, fitH := fitRect(float64(imgW), float64(imgH), areaW, areaH)
	imgX := margin + (areaW-fitW)/2

	page1 := page{Content: content{
		Text: []textBox{{
			Value:    title,
			Position: [2]float64{margin, margin},
			Width:    areaW,
			Font:     font{Name: "Helvetica-Bold", Size: 24},
		}},
		Image: []imageBox{{
			Src:      imagePath,
			Position: [2]float64{imgX, margin + titleBlock},
			Width:    fitW,
			Height:   fitH,
		}},
	}}

	// Page 2: the plan as flowing text blocks.
	var blocks []textBox
	y := margin
	add := func(value string, f font, advance float64) {
		blocks = append(blocks, textBox{
			Value:    value,
			Position: [2]float64{margin, y},
			Width:    areaW,
			Font:     f,
		})
		y += advance
	}
	heading := font{Name: "Helvetica-Bold", Size: 14}
	body := font{Name: "Helvetica", Size: 11}

	add("Summary", heading, 22)
	add(plan.Summary, body, lineEstimate(plan.Summary, 26))
	add("Budget", heading, 22)
	add(plan.Budget, body, lineEstimate(plan.Budget, 26))
	add("Shopping List", heading, 22)
	for _, item := range plan.ShoppingList {
		line := fmt.Sprintf("%s - %s (%s)", item.Item, item.Description, item.Cost)
		add(line, body, lineEstimate(line, 18))
	}

	return descriptor{
		Paper:  "A4",
		Origin: "upperLeft",
		Pages: map[string]page{
			"1": page1,
			"2": {Content: content{Text: blocks}},
		},
	}
}

// fitRect scales (w, h) down to fit (maxW, maxH) preserving aspect
// ratio. Never scales up.
func fitRect(w, h, maxW, maxH float64) (float64, float64) {
	if w <= 0 || h <= 0 {
		return maxW, maxH
	}
	scale := 1.0
	if w > maxW {
		scale = maxW / w
	}
	if h*scale > maxH {
		scale = maxH / h
	}
	if scale > 1 {
		scale = 1
	}
	return w * scale, h * scale
}

// lineEstimate reserves vertical space for a wrapped paragraph: ~90
// characters per line at body size within the printable width.
func lineEstimate(s string, lineHeight float64) float64 {
	lines := len(s)/90 + 1
	return float64(lines)*lineHeight + 8
}

func extFor(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}
