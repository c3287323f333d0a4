// Package report lays out an inspection as an ordered list of sections.
// The same document feeds the HTML preview and the PDF renderer.
package report

import (
	"strconv"
	"strings"
	"time"

	"github.com/dukerupert/fleetcheck"
	"golang.org/x/text/message"
)

// SectionKind identifies what a section holds.
type SectionKind string

const (
	SectionIssuer    SectionKind = "issuer"
	SectionGeneral   SectionKind = "general"
	SectionVehicle   SectionKind = "vehicle"
	SectionChecklist SectionKind = "checklist"
	SectionOverall   SectionKind = "overall"
	SectionNotes     SectionKind = "notes"
	SectionPhotos    SectionKind = "photos"
	SectionSignature SectionKind = "signature"
	SectionFooter    SectionKind = "footer"
)

// Document is a composed report.
type Document struct {
	Title    string    `json:"title"`
	Sections []Section `json:"sections"`
}

// Section is one block of the report. Which fields are set depends on Kind.
type Section struct {
	Kind    SectionKind `json:"kind"`
	Title   string      `json:"title"`
	Fields  []Field     `json:"fields,omitempty"`
	Items   []Item      `json:"items,omitempty"`
	Text    string      `json:"text,omitempty"`
	Images  []Image     `json:"images,omitempty"`
	Caption string      `json:"caption,omitempty"`
}

// Field is a labelled value.
type Field struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Item is one checklist row.
type Item struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Badge       Badge  `json:"badge"`
	Observation string `json:"observation,omitempty"`
}

// Image is a picture referenced by URL.
type Image struct {
	Label string `json:"label,omitempty"`
	URL   string `json:"url"`
}

// SectionsOf returns the sections of the given kind, in document order.
func (d *Document) SectionsOf(kind SectionKind) []Section {
	var out []Section
	for _, s := range d.Sections {
		if s.Kind == kind {
			out = append(out, s)
		}
	}
	return out
}

// Compose lays out rc. It has no side effects and tolerates any missing
// optional data; the output only depends on rc and s.
func Compose(rc *fleetcheck.ReportContext, s *Strings) *Document {
	insp := rc.Inspection
	if insp == nil {
		insp = &fleetcheck.Inspection{}
	}

	doc := &Document{Title: s.DocumentTitle}
	doc.Sections = append(doc.Sections,
		issuerSection(rc.Issuer, s),
		generalSection(insp, rc.Inspector, s),
		vehicleSection(rc.Vehicle, rc.CategoryLabel, s),
	)
	doc.Sections = append(doc.Sections, checklistSections(rc.Items, rc.Answers, s)...)

	overall := strings.TrimSpace(insp.OverallCondition)
	if overall == "" {
		overall = s.NoOverallCondition
	}
	doc.Sections = append(doc.Sections, Section{Kind: SectionOverall, Title: s.OverallTitle, Text: overall})

	if notes := strings.TrimSpace(insp.AdditionalNotes); notes != "" {
		doc.Sections = append(doc.Sections, Section{Kind: SectionNotes, Title: s.NotesTitle, Text: notes})
	}

	var photos []Image
	if insp.InteriorPhotoURL != "" {
		photos = append(photos, Image{Label: s.InteriorPhoto, URL: insp.InteriorPhotoURL})
	}
	if insp.ExteriorPhotoURL != "" {
		photos = append(photos, Image{Label: s.ExteriorPhoto, URL: insp.ExteriorPhotoURL})
	}
	if len(photos) > 0 {
		doc.Sections = append(doc.Sections, Section{Kind: SectionPhotos, Title: s.PhotosTitle, Images: photos})
	}

	if insp.SignatureURL != "" {
		name := ""
		if rc.Inspector != nil {
			name = rc.Inspector.FullName()
		}
		doc.Sections = append(doc.Sections, Section{
			Kind:    SectionSignature,
			Title:   s.SignatureTitle,
			Images:  []Image{{URL: insp.SignatureURL}},
			Text:    orFallback(name, s.NotInformed),
			Caption: s.SignatureCaption,
		})
	}

	doc.Sections = append(doc.Sections, Section{
		Kind:   SectionFooter,
		Fields: []Field{{Label: s.GeneratedAtLabel, Value: formatTime(rc.GeneratedAt, s.DateTimeLayout, s)}},
		Text:   s.Attribution,
	})
	return doc
}

func issuerSection(c fleetcheck.Company, s *Strings) Section {
	return Section{
		Kind:  SectionIssuer,
		Title: orFallback(c.Name, s.DefaultCompanyName),
		Fields: []Field{
			{Label: s.TaxIDLabel, Value: orFallback(c.TaxID, s.DefaultTaxID)},
			{Label: s.ContactLabel, Value: orFallback(c.Contact, s.DefaultContact)},
			{Label: s.AddressLabel, Value: orFallback(c.Address, s.DefaultAddress)},
		},
		Text: s.DocumentTitle,
	}
}

func generalSection(insp *fleetcheck.Inspection, inspector *fleetcheck.Inspector, s *Strings) Section {
	name := ""
	if inspector != nil {
		name = inspector.FullName()
	}
	mileage := s.NotInformed
	if insp.Mileage != nil {
		mileage = message.NewPrinter(s.Language).Sprintf("%d", *insp.Mileage) + " " + s.MileageUnit
	}
	return Section{
		Kind:  SectionGeneral,
		Title: s.GeneralTitle,
		Fields: []Field{
			{Label: s.DateLabel, Value: formatTime(insp.InspectionDate, s.DateLayout, s)},
			{Label: s.InspectorLabel, Value: orFallback(name, s.NotInformed)},
			{Label: s.MileageLabel, Value: mileage},
			{Label: s.CostCenterLabel, Value: orFallback(insp.CostCenter, s.NotInformed)},
		},
	}
}

func vehicleSection(v *fleetcheck.Vehicle, categoryLabel string, s *Strings) Section {
	if v == nil {
		v = &fleetcheck.Vehicle{}
	}
	year := ""
	if v.Year > 0 {
		year = strconv.Itoa(v.Year)
	}
	return Section{
		Kind:  SectionVehicle,
		Title: s.VehicleTitle,
		Fields: []Field{
			{Label: s.ModelLabel, Value: orFallback(v.Model, s.NotInformed)},
			{Label: s.PlateLabel, Value: orFallback(v.Plate, s.NotInformed)},
			{Label: s.YearLabel, Value: orFallback(year, s.NotInformed)},
			{Label: s.CategoryLabel, Value: orFallback(categoryLabel, orFallback(v.Category, s.NotInformed))},
		},
	}
}

// checklistSections groups items by category in the order each category is
// first met while walking the items by Order.
func checklistSections(items []*fleetcheck.ChecklistItem, answers fleetcheck.AnswerMap, s *Strings) []Section {
	if len(items) == 0 {
		return []Section{{Kind: SectionChecklist, Title: s.ChecklistTitle, Text: s.NoItems}}
	}

	sorted := make([]*fleetcheck.ChecklistItem, len(items))
	copy(sorted, items)
	fleetcheck.SortChecklistItems(sorted)

	var sections []Section
	index := make(map[string]int)
	for _, it := range sorted {
		i, ok := index[it.Category]
		if !ok {
			i = len(sections)
			index[it.Category] = i
			sections = append(sections, Section{Kind: SectionChecklist, Title: CategoryTitle(it.Category, s)})
		}
		sections[i].Items = append(sections[i].Items, composeItem(it, answers, s))
	}
	return sections
}

func composeItem(it *fleetcheck.ChecklistItem, answers fleetcheck.AnswerMap, s *Strings) Item {
	key := it.FieldKey()
	var a fleetcheck.Answer
	if key != "" {
		a = answers[key]
	}
	return Item{
		Key:         key,
		Name:        it.Name,
		Description: strings.TrimSpace(it.Description),
		Badge:       StatusBadge(a.Status, s),
		Observation: strings.TrimSpace(a.Observation),
	}
}

func formatTime(t time.Time, layout string, s *Strings) string {
	if t.IsZero() {
		return s.NotInformed
	}
	return t.Format(layout)
}

func orFallback(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return strings.TrimSpace(v)
}
