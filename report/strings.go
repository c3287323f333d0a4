package report

import (
	"maps"

	"golang.org/x/text/language"
)

// StatusLabels are the badge labels for each answer outcome.
type StatusLabels struct {
	Yes           string
	Review        string
	Missing       string
	OK            string
	NotOK         string
	NotApplicable string
	NotChecked    string
}

// Strings holds every fixed text printed on a report. Every optional
// value on the report has a fallback here.
type Strings struct {
	Language language.Tag

	DocumentTitle string
	NotInformed   string

	DefaultCompanyName string
	DefaultTaxID       string
	DefaultContact     string
	DefaultAddress     string
	TaxIDLabel         string
	ContactLabel       string
	AddressLabel       string

	GeneralTitle    string
	DateLabel       string
	InspectorLabel  string
	MileageLabel    string
	MileageUnit     string
	CostCenterLabel string

	VehicleTitle  string
	ModelLabel    string
	PlateLabel    string
	YearLabel     string
	CategoryLabel string

	ChecklistTitle   string
	NoItems          string
	ObservationLabel string
	GeneralCategory  string
	CategoryTitles   map[string]string

	OverallTitle       string
	NoOverallCondition string
	NotesTitle         string

	PhotosTitle      string
	InteriorPhoto    string
	ExteriorPhoto    string
	ImageUnavailable string

	SignatureTitle   string
	SignatureCaption string

	GeneratedAtLabel string
	Attribution      string

	DateLayout     string
	DateTimeLayout string

	Labels StatusLabels
}

// PortugueseStrings is the deployment default.
var PortugueseStrings = Strings{
	Language: language.BrazilianPortuguese,

	DocumentTitle: "Relatório de Inspeção Veicular",
	NotInformed:   "Não informado",

	DefaultCompanyName: "Gestão de Frota",
	DefaultTaxID:       "00.000.000/0001-00",
	DefaultContact:     "contato@gestaodefrota.com.br",
	DefaultAddress:     "Endereço não cadastrado",
	TaxIDLabel:         "CNPJ",
	ContactLabel:       "Contato",
	AddressLabel:       "Endereço",

	GeneralTitle:    "Informações Gerais",
	DateLabel:       "Data da inspeção",
	InspectorLabel:  "Inspetor",
	MileageLabel:    "Quilometragem",
	MileageUnit:     "km",
	CostCenterLabel: "Centro de custo",

	VehicleTitle:  "Informações do Veículo",
	ModelLabel:    "Modelo",
	PlateLabel:    "Placa",
	YearLabel:     "Ano",
	CategoryLabel: "Categoria",

	ChecklistTitle:   "Itens de Verificação",
	NoItems:          "Nenhum item de verificação configurado para esta categoria.",
	ObservationLabel: "Observação",
	GeneralCategory:  "Geral",
	CategoryTitles: map[string]string{
		"interior":         "Interior",
		"exterior":         "Exterior",
		"seguranca":        "Segurança",
		"safety":           "Segurança",
		"mecanica":         "Mecânica",
		"mechanical":       "Mecânica",
		"eletrica":         "Elétrica",
		"documentacao":     "Documentação",
		"carro":            "Carro / Moto",
		"caminhao":         "Caminhão",
		"retroescavadeira": "Retroescavadeira",
	},

	OverallTitle:       "Condição Geral",
	NoOverallCondition: "Nenhuma observação sobre a condição geral.",
	NotesTitle:         "Observações Adicionais",

	PhotosTitle:      "Documentação Fotográfica",
	InteriorPhoto:    "Foto interna",
	ExteriorPhoto:    "Foto externa",
	ImageUnavailable: "(imagem indisponível)",

	SignatureTitle:   "Assinatura",
	SignatureCaption: "Inspetor Responsável",

	GeneratedAtLabel: "Relatório gerado em",
	Attribution:      "Documento gerado automaticamente pelo sistema de gestão de frota.",

	DateLayout:     "02/01/2006",
	DateTimeLayout: "02/01/2006 15:04",

	Labels: StatusLabels{
		Yes:           "SIM",
		Review:        "REVISAR",
		Missing:       "FALTANDO",
		OK:            "OK",
		NotOK:         "NÃO OK",
		NotApplicable: "N/A",
		NotChecked:    "Não verificado",
	},
}

// EnglishStrings carries the English labels.
var EnglishStrings = Strings{
	Language: language.AmericanEnglish,

	DocumentTitle: "Vehicle Inspection Report",
	NotInformed:   "not informed",

	DefaultCompanyName: "Fleet Management",
	DefaultTaxID:       "00.000.000/0001-00",
	DefaultContact:     "contact@fleetmanagement.example",
	DefaultAddress:     "No address on file",
	TaxIDLabel:         "Tax ID",
	ContactLabel:       "Contact",
	AddressLabel:       "Address",

	GeneralTitle:    "General Information",
	DateLabel:       "Inspection date",
	InspectorLabel:  "Inspector",
	MileageLabel:    "Mileage",
	MileageUnit:     "km",
	CostCenterLabel: "Cost center",

	VehicleTitle:  "Vehicle Information",
	ModelLabel:    "Model",
	PlateLabel:    "License plate",
	YearLabel:     "Year",
	CategoryLabel: "Category",

	ChecklistTitle:   "Checklist",
	NoItems:          "No checklist items configured for this category.",
	ObservationLabel: "Observation",
	GeneralCategory:  "General",
	CategoryTitles: map[string]string{
		"interior":         "Interior",
		"exterior":         "Exterior",
		"seguranca":        "Safety",
		"safety":           "Safety",
		"mecanica":         "Mechanical",
		"mechanical":       "Mechanical",
		"eletrica":         "Electrical",
		"documentacao":     "Documents",
		"carro":            "Car / Motorcycle",
		"caminhao":         "Truck",
		"retroescavadeira": "Backhoe",
	},

	OverallTitle:       "Overall Condition",
	NoOverallCondition: "No remarks on the overall condition.",
	NotesTitle:         "Additional Notes",

	PhotosTitle:      "Photo Documentation",
	InteriorPhoto:    "Interior photo",
	ExteriorPhoto:    "Exterior photo",
	ImageUnavailable: "(image unavailable)",

	SignatureTitle:   "Signature",
	SignatureCaption: "Responsible Inspector",

	GeneratedAtLabel: "Generated on",
	Attribution:      "Automatically generated by the fleet management system.",

	DateLayout:     "02/01/2006",
	DateTimeLayout: "02/01/2006 15:04",

	Labels: StatusLabels{
		Yes:           "YES",
		Review:        "REVIEW",
		Missing:       "MISSING",
		OK:            "OK",
		NotOK:         "NOT OK",
		NotApplicable: "N/A",
		NotChecked:    "not checked",
	},
}

// StringsFor returns a copy of the strings for a locale name ("pt-BR",
// "en"). Unknown locales get PortugueseStrings. Callers may change the
// copy freely.
func StringsFor(locale string) *Strings {
	tag, err := language.Parse(locale)
	if err != nil {
		return PortugueseStrings.Clone()
	}
	if base, _ := tag.Base(); base.String() == "en" {
		return EnglishStrings.Clone()
	}
	return PortugueseStrings.Clone()
}

// Clone returns a deep copy of s.
func (s *Strings) Clone() *Strings {
	c := *s
	c.CategoryTitles = maps.Clone(s.CategoryTitles)
	return &c
}
