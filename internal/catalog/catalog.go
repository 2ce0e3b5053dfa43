package catalog

import (
	"github.com/dealbridge/dealroom/internal/models"
)

// Version is bumped whenever the canonical checklist changes. Seeded rows
// carry it so a running deployment can tell which catalog produced a score.
const Version = 2

// Item is the in-code definition of one due-diligence requirement.
type Item struct {
	ID                string
	Category          models.RequirementCategory
	Title             string
	Description       string
	Mandatory         bool
	DocTypes          []string
	MinYears          int // 0 means no year-coverage rule
	RequiresSignature bool
}

// items is the canonical Swedish due-diligence checklist. Order matters: gap
// lists and seeded rows follow it.
var items = []Item{
	{
		ID:                "finans-arsredovisning",
		Category:          models.CategoryFinans,
		Title:             "Årsredovisning, senaste 3 åren",
		Description:       "Signerade årsredovisningar för de tre senaste räkenskapsåren.",
		Mandatory:         true,
		DocTypes:          []string{"pdf"},
		MinYears:          3,
		RequiresSignature: true,
	},
	{
		ID:          "finans-resultatrapport",
		Category:    models.CategoryFinans,
		Title:       "Aktuell resultat- och balansrapport",
		Description: "Resultat- och balansrapport ej äldre än tre månader.",
		Mandatory:   true,
		DocTypes:    []string{"pdf", "xlsx"},
	},
	{
		ID:          "finans-budget",
		Category:    models.CategoryFinans,
		Title:       "Budget och prognos",
		Description: "Budget för innevarande år samt prognos för kommande år.",
		DocTypes:    []string{"pdf", "xlsx"},
	},
	{
		ID:          "skatt-skattekonto",
		Category:    models.CategorySkatt,
		Title:       "Skattekontoutdrag",
		Description: "Utdrag från skattekontot för de senaste 12 månaderna.",
		Mandatory:   true,
		DocTypes:    []string{"pdf"},
	},
	{
		ID:          "skatt-deklarationer",
		Category:    models.CategorySkatt,
		Title:       "Inkomstdeklarationer, senaste 2 åren",
		Description: "Bolagets inkomstdeklarationer inklusive bilagor.",
		Mandatory:   true,
		DocTypes:    []string{"pdf"},
		MinYears:    2,
	},
	{
		ID:                "juridik-bolagsordning",
		Category:          models.CategoryJuridik,
		Title:             "Bolagsordning och registreringsbevis",
		Description:       "Aktuell bolagsordning samt registreringsbevis från Bolagsverket.",
		Mandatory:         true,
		DocTypes:          []string{"pdf"},
		RequiresSignature: false,
	},
	{
		ID:                "juridik-vasentliga-avtal",
		Category:          models.CategoryJuridik,
		Title:             "Väsentliga avtal",
		Description:       "Kund-, leverantörs- och hyresavtal av väsentlig betydelse, undertecknade.",
		Mandatory:         true,
		DocTypes:          []string{"pdf"},
		RequiresSignature: true,
	},
	{
		ID:          "juridik-tvister",
		Category:    models.CategoryJuridik,
		Title:       "Pågående tvister",
		Description: "Redogörelse för pågående eller hotande tvister.",
		DocTypes:    []string{"pdf", "docx"},
	},
	{
		ID:                "hr-anstallningsavtal",
		Category:          models.CategoryHR,
		Title:             "Anställningsavtal nyckelpersoner",
		Description:       "Anställningsavtal för ledning och nyckelpersoner.",
		Mandatory:         true,
		DocTypes:          []string{"pdf"},
		RequiresSignature: true,
	},
	{
		ID:          "hr-personallista",
		Category:    models.CategoryHR,
		Title:       "Personallista",
		Description: "Lista över samtliga anställda med roll, lön och anställningsdatum.",
		Mandatory:   true,
		DocTypes:    []string{"pdf", "xlsx"},
	},
	{
		ID:          "kommersiellt-kundlista",
		Category:    models.CategoryKommersiellt,
		Title:       "Kundlista med omsättningsfördelning",
		Description: "De största kunderna och deras andel av omsättningen.",
		Mandatory:   true,
		DocTypes:    []string{"pdf", "xlsx"},
	},
	{
		ID:          "kommersiellt-leverantorer",
		Category:    models.CategoryKommersiellt,
		Title:       "Leverantörsöversikt",
		Description: "Väsentliga leverantörer och beroenden.",
		DocTypes:    []string{"pdf", "xlsx"},
	},
	{
		ID:          "it-systemoversikt",
		Category:    models.CategoryIT,
		Title:       "Systemöversikt och licenser",
		Description: "Förteckning över affärskritiska system och licensavtal.",
		Mandatory:   true,
		DocTypes:    []string{"pdf", "xlsx"},
	},
	{
		ID:          "operation-processer",
		Category:    models.CategoryOperation,
		Title:       "Processbeskrivningar",
		Description: "Dokumentation av kärnprocesser och certifieringar.",
		DocTypes:    []string{"pdf", "docx"},
	},
}

// All returns the catalog in canonical order. Callers receive copies.
func All() []Item {
	out := make([]Item, len(items))
	copy(out, items)
	return out
}

// Get returns the catalog item with the given ID.
func Get(id string) (Item, bool) {
	for _, item := range items {
		if item.ID == id {
			return item, true
		}
	}
	return Item{}, false
}
