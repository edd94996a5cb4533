package categories

import (
	"strconv"
	"strings"

	"github.com/JaimeStill/dossier/internal/retention"
)

// PlanNode describes a category of the standard filing plan. Children
// inherit the parent's trigger; a zero child RetentionYears inherits the
// parent's years.
type PlanNode struct {
	Code        string
	Name        string
	Description string
	Years       int
	Trigger     retention.Trigger
	Mandatory   bool
	SortOrder   int
	Children    []PlanNode
}

// Plan is the standard personnel filing plan.
var Plan = []PlanNode{
	{
		Code: "01", Name: "Bewerbungsunterlagen",
		Description: "Bewerbung, Lebenslauf, Zeugnisse vor Einstellung",
		Years:       6, Trigger: retention.TriggerExit, SortOrder: 10,
	},
	{
		Code: "02", Name: "Arbeitsvertrag",
		Description: "Arbeitsvertrag, Änderungen, Zusatzvereinbarungen",
		Years:       10, Trigger: retention.TriggerExit, Mandatory: true, SortOrder: 20,
		Children: []PlanNode{
			{Code: "02.01", Name: "Arbeitsvertrag"},
			{Code: "02.02", Name: "Vertragsänderungen"},
			{Code: "02.03", Name: "Zusatzvereinbarungen"},
			{Code: "02.04", Name: "Befristungen"},
		},
	},
	{
		Code: "03", Name: "Persönliche Daten",
		Description: "Stammdaten, Bankverbindung, Steuer, SV",
		Years:       6, Trigger: retention.TriggerExit, Mandatory: true, SortOrder: 30,
		Children: []PlanNode{
			{Code: "03.01", Name: "Personalstammdaten"},
			{Code: "03.02", Name: "Bankverbindung"},
			{Code: "03.03", Name: "Steuerliche Unterlagen"},
			{Code: "03.04", Name: "Sozialversicherung", Years: 30},
		},
	},
	{
		Code: "04", Name: "Qualifikation & Entwicklung",
		Description: "Zeugnisse, Zertifikate, Fortbildungen",
		Years:       10, Trigger: retention.TriggerExit, SortOrder: 40,
		Children: []PlanNode{
			{Code: "04.01", Name: "Schul-/Ausbildungszeugnisse"},
			{Code: "04.02", Name: "Fortbildungsnachweise"},
			{Code: "04.03", Name: "Zertifikate"},
			{Code: "04.04", Name: "Führerscheine & Fahrerlaubnisse"},
		},
	},
	{
		Code: "05", Name: "Vergütung",
		Description: "Gehaltsabrechnungen, Lohnsteuer, Sozialversicherung, FiBu",
		Years:       10, Trigger: retention.TriggerDocumentDate, Mandatory: true, SortOrder: 50,
		Children: []PlanNode{
			{Code: "05.01", Name: "Gehaltsabrechnungen"},
			{Code: "05.02", Name: "Lohnsteuer & Finanzamt"},
			{Code: "05.03", Name: "Sozialversicherung & Meldewesen"},
			{Code: "05.04", Name: "Finanzbuchhaltung"},
			{Code: "05.05", Name: "Altersvorsorge & ZVK"},
		},
	},
	{
		Code: "06", Name: "Arbeitszeit & Urlaub",
		Description: "Arbeitszeitnachweise, Urlaubsanträge, Fehlzeiten",
		Years:       3, Trigger: retention.TriggerDocumentDate, SortOrder: 60,
		Children: []PlanNode{
			{Code: "06.01", Name: "Arbeitszeitnachweise"},
			{Code: "06.02", Name: "Urlaubsanträge"},
			{Code: "06.03", Name: "Fehlzeiten & Kurzarbeit"},
			{Code: "06.04", Name: "Gleitzeitkonten"},
		},
	},
	{
		Code: "07", Name: "Gesundheit & Arbeitsschutz",
		Description: "AU-Bescheinigungen, Arbeitsmedizin, BEM",
		Years:       3, Trigger: retention.TriggerDocumentDate, SortOrder: 70,
		Children: []PlanNode{
			{Code: "07.01", Name: "Krankmeldungen"},
			{Code: "07.02", Name: "AU-Bescheinigungen"},
			{Code: "07.03", Name: "Arbeitsmedizinische Vorsorge", Years: 10},
			{Code: "07.04", Name: "BEM-Unterlagen"},
			{Code: "07.05", Name: "Unfallmeldungen", Years: 30},
		},
	},
	{
		Code: "08", Name: "Beurteilung & Feedback",
		Description: "Beurteilungen, Zielvereinbarungen, Mitarbeitergespräche",
		Years:       5, Trigger: retention.TriggerExit, SortOrder: 80,
		Children: []PlanNode{
			{Code: "08.01", Name: "Leistungsbeurteilungen"},
			{Code: "08.02", Name: "Zielvereinbarungen"},
			{Code: "08.03", Name: "Mitarbeitergespräche"},
			{Code: "08.04", Name: "Feedback"},
		},
	},
	{
		Code: "09", Name: "Disziplinarisches",
		Description: "Abmahnungen, Ermahnungen, Verwarnungen",
		Years:       3, Trigger: retention.TriggerDocumentDate, SortOrder: 90,
		Children: []PlanNode{
			{Code: "09.01", Name: "Abmahnungen"},
			{Code: "09.02", Name: "Ermahnungen", Years: 2},
			{Code: "09.03", Name: "Verwarnungen", Years: 2},
		},
	},
	{
		Code: "10", Name: "Beendigung",
		Description: "Kündigung, Aufhebungsvertrag, Zeugnis",
		Years:       10, Trigger: retention.TriggerExit, SortOrder: 100,
		Children: []PlanNode{
			{Code: "10.01", Name: "Kündigung"},
			{Code: "10.02", Name: "Aufhebungsvertrag"},
			{Code: "10.03", Name: "Arbeitszeugnis"},
			{Code: "10.04", Name: "Abschlussdokumente"},
		},
	},
	{
		Code: "99", Name: "Sonstiges",
		Description: "Nicht zugeordnete Dokumente",
		Years:       10, Trigger: retention.TriggerExit, SortOrder: 999,
	},
}

// Flatten expands a plan into parent-first nodes with inherited values
// resolved. parents maps each child code to its parent code.
func Flatten(plan []PlanNode) (nodes []PlanNode, parents map[string]string) {
	parents = make(map[string]string)

	for _, p := range plan {
		parent := p
		parent.Children = nil
		nodes = append(nodes, parent)

		for _, c := range p.Children {
			child := c
			if child.Years == 0 {
				child.Years = p.Years
			}
			if child.Trigger == "" {
				child.Trigger = p.Trigger
			}
			child.SortOrder = p.SortOrder + childIndex(c.Code)
			nodes = append(nodes, child)
			parents[c.Code] = p.Code
		}
	}
	return nodes, parents
}

func childIndex(code string) int {
	_, suffix, ok := strings.Cut(code, ".")
	if !ok {
		return 0
	}
	n, _ := strconv.Atoi(suffix)
	return n
}
