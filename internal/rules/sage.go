package rules

// SagePriority is the priority of seeded Sage rules.
const SagePriority = 10

// SageRulePrefix prefixes the names of seeded rules.
const SageRulePrefix = "Auto: "

// SageType is a payroll export document type with its matching rule.
type SageType struct {
	Name        string
	Description string
	Pattern     string
	Algorithm   Algorithm
	Category    string
}

// Sage lists the document types produced by Sage HR payroll exports.
var Sage = []SageType{
	{"Beitragsnachweis", "Beitragsnachweis für Sozialversicherung", "Beitragsnachweis", AlgorithmExact, "05.03"},
	{"Berechnung voraussichtliche Beitragsschuld", "Vorausberechnung der SV-Beiträge", "Berechnung voraussichtliche Beitragsschuld", AlgorithmExact, "05.03"},
	{"Berufsgenossenschaftsliste", "Liste für Berufsgenossenschaft", "Berufsgenossenschaftsliste", AlgorithmExact, "07.05"},
	{"Differenzabrechnung", "Korrekturabrechnung bei Lohndifferenzen", "Differenzabrechnung", AlgorithmExact, "05.01"},
	{"ELStAM - Meldeprotokoll", "Elektronische Lohnsteuerabzugsmerkmale Protokoll", "ELStAM", AlgorithmExact, "05.02"},
	{"Elektronische Lohnsteuerbescheinigung", "Jahresabschluss Lohnsteuerbescheinigung", "Elektronische Lohnsteuerbescheinigung", AlgorithmExact, "05.02"},
	{"Entgeltbescheinigung Kind krank", "Bescheinigung für Kinderkrankengeld", "Entgeltbescheinigung Kind krank", AlgorithmExact, "07.01"},
	{"Ereignis Protokoll - Nettolohnberechnung", "Protokoll der Nettolohnberechnung", `Ereignis Protokoll.*Nettolohnberechnung`, AlgorithmRegex, "05.01"},
	{"Erstattungsantrag U1", "Antrag auf Erstattung nach AAG (Umlage 1)", "Erstattungsantrag U1", AlgorithmExact, "05.03"},
	{"Fibu-Buchungsjournal", "Buchungsjournal für Finanzbuchhaltung", "Fibu-Buchungsjournal", AlgorithmExact, "05.04"},
	{"Fibu-Journal", "Journal für Finanzbuchhaltung", "Fibu-Journal", AlgorithmExact, "05.04"},
	{"Jahreslohnjournal", "Jahresübersicht Lohnjournal", "Jahreslohnjournal", AlgorithmExact, "05.01"},
	{"Jahreslohnkonto", "Jahresübersicht Lohnkonto (kumuliert)", "Jahreslohnkonto", AlgorithmExact, "05.01"},
	{"Jahreslohnnachweis Berufsgenossenschaft", "Jahresmeldung für BG", "Jahreslohnnachweis Berufsgenossenschaft", AlgorithmExact, "07.05"},
	{"Korrekturlohnscheine", "Korrigierte Lohnscheine", "Korrekturlohnscheine", AlgorithmExact, "05.01"},
	{"Lohnjournal", "Monatliches Lohnjournal", "Lohnjournal", AlgorithmExact, "05.01"},
	{"Lohnkonto - Altersvorsorge", "Lohnkonto Übersicht Altersvorsorge", `Lohnkonto.*Altersvorsorge`, AlgorithmRegex, "05.05"},
	{"Lohnkonto Bruttolohn", "Lohnkonto Bruttolohn Übersicht", "Lohnkonto Bruttolohn", AlgorithmExact, "05.01"},
	{"Lohnscheine", "Monatliche Lohn-/Gehaltsabrechnungen", "Lohnscheine", AlgorithmExact, "05.01"},
	{"Lohnsteueranmeldung", "Monatliche Lohnsteueranmeldung", "Lohnsteueranmeldung", AlgorithmExact, "05.02"},
	{"Meldebescheinigung", "SV-Meldebescheinigung", "Meldebescheinigung", AlgorithmExact, "05.03"},
	{"Protokoll Beitragsnachweis", "Protokoll zum Beitragsnachweis", "Protokoll Beitragsnachweis", AlgorithmExact, "05.03"},
	{"Protokoll LSt-Jahresausgleich", "Protokoll Lohnsteuer-Jahresausgleich", "Protokoll LSt-Jahresausgleich", AlgorithmExact, "05.02"},
	{"Resturlaub Vorjahr", "Übersicht Resturlaub aus Vorjahr", "Resturlaub Vorjahr", AlgorithmExact, "06.02"},
	{"Saison-KUG Antrag", "Antrag auf Saison-Kurzarbeitergeld", "Saison-KUG Antrag", AlgorithmExact, "06.03"},
	{"Saison-KUG Abrechnungsliste", "Abrechnungsliste Saison-Kurzarbeitergeld", "Saison-Kug Abrechnungsliste", AlgorithmExact, "06.03"},
	{"Soll-Istprotokoll", "Soll-Ist Vergleich Arbeitszeit", "Soll-Istprotokoll", AlgorithmExact, "06.01"},
	{"Stundenkalendarium", "Übersicht Arbeitsstunden pro Monat", "Stundenkalendarium", AlgorithmExact, "06.01"},
	{"ZVK-LAK-Beitragsliste", "Zusatzversorgungskasse / Lohnausgleichskasse Beitragsliste", "ZVK-LAK-Beitragsliste", AlgorithmExact, "05.05"},
	{"Erweitertes Lohnkonto", "Erweitertes Lohnkonto mit Details", "erweitertes Lohnkonto", AlgorithmExact, "05.01"},
	{"DATEV Buchungsstapel", "DATEV Export Buchungsstapel (CSV)", `EXTF_Buchungsstapel.*\.CSV`, AlgorithmRegex, "05.04"},
	{"Sage Export", "Sage Datenexport (CSV)", `E_Sage_.*\.CSV`, AlgorithmRegex, "05.04"},
}
