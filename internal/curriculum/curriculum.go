// Package curriculum holds the static Lernfeld catalog of the Hamburg GPA
// Bildungsplan. Items in the bank reference these Lernfelder and areas;
// the catalog itself is fixed at compile time.
package curriculum

// Lernfeld is one of the ten learning fields of the GPA curriculum.
type Lernfeld struct {
	Code  string `json:"code"`
	Title string `json:"title"`
	Areas []Area `json:"areas"`
}

// Area is a diagnostic sub-area of a Lernfeld. Diagnostics and practice
// recommendations are tracked per area, not per whole Lernfeld.
type Area struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Level bounds for items and diagnostics.
const (
	MinLevel = 1
	MaxLevel = 3
)

// LevelLabel maps a difficulty level to its display name.
var LevelLabel = map[int]string{
	1: "Basis",
	2: "Sicher",
	3: "Prüfungsnah",
}

var lernfelder = []Lernfeld{
	{
		Code:  "LF1",
		Title: "Sich im Berufsfeld orientieren",
		Areas: []Area{
			{Key: "rolle_team", Label: "Rolle, Team, Kommunikation"},
			{Key: "recht_ethik", Label: "Recht, Schweigepflicht, Ethik"},
			{Key: "hygiene_sicherheit", Label: "Arbeitsschutz, Hygiene-Basics"},
		},
	},
	{
		Code:  "LF2",
		Title: "Gesundheit erhalten und fördern",
		Areas: []Area{
			{Key: "gesundheit_praevention", Label: "Gesundheit, Prävention, Gesundheitsförderung"},
			{Key: "vitalzeichen", Label: "Vitalzeichen & Beobachtung"},
			{Key: "infekt_prophylaxe", Label: "Infektionszeichen & Prophylaxen"},
		},
	},
	{
		Code:  "LF3",
		Title: "Häusliche Pflege und hauswirtschaftliche Abläufe mitgestalten",
		Areas: []Area{
			{Key: "haushalt_org", Label: "Arbeitsorganisation & Haushaltsführung"},
			{Key: "lebensmittelhygiene", Label: "Lebensmittelhygiene & Desinfektion"},
			{Key: "umwelt_wirtschaft", Label: "Wirtschaftlichkeit & Umweltschutz"},
		},
	},
	{
		Code:  "LF4",
		Title: "Bei der Körperpflege anleiten und unterstützen",
		Areas: []Area{
			{Key: "haut_grundlagen", Label: "Haut: Anatomie/Beobachtung"},
			{Key: "koerperpflege", Label: "Körperpflege: Durchführung/Anleitung"},
			{Key: "prophylaxen", Label: "Dekubitus/Intertrigo: Risiken & Prophylaxe"},
			{Key: "sinnesorgane", Label: "Augen/Ohren: Pflege & Hilfsmittel"},
			{Key: "doku_pflegeprozess", Label: "Pflegeprozess & Dokumentation"},
		},
	},
	{
		Code:  "LF5",
		Title: "Menschen bei der Nahrungsaufnahme und Ausscheidung anleiten und unterstützen",
		Areas: []Area{
			{Key: "ernaehrung", Label: "Ernährung, Essenreichen, Atmosphäre"},
			{Key: "fluessigkeit_bilanz", Label: "Flüssigkeit, Bilanzierung, Dehydration"},
			{Key: "schluckstoerung_sonde", Label: "Schluckstörung & Nahrungssonde"},
			{Key: "ausscheidung", Label: "Ausscheidung & Inkontinenz"},
			{Key: "prophylaxen", Label: "Soor/Parotitis/Obstipation: Prophylaxen"},
		},
	},
	{
		Code:  "LF6",
		Title: "Die Mobilität erhalten und fördern",
		Areas: []Area{
			{Key: "bewegungsapparat", Label: "Bewegungsapparat: Grundlagen"},
			{Key: "mobilisation_transfer", Label: "Mobilisation, Lagerung, Transfer (Ergonomie)"},
			{Key: "sturzrisiko", Label: "Sturzrisiko: Einschätzung & Prävention"},
			{Key: "prophylaxen", Label: "Kontrakturen-/Thrombose-/Pneumonieprophylaxe"},
			{Key: "beispiele", Label: "Beispielhafte Krankheitsbilder (z.B. Arthrose/TEP)"},
		},
	},
	{
		Code:  "LF7",
		Title: "Menschen bei der Bewältigung von Krisen unterstützen",
		Areas: []Area{
			{Key: "herz_kreislauf", Label: "Herz-Kreislauf: Grundlagen"},
			{Key: "notfallbilder", Label: "Akute Notfälle (z.B. Herzinfarkt, hypertensive Krise)"},
			{Key: "thrombose_embolie", Label: "Thrombose/Embolie: Zeichen & Maßnahmen"},
			{Key: "schmerz", Label: "Schmerz: Beobachtung, Dokumentation, nicht-medikamentös"},
			{Key: "wunden_injektion", Label: "Wunden/Wundheilung & s.c. Injektion (Heparin/Insulin)"},
		},
	},
	{
		Code:  "LF8",
		Title: "Menschen in besonderen Lebenssituationen unterstützen",
		Areas: []Area{
			{Key: "chronisch", Label: "Chronische Erkrankungen & Umgang"},
			{Key: "diabetes", Label: "Diabetes: Beobachtung, BZ, Insulin (unter Anleitung)"},
			{Key: "herzinsuff", Label: "Herzinsuffizienz: Symptome, Beobachtung, Alltag"},
			{Key: "medikamente", Label: "Medikamente: Wirkung/Nebenwirkung beobachten"},
		},
	},
	{
		Code:  "LF9",
		Title: "Menschen mit körperlichen und geistigen Beeinträchtigungen unterstützen",
		Areas: []Area{
			{Key: "beeintraechtigung", Label: "Beeinträchtigungen: Ressourcen & Aktivierung"},
			{Key: "demenz_kommunikation", Label: "Demenz & Kommunikation (Validation, Basale Stimulation)"},
			{Key: "hilfsmittel", Label: "Hilfsmittel & rehabilitative Unterstützung"},
		},
	},
	{
		Code:  "LF10",
		Title: "Menschen in der Endphase des Lebens begleiten und pflegen",
		Areas: []Area{
			{Key: "palliativ", Label: "Palliative Grundhaltung & Bedürfnisse"},
			{Key: "zeichen_sterben", Label: "Zeichen des nahenden Todes & Beobachtung"},
			{Key: "angehoerige", Label: "Angehörige begleiten & Kommunikation"},
			{Key: "nach_tod", Label: "Maßnahmen nach Eintritt des Todes (Rollenklarheit)"},
		},
	},
}

// Lernfelder returns the full catalog in curriculum order.
func Lernfelder() []Lernfeld {
	return lernfelder
}

// Get returns the Lernfeld with the given code, or false if unknown.
func Get(code string) (Lernfeld, bool) {
	for _, lf := range lernfelder {
		if lf.Code == code {
			return lf, true
		}
	}
	return Lernfeld{}, false
}

// Areas returns the areas of a Lernfeld, or nil if the code is unknown.
func Areas(code string) []Area {
	lf, ok := Get(code)
	if !ok {
		return nil
	}
	return lf.Areas
}

// ValidArea reports whether the (lf, area) pair exists in the catalog.
func ValidArea(code, areaKey string) bool {
	for _, a := range Areas(code) {
		if a.Key == areaKey {
			return true
		}
	}
	return false
}

// AreaLabel returns the display label for an area, falling back to the key.
func AreaLabel(code, areaKey string) string {
	for _, a := range Areas(code) {
		if a.Key == areaKey {
			return a.Label
		}
	}
	return areaKey
}

// ValidLevel reports whether the level is within item bank bounds.
func ValidLevel(level int) bool {
	return level >= MinLevel && level <= MaxLevel
}
