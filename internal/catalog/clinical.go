package catalog

import "strings"

// Sex is the biological sex used for risk flags and exclusivity rules.
type Sex string

const (
	Male   Sex = "M"
	Female Sex = "F"
)

func (s Sex) Valid() bool {
	return s == Male || s == Female
}

func (s Sex) Opposite() Sex {
	if s == Male {
		return Female
	}
	return Male
}

// Risk attribute columns. Order is the order of Condition.Risks.
const (
	RiskMale        = "hombre"
	RiskFemale      = "mujer"
	RiskObese       = "obesidad"
	RiskOverweight  = "sobrepeso"
	RiskUnderweight = "desnutricion"
	RiskChild       = "niño"
	RiskAdolescent  = "adolescente"
	RiskAdult       = "adulto"
	RiskSenior      = "adulto_mayor"
)

var RiskAttributes = []string{
	RiskMale, RiskFemale,
	RiskObese, RiskOverweight, RiskUnderweight,
	RiskChild, RiskAdolescent, RiskAdult, RiskSenior,
}

func riskIndex(name string) (int, bool) {
	for i, r := range RiskAttributes {
		if r == name {
			return i, true
		}
	}
	return -1, false
}

// IsRisk reports whether name is a risk attribute column.
func IsRisk(name string) bool {
	_, ok := riskIndex(name)
	return ok
}

// Text columns of the condition catalog.
const (
	ColumnName        = "nombre_de_la_enfermedad"
	ColumnDescription = "breve_descripción"
	ColumnTreatment   = "tratamiento"
)

// symptomGroups lists clusters of variant symptoms; asking about one member
// is enough once any of them is confirmed.
var symptomGroups = []struct {
	name    string
	members []string
}{
	{"fiebre", []string{
		"fiebre", "fiebre_baja", "fiebre_leve", "fiebre_alta", "fiebre_alta_o_hipotermia",
		"fiebre_intermitente", "fiebre_nocturna", "fiebre_en_casos_graves",
		"fiebre_persistente", "fiebre_prolongada", "fiebre_alta_y_prolongada", "fiebre_alta_repentina",
	}},
	{"tos", []string{
		"tos", "tos_seca", "tos_con_flema", "tos_con_expectoración",
		"tos_crónica", "tos_persistente", "tos_crónica_con_flemas", "tos_leve",
	}},
	{"presion_arterial", []string{
		"presión_arterial_alta", "presión_arterial_baja", "hipertensión",
		"hipotensión", "hipertensión_arterial",
	}},
	{"fatiga", []string{
		"fatiga", "fatiga_extrema", "fatiga_diurna", "fatiga_persistente", "fatiga_crónica",
	}},
}

var groupBySymptom = func() map[string]string {
	m := make(map[string]string)
	for _, g := range symptomGroups {
		for _, s := range g.members {
			m[s] = g.name
		}
	}
	return m
}()

// GroupOf returns the symptom group of symptom, or "" when it has none.
func GroupOf(symptom string) string {
	return groupBySymptom[symptom]
}

// GroupMembers returns the members of the named group.
func GroupMembers(group string) []string {
	for _, g := range symptomGroups {
		if g.name == group {
			out := make([]string, len(g.members))
			copy(out, g.members)
			return out
		}
	}
	return nil
}

var exclusiveSymptoms = map[Sex]map[string]struct{}{
	Male: set(
		"dolor_testicular", "masa_testicular", "disfuncion_erectil", "problemas_prostaticos",
		"crecimiento_prostata", "dificultad_eyaculacion", "sangre_en_eyaculacion",
	),
	Female: set(
		"sangrado_vaginal", "flujo_vaginal", "dolor_pelvico_ciclo_menstrual",
		"dolor_durante_relaciones_sexuales", "ausencia_menstruacion", "menstruacion_irregular",
		"menopausia", "sindrome_ovario_poliquistico", "amenorrea", "endometriosis",
		"vaginismo", "cancer_de_cuello_uterino",
	),
}

var exclusiveConditions = map[Sex]map[string]struct{}{
	Male: set(
		"cáncer de próstata", "cáncer de mama masculino", "disfunción eréctil",
		"hiperplasia prostática benigna",
	),
	Female: set(
		"cáncer de mama femenino", "síndrome de ovario poliquístico", "menopausia",
		"amenorrea", "endometriosis", "vaginismo", "cáncer de cuello uterino",
	),
}

// ExcludedSymptom reports whether symptom is exclusive to the sex opposite
// to patient and must never be confirmed or asked.
func ExcludedSymptom(patient Sex, symptom string) bool {
	_, ok := exclusiveSymptoms[patient.Opposite()][symptom]
	return ok
}

// ExcludedCondition reports whether the named condition is exclusive to the
// sex opposite to patient.
func ExcludedCondition(patient Sex, name string) bool {
	_, ok := exclusiveConditions[patient.Opposite()][strings.ToLower(strings.TrimSpace(name))]
	return ok
}

func set(items ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(items))
	for _, it := range items {
		m[it] = struct{}{}
	}
	return m
}
