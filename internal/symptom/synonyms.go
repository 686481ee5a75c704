package symptom

// Synonym maps a colloquial fragment to a canonical symptom. A term is
// rewritten by the first synonym whose Key occurs anywhere inside it, so the
// order of a synonym list is significant.
type Synonym struct {
	Key     string
	Symptom string
}

// DefaultSynonyms is the built-in Spanish synonym list.
var DefaultSynonyms = []Synonym{
	// general pain
	{"busto", "dolor_en_el_seno"},
	{"seno", "dolor_en_el_seno"},
	{"pecho", "dolor_en_el_seno"},
	{"vientre", "dolor_abdominal"},
	{"abdomen", "dolor_abdominal"},
	{"panza", "dolor_abdominal"},
	{"tripa", "dolor_abdominal"},
	{"barriga", "dolor_abdominal"},
	{"estómago", "dolor_abdominal"},
	{"nuca", "dolor_de_cabeza"},
	{"cefalea", "dolor_de_cabeza"},
	{"cabeza", "dolor_de_cabeza"},
	{"mandíbula", "dolor_dental"},
	{"dientes", "dolor_dental"},
	{"muelas", "dolor_dental"},

	// digestive
	{"náuseas", "nauseas"},
	{"nausea", "nauseas"},
	{"vomito", "vomitos"},
	{"vómito", "vomitos"},
	{"vomitar", "vomitos"},
	{"diarrea", "diarrea"},
	{"heces_sueltas", "diarrea"},
	{"estreñimiento", "constipacion"},
	{"constipado", "constipacion"},
	{"constipación", "constipacion"},
	{"acidez", "reflujo_gastroesofagico"},
	{"agruras", "reflujo_gastroesofagico"},

	// fatigue and sleep
	{"cansancio", "fatiga"},
	{"agotamiento", "fatiga"},
	{"falta_de_energía", "fatiga"},
	{"somnolencia", "somnolencia"},
	{"sueño_excesivo", "somnolencia"},

	// respiratory
	{"mucosidad", "congestion_nasal"},
	{"nariz_tapada", "congestion_nasal"},
	{"dificultad_para_respirar", "dificultad_respiratoria"},
	{"falta_de_aire", "dificultad_respiratoria"},
	{"respiración_agitada", "dificultad_respiratoria"},
	{"dolor_pecho_al_respirar", "dolor_toracico"},
	{"dolor_pecho", "dolor_toracico"},

	// cardiovascular
	{"palpitaciones", "latidos_rapidos"},
	{"taquicardia", "latidos_rapidos"},
	{"presion_alta", "presión_arterial_alta"},
	{"hipertensión", "presión_arterial_alta"},
	{"presion_baja", "presión_arterial_baja"},
	{"hipotensión", "presión_arterial_baja"},

	// skin and fever
	{"piel_roja", "erupcion_cutanea"},
	{"manchas_en_la_piel", "erupcion_cutanea"},
	{"eritema", "erupcion_cutanea"},
	{"fiebre_leve", "fiebre"},
	{"temperatura_alta", "fiebre"},
	{"escalofríos", "escalofrios"},
	{"frio", "escalofrios"},

	// urinary
	{"dolor_al_orinar", "disuria"},
	{"ardor_al_orinar", "disuria"},
	{"ganas_frecuentes_de_orinar", "poliuria"},
	{"micciones_frecuentes", "poliuria"},
	{"sangre_en_orina", "hematuria"},

	// neurological
	{"confusión", "desorientacion"},
	{"olvidos", "perdida_de_memoria"},
	{"desmayos", "síncope"},
	{"mareos", "mareo"},
	{"mareado", "mareo"},
	{"visión_borrosa", "vision_borrosa"},
	{"visión_doble", "vision_borrosa"},
}
