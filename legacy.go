package fleetcheck

// LegacyColumns lists the field keys that older inspections stored in
// fixed columns. The answer map is authoritative; these columns are
// written as a projection of it and only read to hydrate rows that
// predate the answer blob. Keep in sync with the inspections table.
var LegacyColumns = []string{
	"luzes_internas",
	"luzes_externas",
	"pneus",
	"estepe",
	"extintor",
	"triangulo",
	"macaco",
	"chave_roda",
	"documentos",
	"cinto_seguranca",
}

// ProjectLegacy computes the legacy column values for an answer map.
// Columns without an answer project to the empty string.
func ProjectLegacy(answers AnswerMap) map[string]string {
	out := make(map[string]string, len(LegacyColumns))
	for _, col := range LegacyColumns {
		out[col] = string(answers[col].Status)
	}
	return out
}

// HydrateFromLegacy returns answers extended with legacy column values for
// keys the blob does not carry. Keys present in answers always win.
func HydrateFromLegacy(answers AnswerMap, legacy map[string]string) AnswerMap {
	out := answers.Clone()
	for _, col := range LegacyColumns {
		if _, ok := out[col]; ok {
			continue
		}
		if v := normalizeStatus(legacy[col]); v != "" {
			out[col] = Answer{Status: v}
		}
	}
	return out
}
