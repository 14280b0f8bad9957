package affect

// Normalize augments every row with its normalized valence and arousal.
// The output has the same length and order as the input. Pass-through fields are kept.
//
// Normalize does not validate: a NaN rating yields NaN derived values. Callers
// wanting fail-fast behavior go through ProcessTable.
func Normalize(rows []Row) []ProcessedRow {
	out := make([]ProcessedRow, len(rows))
	for i, r := range rows {
		out[i] = ProcessedRow{
			Row:               r,
			NormalizedValence: NormalizeValue(r.Valence),
			NormalizedArousal: NormalizeValue(r.Arousal),
		}
	}
	return out
}
