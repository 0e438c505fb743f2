package dataset

// Merge reconciles a batch of freshly fetched records into the existing
// dataset. Rows whose key appears in the batch are replaced in place (new
// data wins unconditionally); unknown keys are appended in batch order;
// rows not touched by the batch are kept unchanged in their load order.
// Merge never deletes: a PR that was not re-fetched this run keeps its
// previously recorded state.
func Merge(existing, batch []Record) (merged []Record, added, replaced int) {
	merged = make([]Record, len(existing))
	copy(merged, existing)

	index := make(map[Key]int, len(merged))
	for i, record := range merged {
		index[record.Key()] = i
	}

	for _, record := range batch {
		if i, ok := index[record.Key()]; ok {
			merged[i] = record
			replaced++
		} else {
			index[record.Key()] = len(merged)
			merged = append(merged, record)
			added++
		}
	}

	return merged, added, replaced
}
