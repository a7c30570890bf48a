package dataprocessing

import "probecli/pkg/contracts/domain"

// FilterBadElements splits a record's sections into those that contribute to
// the aggregate and those excluded by a bad-element marker. Both lists keep
// the record's section order. The record itself is not modified.
func FilterBadElements(record *domain.Record) (kept, excluded []string) {
	for _, name := range record.SectionOrder {
		if record.BadSections[name] {
			excluded = append(excluded, name)
			continue
		}
		kept = append(kept, name)
	}
	return kept, excluded
}
