package grabber

import (
	"github.com/foomo/grabber/vo"
)

// trackFieldMisses counts the fields of a listing page that fell back to
// their default value.
func trackFieldMisses(m *metrics, result vo.ScrapeResult) {
	if result.Kind != vo.PageKindListing {
		return
	}
	for field, misses := range result.Validations.Level(vo.ValidationLevelWarning).CountByGroup() {
		m.fieldMisses.WithLabelValues(result.Site, field).Add(float64(misses))
	}
}
