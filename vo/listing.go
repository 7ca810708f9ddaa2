package vo

// Listing is one offer with its extracted field values.
type Listing struct {
	Site        string
	URL         string
	Fields      map[string]string
	Validations Validations
}

// Value returns the value of a field, empty when it was not extracted.
func (l Listing) Value(name string) string {
	return l.Fields[name]
}
