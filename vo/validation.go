package vo

type ValidationLevel string

const (
	ValidationLevelError   ValidationLevel = "error"
	ValidationLevelWarning ValidationLevel = "warning"
	ValidationLevelInfo    ValidationLevel = "info"
)

// Validation is a finding on a page, Group names the field or the page part
// it is about.
type Validation struct {
	Level   ValidationLevel
	Message string
	Group   string
}

type Validations []Validation

func (v *Validations) add(level ValidationLevel, msg string, group string) {
	*v = append(*v, Validation{Level: level, Group: group, Message: msg})
}

func (v *Validations) Error(group, msg string) {
	v.add(ValidationLevelError, msg, group)
}

func (v *Validations) Warning(group, msg string) {
	v.add(ValidationLevelWarning, msg, group)
}

func (v *Validations) Info(group, msg string) {
	v.add(ValidationLevelInfo, msg, group)
}

// Level returns the validations of the given level.
func (v Validations) Level(level ValidationLevel) Validations {
	filtered := Validations{}
	for _, validation := range v {
		if validation.Level == level {
			filtered = append(filtered, validation)
		}
	}
	return filtered
}

// CountByGroup counts validations per group.
func (v Validations) CountByGroup() map[string]int {
	counts := map[string]int{}
	for _, validation := range v {
		counts[validation.Group]++
	}
	return counts
}
