package admin

// Widget names used in form schemas.
const (
	WidgetText     = "text"
	WidgetTextarea = "textarea"
	WidgetRichText = "richtext"
)

// FormField describes a single editable field.
type FormField struct {
	Name      string `json:"name"`
	Label     string `json:"label"`
	Widget    string `json:"widget"`
	Required  bool   `json:"required"`
	MaxLength int    `json:"max_length,omitempty"`
	ReadOnly  bool   `json:"read_only,omitempty"`
	HelpText  string `json:"help_text,omitempty"`
}

// Form is the edit form schema plus list presentation hints.
type Form struct {
	Fields       []FormField `json:"fields"`
	ListDisplay  []string    `json:"list_display"`
	SearchFields []string    `json:"search_fields"`
	Ordering     []string    `json:"ordering"`
}

// Field returns the field with the given name.
func (f Form) Field(name string) (FormField, bool) {
	for _, field := range f.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return FormField{}, false
}
