package ir

// StackConfig represents the top-level, user-authored stack document.
type StackConfig struct {
	Name      string                `json:"name" validate:"required"`
	Resources []*ResourceDescriptor `json:"resources" validate:"required,dive,required"`
}
