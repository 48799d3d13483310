package metadata

import "fmt"

type FieldType int

const (
	FieldTypeFloat FieldType = iota
	FieldTypeInt
	FieldTypeBool
	FieldTypeString
	FieldTypeColor
	FieldTypeVec4
)

/**
 * @brief Declarative description of one component field, consumed by
 * serialization and editor tooling.
 */
type FieldSchema struct {
	Name    string
	Type    FieldType
	Min     *float64
	Max     *float64
	Default interface{}
}

// Schema lists the serializable fields of a component, in declaration order.
type Schema struct {
	Component string
	Fields    []FieldSchema
}

func Bound(v float64) *float64 {
	return &v
}

func (s *Schema) Field(name string) (FieldSchema, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSchema{}, false
}

// CheckNumber validates v against the named field's Min/Max constraints.
func (s *Schema) CheckNumber(name string, v float64) error {
	f, ok := s.Field(name)
	if !ok {
		return fmt.Errorf("%s: unknown field %q", s.Component, name)
	}
	if f.Type != FieldTypeFloat && f.Type != FieldTypeInt {
		return fmt.Errorf("%s.%s: not a numeric field", s.Component, name)
	}
	if f.Min != nil && v < *f.Min {
		return fmt.Errorf("%s.%s: %v is below minimum %v", s.Component, name, v, *f.Min)
	}
	if f.Max != nil && v > *f.Max {
		return fmt.Errorf("%s.%s: %v is above maximum %v", s.Component, name, v, *f.Max)
	}
	return nil
}
