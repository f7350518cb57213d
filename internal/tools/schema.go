package tools

import (
	"github.com/invopop/jsonschema"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ParamType is the declared type of a tool parameter
type ParamType string

const (
	ParamString      ParamType = "string"
	ParamBoolean     ParamType = "boolean"
	ParamInteger     ParamType = "integer"
	ParamStringArray ParamType = "string-array"
	ParamObject      ParamType = "object"
	ParamObjectArray ParamType = "object-array"
)

// Param declares one argument a tool accepts.
type Param struct {
	Name        string
	Description string
	Type        ParamType
	Required    bool
	Enum        []string
	// Model is a struct value whose shape describes an object parameter.
	Model interface{}
}

// StringParam declares a string argument
func StringParam(name, description string, required bool) Param {
	return Param{Name: name, Description: description, Type: ParamString, Required: required}
}

// EnumParam declares a string argument restricted to values
func EnumParam(name, description string, required bool, values ...string) Param {
	return Param{Name: name, Description: description, Type: ParamString, Required: required, Enum: values}
}

// BoolParam declares a boolean argument
func BoolParam(name, description string, required bool) Param {
	return Param{Name: name, Description: description, Type: ParamBoolean, Required: required}
}

// IntParam declares an integer argument
func IntParam(name, description string, required bool) Param {
	return Param{Name: name, Description: description, Type: ParamInteger, Required: required}
}

// StringArrayParam declares a list-of-strings argument
func StringArrayParam(name, description string, required bool) Param {
	return Param{Name: name, Description: description, Type: ParamStringArray, Required: required}
}

// ObjectParam declares an object argument shaped like model
func ObjectParam(name, description string, required bool, model interface{}) Param {
	return Param{Name: name, Description: description, Type: ParamObject, Required: required, Model: model}
}

// ObjectArrayParam declares a list-of-objects argument shaped like model
func ObjectArrayParam(name, description string, required bool, model interface{}) Param {
	return Param{Name: name, Description: description, Type: ParamObjectArray, Required: required, Model: model}
}

// FunctionSchema is the function-call description published for a tool.
type FunctionSchema struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Parameters  ParametersSchema `json:"parameters"`
}

// ParametersSchema is the object schema of a tool's arguments. Required is
// always emitted, as [] when nothing is required.
type ParametersSchema struct {
	Type       string                                             `json:"type"`
	Properties *orderedmap.OrderedMap[string, *jsonschema.Schema] `json:"properties"`
	Required   []string                                           `json:"required"`
}

var reflector = &jsonschema.Reflector{
	DoNotReference:            true,
	ExpandedStruct:            true,
	AllowAdditionalProperties: true,
}

// BuildSchema builds the published schema of a tool. Properties keep
// declaration order.
func BuildSchema(name, description string, params ...Param) FunctionSchema {
	properties := jsonschema.NewProperties()
	required := make([]string, 0, len(params))

	for _, p := range params {
		properties.Set(p.Name, paramSchema(p))
		if p.Required {
			required = append(required, p.Name)
		}
	}

	return FunctionSchema{
		Name:        name,
		Description: description,
		Parameters: ParametersSchema{
			Type:       "object",
			Properties: properties,
			Required:   required,
		},
	}
}

func paramSchema(p Param) *jsonschema.Schema {
	var s *jsonschema.Schema
	switch p.Type {
	case ParamBoolean:
		s = &jsonschema.Schema{Type: "boolean"}
	case ParamInteger:
		s = &jsonschema.Schema{Type: "integer"}
	case ParamStringArray:
		s = &jsonschema.Schema{Type: "array", Items: &jsonschema.Schema{Type: "string"}}
	case ParamObject:
		s = objectSchema(p.Model)
	case ParamObjectArray:
		s = &jsonschema.Schema{Type: "array", Items: objectSchema(p.Model)}
	default:
		s = &jsonschema.Schema{Type: "string"}
		for _, v := range p.Enum {
			s.Enum = append(s.Enum, v)
		}
	}
	s.Description = p.Description
	return s
}

func objectSchema(model interface{}) *jsonschema.Schema {
	if model == nil {
		return &jsonschema.Schema{Type: "object"}
	}
	s := reflector.Reflect(model)
	s.Version = ""
	s.ID = ""
	return s
}
