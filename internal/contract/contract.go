package contract

import (
	"strings"
	"unicode"
)

// Kind is the JSON primitive category of a contract field.
type Kind string

const (
	KindString  Kind = "string"
	KindInteger Kind = "integer"
	KindNumber  Kind = "number"
	KindBoolean Kind = "boolean"
	KindArray   Kind = "array"
	KindObject  Kind = "object"
)

// Field describes one field of a response contract.
type Field struct {
	Name        string
	WireName    string // overrides the derived lower-camel name when set
	Kind        Kind
	Required    bool
	Description string
	Example     any
	Ignore      bool

	// Items describes the element of an array field. Its Name is unused.
	Items *Field
	// Object lists the nested fields of an object field or object element.
	Object *Descriptor
}

// Descriptor is the compile-time schema table for one response contract.
type Descriptor struct {
	Name   string
	New    func() any
	Fields []Field
}

func (f Field) wireName() string {
	if f.WireName != "" {
		return f.WireName
	}
	return lowerCamel(f.Name)
}

func lowerCamel(name string) string {
	if name == "" {
		return name
	}
	// Leading initialisms become fully lowercase: IBAN -> iban, VATAmount -> vatAmount.
	runes := []rune(name)
	i := 0
	for i < len(runes) && unicode.IsUpper(runes[i]) {
		i++
	}
	if i == 0 {
		return name
	}
	if i == 1 || i == len(runes) {
		return strings.ToLower(string(runes[:i])) + string(runes[i:])
	}
	return strings.ToLower(string(runes[:i-1])) + string(runes[i-1:])
}
