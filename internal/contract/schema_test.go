package contract

import (
	"encoding/json"
	"errors"
	"testing"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()

	r := NewRegistry()
	type lineItem struct {
		Description string  `json:"description"`
		Total       float64 `json:"total"`
	}
	type payload struct {
		InvoiceNumber string     `json:"invoiceNumber"`
		VATAmount     float64    `json:"vatAmount"`
		ItemCount     int        `json:"itemCount"`
		Readable      bool       `json:"readable"`
		Tags          []string   `json:"tags"`
		Items         []lineItem `json:"items"`
		Internal      string     `json:"-"`
	}

	items := Descriptor{
		Name: "testLineItem",
		New:  func() any { return &lineItem{} },
		Fields: []Field{
			{Name: "Description", Kind: KindString, Required: true},
			{Name: "Total", Kind: KindNumber, Required: true, Example: 125.50},
		},
	}
	MustRegister(r, Descriptor{
		Name: "testPayload",
		New:  func() any { return &payload{} },
		Fields: []Field{
			{Name: "InvoiceNumber", Kind: KindString, Required: true, Description: "invoice number", Example: "INV-2024-001"},
			{Name: "VATAmount", Kind: KindNumber, Required: true},
			{Name: "ItemCount", Kind: KindInteger},
			{Name: "Readable", Kind: KindBoolean, Required: true},
			{Name: "Tags", Kind: KindArray, Items: &Field{Kind: KindString}},
			{Name: "Items", Kind: KindArray, Required: true, Items: &Field{Kind: KindObject, Object: &items}},
			{Name: "Internal", Kind: KindString, Ignore: true},
		},
	})
	return r
}

func decodeSchema(t *testing.T, raw string) map[string]any {
	t.Helper()

	var schema map[string]any
	if err := json.Unmarshal([]byte(raw), &schema); err != nil {
		t.Fatalf("schema is not valid JSON: %v", err)
	}
	return schema
}

func TestGenerateSchemaShape(t *testing.T) {
	r := testRegistry(t)

	raw, err := r.GenerateSchema("testPayload")
	if err != nil {
		t.Fatalf("GenerateSchema: %v", err)
	}
	schema := decodeSchema(t, raw)

	if schema["type"] != "object" {
		t.Fatalf("expected type object, got %v", schema["type"])
	}
	if schema["additionalProperties"] != false {
		t.Fatalf("expected additionalProperties false")
	}

	props, ok := schema["properties"].(map[string]any)
	if !ok {
		t.Fatalf("missing properties map")
	}
	if _, ok := props["internal"]; ok {
		t.Fatalf("ignored field must not appear in schema")
	}
	if _, ok := props["vatAmount"]; !ok {
		t.Fatalf("expected initialism wire name vatAmount, got %v", props)
	}

	required := requiredSet(t, schema)
	for _, name := range []string{"invoiceNumber", "vatAmount", "readable", "items"} {
		if !required[name] {
			t.Fatalf("expected %s in required list", name)
		}
	}
	if required["itemCount"] {
		t.Fatalf("optional field itemCount must not be required")
	}

	items, ok := props["items"].(map[string]any)
	if !ok || items["type"] != "array" {
		t.Fatalf("expected items to be an array schema, got %v", props["items"])
	}
	elem, ok := items["items"].(map[string]any)
	if !ok || elem["type"] != "object" {
		t.Fatalf("expected recursive object items schema, got %v", items["items"])
	}
	if elem["additionalProperties"] != false {
		t.Fatalf("nested object schema must forbid extra fields")
	}
}

func TestGenerateExampleSatisfiesSchema(t *testing.T) {
	r := testRegistry(t)

	rawSchema, err := r.GenerateSchema("testPayload")
	if err != nil {
		t.Fatalf("GenerateSchema: %v", err)
	}
	rawExample, err := r.GenerateExample("testPayload")
	if err != nil {
		t.Fatalf("GenerateExample: %v", err)
	}

	var example map[string]any
	if err := json.Unmarshal([]byte(rawExample), &example); err != nil {
		t.Fatalf("example is not valid JSON: %v", err)
	}
	assertConforms(t, decodeSchema(t, rawSchema), example)

	if example["invoiceNumber"] != "INV-2024-001" {
		t.Fatalf("expected explicit example value, got %v", example["invoiceNumber"])
	}
}

func TestGenerateExampleOverride(t *testing.T) {
	r := testRegistry(t)

	override := json.RawMessage(`{"invoiceNumber":"OVR-1","vatAmount":21.0,"readable":true,"items":[]}`)
	if err := r.RegisterExample("testPayload", override); err != nil {
		t.Fatalf("RegisterExample: %v", err)
	}

	raw, err := r.GenerateExample("testPayload")
	if err != nil {
		t.Fatalf("GenerateExample: %v", err)
	}
	var example map[string]any
	if err := json.Unmarshal([]byte(raw), &example); err != nil {
		t.Fatalf("override example is not valid JSON: %v", err)
	}
	if example["invoiceNumber"] != "OVR-1" {
		t.Fatalf("expected override payload, got %v", example)
	}
}

func TestRegisterExampleRejectsInvalid(t *testing.T) {
	r := testRegistry(t)

	if err := r.RegisterExample("testPayload", json.RawMessage(`{not json`)); err == nil {
		t.Fatalf("expected invalid JSON override to fail")
	}
	if err := r.RegisterExample("missing", json.RawMessage(`{}`)); err == nil {
		t.Fatalf("expected override for unregistered contract to fail")
	}
}

func TestGenerateSchemaUnknownContract(t *testing.T) {
	r := NewRegistry()

	_, err := r.GenerateSchema("nope")
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
	if schemaErr.Contract != "nope" {
		t.Fatalf("expected error to name the contract, got %q", schemaErr.Contract)
	}
}

func TestRegisterRejectsMalformedDescriptors(t *testing.T) {
	r := NewRegistry()

	cases := []Descriptor{
		{New: func() any { return nil }, Fields: []Field{{Name: "A", Kind: KindString}}},
		{Name: "noNew", Fields: []Field{{Name: "A", Kind: KindString}}},
		{Name: "noFields", New: func() any { return nil }},
	}
	for _, d := range cases {
		if err := r.Register(d); err == nil {
			t.Fatalf("expected malformed descriptor %q to be rejected", d.Name)
		}
	}
}

func TestRegisterDuplicate(t *testing.T) {
	r := testRegistry(t)

	err := r.Register(Descriptor{
		Name:   "testPayload",
		New:    func() any { return nil },
		Fields: []Field{{Name: "A", Kind: KindString}},
	})
	if err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
}

func TestLowerCamel(t *testing.T) {
	cases := map[string]string{
		"InvoiceNumber": "invoiceNumber",
		"VATAmount":     "vatAmount",
		"IBAN":          "iban",
		"Total":         "total",
		"iban":          "iban",
	}
	for in, want := range cases {
		if got := lowerCamel(in); got != want {
			t.Fatalf("lowerCamel(%q) = %q, want %q", in, got, want)
		}
	}
}

func requiredSet(t *testing.T, schema map[string]any) map[string]bool {
	t.Helper()

	out := make(map[string]bool)
	raw, ok := schema["required"]
	if !ok {
		return out
	}
	list, ok := raw.([]any)
	if !ok {
		t.Fatalf("required is not a list: %v", raw)
	}
	for _, item := range list {
		out[item.(string)] = true
	}
	return out
}

// assertConforms checks an instance against the subset of JSON Schema the
// generator emits: object types, required lists, array items, primitives.
func assertConforms(t *testing.T, schema map[string]any, instance any) {
	t.Helper()

	switch schema["type"] {
	case "object":
		obj, ok := instance.(map[string]any)
		if !ok {
			t.Fatalf("expected object instance, got %T", instance)
		}
		for name := range requiredSet(t, schema) {
			value, ok := obj[name]
			if !ok || value == nil {
				t.Fatalf("required field %s missing or null in example", name)
			}
		}
		props, _ := schema["properties"].(map[string]any)
		for name, value := range obj {
			propSchema, ok := props[name].(map[string]any)
			if !ok {
				t.Fatalf("example field %s not present in schema properties", name)
			}
			assertConforms(t, propSchema, value)
		}
	case "array":
		list, ok := instance.([]any)
		if !ok {
			t.Fatalf("expected array instance, got %T", instance)
		}
		itemSchema, _ := schema["items"].(map[string]any)
		for _, item := range list {
			assertConforms(t, itemSchema, item)
		}
	case "string":
		if _, ok := instance.(string); !ok {
			t.Fatalf("expected string instance, got %T", instance)
		}
	case "boolean":
		if _, ok := instance.(bool); !ok {
			t.Fatalf("expected boolean instance, got %T", instance)
		}
	case "integer", "number":
		if _, ok := instance.(float64); !ok {
			t.Fatalf("expected numeric instance, got %T", instance)
		}
	default:
		t.Fatalf("unexpected schema type %v", schema["type"])
	}
}
