package contract

import "encoding/json"

// GenerateSchema renders a draft-07 compatible JSON Schema for a contract.
// The backend must not invent fields, so additionalProperties is always false.
func (r *Registry) GenerateSchema(name string) (string, error) {
	d, ok := r.Lookup(name)
	if !ok {
		return "", schemaErrf(name, "unknown contract")
	}
	schema, err := objectSchema(d)
	if err != nil {
		return "", err
	}
	out, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", schemaErrf(name, "marshal schema: %v", err)
	}
	return string(out), nil
}

func objectSchema(d Descriptor) (map[string]any, error) {
	properties := make(map[string]any)
	var required []string

	for _, f := range d.Fields {
		if f.Ignore {
			continue
		}
		prop, err := fieldSchema(d.Name, f)
		if err != nil {
			return nil, err
		}
		properties[f.wireName()] = prop
		if f.Required {
			required = append(required, f.wireName())
		}
	}

	schema := map[string]any{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema, nil
}

func fieldSchema(contract string, f Field) (map[string]any, error) {
	switch f.Kind {
	case KindString, KindInteger, KindNumber, KindBoolean:
		prop := map[string]any{"type": string(f.Kind)}
		if f.Description != "" {
			prop["description"] = f.Description
		}
		return prop, nil
	case KindArray:
		if f.Items == nil {
			return nil, schemaErrf(contract, "array field %q has no items descriptor", f.Name)
		}
		items, err := fieldSchema(contract, *f.Items)
		if err != nil {
			return nil, err
		}
		prop := map[string]any{
			"type":  "array",
			"items": items,
		}
		if f.Description != "" {
			prop["description"] = f.Description
		}
		return prop, nil
	case KindObject:
		if f.Object == nil {
			return nil, schemaErrf(contract, "object field %q has no nested descriptor", f.Name)
		}
		nested, err := objectSchema(*f.Object)
		if err != nil {
			return nil, err
		}
		if f.Description != "" {
			nested["description"] = f.Description
		}
		return nested, nil
	default:
		return nil, schemaErrf(contract, "field %q has unknown kind %q", f.Name, f.Kind)
	}
}
