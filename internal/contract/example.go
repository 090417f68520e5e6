package contract

import "encoding/json"

// Canned values used when a field carries no explicit example.
var cannedExamples = map[Kind]any{
	KindString:  "example",
	KindInteger: 1,
	KindNumber:  9.99,
	KindBoolean: true,
}

// GenerateExample renders a JSON document satisfying the contract's schema.
// An explicit override registered via RegisterExample wins over the generic
// traversal; otherwise per-field example metadata wins over canned values.
func (r *Registry) GenerateExample(name string) (string, error) {
	if payload, ok := r.exampleOverride(name); ok {
		var buf any
		if err := json.Unmarshal(payload, &buf); err != nil {
			return "", schemaErrf(name, "example override unmarshal: %v", err)
		}
		out, err := json.MarshalIndent(buf, "", "  ")
		if err != nil {
			return "", schemaErrf(name, "example override marshal: %v", err)
		}
		return string(out), nil
	}

	d, ok := r.Lookup(name)
	if !ok {
		return "", schemaErrf(name, "unknown contract")
	}
	example, err := objectExample(d)
	if err != nil {
		return "", err
	}
	out, err := json.MarshalIndent(example, "", "  ")
	if err != nil {
		return "", schemaErrf(name, "marshal example: %v", err)
	}
	return string(out), nil
}

func objectExample(d Descriptor) (map[string]any, error) {
	example := make(map[string]any)
	for _, f := range d.Fields {
		if f.Ignore {
			continue
		}
		value, err := fieldExample(d.Name, f)
		if err != nil {
			return nil, err
		}
		example[f.wireName()] = value
	}
	return example, nil
}

func fieldExample(contract string, f Field) (any, error) {
	if f.Example != nil {
		return f.Example, nil
	}
	switch f.Kind {
	case KindString, KindInteger, KindNumber, KindBoolean:
		return cannedExamples[f.Kind], nil
	case KindArray:
		if f.Items == nil {
			return nil, schemaErrf(contract, "array field %q has no items descriptor", f.Name)
		}
		elem, err := fieldExample(contract, *f.Items)
		if err != nil {
			return nil, err
		}
		return []any{elem}, nil
	case KindObject:
		if f.Object == nil {
			return nil, schemaErrf(contract, "object field %q has no nested descriptor", f.Name)
		}
		return objectExample(*f.Object)
	default:
		return nil, schemaErrf(contract, "field %q has unknown kind %q", f.Name, f.Kind)
	}
}
