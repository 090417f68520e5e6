package prompt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rvdzwet/invoice-validator-sub003/internal/contract"
)

// ErrTemplateNotFound reports a prompt name absent from the store. This is a
// configuration problem, not a transient one.
var ErrTemplateNotFound = errors.New("prompt template not found")

// Builder assembles the final prompt text from a template and the schema and
// example generated for a response contract.
type Builder struct {
	store    *Store
	registry *contract.Registry
}

// NewBuilder wires a builder over the template store and contract registry.
func NewBuilder(store *Store, registry *contract.Registry) *Builder {
	return &Builder{store: store, registry: registry}
}

// Build renders the prompt for templateName steering the model toward a JSON
// response matching contractName's schema. vars are substituted at {{key}}
// placeholders in the role, task and instruction lines.
//
// The assembly order is deliberate: role, task, instructions, the JSON
// directive, the schema, then the example. Instructions before constraints
// before schema before example steers free-text generation most reliably.
func (b *Builder) Build(templateName, contractName string, vars map[string]string) (string, error) {
	tpl, ok := b.store.Get(templateName)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, templateName)
	}

	schema, err := b.registry.GenerateSchema(contractName)
	if err != nil {
		// Schema failures indicate a contract bug; propagate as-is.
		return "", err
	}
	example, err := b.registry.GenerateExample(contractName)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	if tpl.Body.Role != "" {
		sb.WriteString(substitute(tpl.Body.Role, vars))
		sb.WriteString("\n\n")
	}
	if tpl.Body.Task != "" {
		sb.WriteString(substitute(tpl.Body.Task, vars))
		sb.WriteString("\n\n")
	}
	for i, instruction := range tpl.Body.Instructions {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, substitute(instruction, vars)))
	}
	if len(tpl.Body.Instructions) > 0 {
		sb.WriteString("\n")
	}

	sb.WriteString("Your response MUST be valid JSON matching the following schema. ")
	sb.WriteString("Do not add fields that are not in the schema and do not wrap the JSON in markdown.\n\n")
	sb.WriteString("```json\n")
	sb.WriteString(schema)
	sb.WriteString("\n```\n\n")
	sb.WriteString("Example response:\n\n")
	sb.WriteString("```json\n")
	sb.WriteString(example)
	sb.WriteString("\n```\n")

	return sb.String(), nil
}

func substitute(line string, vars map[string]string) string {
	if len(vars) == 0 || !strings.Contains(line, "{{") {
		return line
	}
	for key, value := range vars {
		line = strings.ReplaceAll(line, "{{"+key+"}}", value)
	}
	return line
}
