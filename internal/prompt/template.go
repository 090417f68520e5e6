// Package prompt loads named prompt templates from disk and assembles the
// final prompt text sent to the AI backend.
package prompt

// Template is a parsed prompt template document.
type Template struct {
	Metadata TemplateMetadata `yaml:"metadata"`
	Body     TemplateBody     `yaml:"template"`
	Examples []TemplateExample `yaml:"examples"`

	// Path records which file the template came from, for duplicate logging.
	Path string `yaml:"-"`
}

// TemplateMetadata identifies a template. Name is the lookup key.
type TemplateMetadata struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// TemplateBody is the prompt content: a role, a task and ordered instructions.
type TemplateBody struct {
	Role         string   `yaml:"role"`
	Task         string   `yaml:"task"`
	Instructions []string `yaml:"instructions"`
}

// TemplateExample is an optional input/output pair for template authors.
type TemplateExample struct {
	Input  string `yaml:"input"`
	Output string `yaml:"output"`
}
