package prompt

// Config is a prompt definition, read from the YAML frontmatter of a
// markdown file. The markdown body becomes SystemTemplate when the
// frontmatter does not set one.
type Config struct {
	Slug           string         `yaml:"slug" json:"slug"`
	Name           string         `yaml:"name,omitempty" json:"name,omitempty"`
	Description    string         `yaml:"description,omitempty" json:"description,omitempty"`
	Version        string         `yaml:"version,omitempty" json:"version,omitempty"`
	Input          InputSpec      `yaml:"input,omitempty" json:"input,omitempty"`
	SystemTemplate string         `yaml:"system_template,omitempty" json:"system_template,omitempty"`
	UserTemplate   string         `yaml:"user_template,omitempty" json:"user_template,omitempty"`
	ResponseSchema map[string]any `yaml:"response_schema,omitempty" json:"response_schema,omitempty"`
	ProviderHints  ProviderHints  `yaml:"provider_hints,omitempty" json:"provider_hints,omitempty"`
}

// InputSpec lists the template variables a prompt consumes.
type InputSpec struct {
	RequiredVariables []string `yaml:"required_variables,omitempty" json:"required_variables,omitempty"`
	OptionalVariables []string `yaml:"optional_variables,omitempty" json:"optional_variables,omitempty"`
}

// ProviderHints are suggestions the provider registry may honor.
type ProviderHints struct {
	PreferredModels []string `yaml:"preferred_models,omitempty" json:"preferred_models,omitempty"`
	Temperature     *float64 `yaml:"temperature,omitempty" json:"temperature,omitempty"`
	MaxTokens       *int     `yaml:"max_tokens,omitempty" json:"max_tokens,omitempty"`
}

// Prompt wraps a validated prompt configuration with its source.
type Prompt struct {
	Config Config
	Source string
}

// SchemaRef returns the response schema reference, if the prompt declares
// its response schema as {"$ref": "..."}.
func (p *Prompt) SchemaRef() string {
	if p == nil {
		return ""
	}
	ref, _ := p.Config.ResponseSchema["$ref"].(string)
	return ref
}
