package catalog

// Model describes one selectable chat model: the alias clients send as
// selectedChatModel, the Bedrock model it resolves to, and display metadata.
type Model struct {
	// Alias is the map key from the YAML file, set at load time.
	Alias string `yaml:"-" json:"alias"`

	BedrockID   string `yaml:"bedrock_id" json:"bedrock_id"`
	DisplayName string `yaml:"display_name" json:"display_name"`
	Description string `yaml:"description" json:"description"`

	// MaxTokens caps the reply length for this model. 0 means use the
	// service default.
	MaxTokens int `yaml:"max_tokens" json:"max_tokens,omitempty"`
}

// modelFile is the on-disk shape of a catalog YAML file.
type modelFile struct {
	Models map[string]*Model `yaml:"models"`
}
