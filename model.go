package claudepipe

// Model names a Claude model. The well-known aliases map to full model
// names; any other value is passed through to the CLI unchanged.
type Model string

const (
	ModelSonnet Model = "claude-sonnet-4-5-20250929"
	ModelOpus   Model = "claude-opus-4-5-20250929"
	ModelHaiku  Model = "claude-haiku-4-5-20251001"
)

// ParseModel resolves a short alias to its full model name. Unknown
// values are kept as-is.
func ParseModel(s string) Model {
	switch s {
	case "sonnet", "sonnet-4-5", string(ModelSonnet):
		return ModelSonnet
	case "opus", "opus-4-5", string(ModelOpus):
		return ModelOpus
	case "haiku", "haiku-4-5", string(ModelHaiku):
		return ModelHaiku
	default:
		return Model(s)
	}
}

func (m Model) String() string {
	return string(m)
}
