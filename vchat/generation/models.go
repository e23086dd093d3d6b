package generation

// Default endpoints and models, taken from the chat pages this client replaces.
const (
	DefaultHostedEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash:generateContent"
	DefaultChatBaseURL    = "https://openrouter.ai/api/v1/"
	DefaultChatModel      = "meta-llama/llama-3-8b-instruct"
	DefaultLocalServerURL = "http://localhost:8080/v1/"

	DefaultTemperature    = 0.7
	DefaultMaxTokens      = 300
	DefaultModelRole      = "model"
	DefaultContextTurns   = 6
	DefaultUserLabel      = "User"
	DefaultAssistantLabel = "Bot"
)

// DefaultParams returns backend-appropriate defaults.
func DefaultParams(kind Kind) Params {
	p := Params{
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
	}

	switch kind {
	case KindHosted:
		p.ModelRole = DefaultModelRole
	case KindChat:
		p.Model = DefaultChatModel
	case KindLocal:
		p.ContextTurns = DefaultContextTurns
		p.UserLabel = DefaultUserLabel
		p.AssistantLabel = DefaultAssistantLabel
	}

	return p
}
