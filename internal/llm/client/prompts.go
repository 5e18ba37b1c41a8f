package client

import (
	"fmt"

	"codedoc/internal/models"
)

const systemPrompt = "You are a technical writer generating concise, accurate documentation for source code. Respond with the documentation text only."

// buildPrompt renders the request into the provider-facing prompt text.
// The enhancer already sanitized the context; the generator sanitizes the
// whole prompt again before egress.
func buildPrompt(req models.GenerationRequest) string {
	switch req.Kind {
	case models.RequestKindFunction:
		return fmt.Sprintf(`Write a Python docstring for this function:

%s
Write a clear, concise docstring following Google style. Focus on what the function does.`, req.PromptContext)
	case models.RequestKindClass:
		return fmt.Sprintf(`Write a Python class docstring:

%s
Write a clear, concise docstring explaining the class purpose and main methods.`, req.PromptContext)
	case models.RequestKindReadme:
		return fmt.Sprintf(`Write a simple README for a Python project.

%s
Write 2-3 sentences describing what this project does. Be clear and professional.`, req.PromptContext)
	default:
		return req.PromptContext
	}
}
