package driven

// PromptStore provides access to prompt templates.
// Implementations may load prompts from files, embed them in the binary,
// or fetch them from a remote configuration service.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names.
const (
	// PromptGroundedAnswer builds the grounded question prompt.
	// The template expects two %s placeholders: context block, then question.
	PromptGroundedAnswer = "grounded_answer"

	// PromptGroundedSystem is the system instruction for grounded answers.
	// This prompt has no format placeholders.
	PromptGroundedSystem = "grounded_system"

	// PromptSummarizeStyle is the default summarisation instruction.
	// This prompt has no format placeholders.
	PromptSummarizeStyle = "summarize_style"
)
