package services

import "github.com/markdave123-py/botgpt/internal/models"

const (
	openChatPrompt = "You are BOT GPT, a helpful and knowledgeable AI assistant. " +
		"Provide clear, accurate, and helpful responses to the user's questions."

	groundedPrompt = "You are BOT GPT, a helpful AI assistant. You are having a conversation that is grounded in specific documents.\n\n" +
		"Use the context from the documents that follows to answer the user's questions. " +
		"If the answer cannot be found in the context, say so clearly."
)

// systemMessages returns the system-level messages for a turn. Grounded
// conversations get the retrieved context as a second system message; with
// no context they fall back to the open chat persona.
func systemMessages(mode models.Mode, contextBlock string) []models.ChatMessage {
	if mode == models.ModeGroundedRAG && contextBlock != "" {
		return []models.ChatMessage{
			{Role: models.RoleSystem, Content: groundedPrompt},
			{Role: models.RoleSystem, Content: "Context:\n" + contextBlock},
		}
	}
	return []models.ChatMessage{{Role: models.RoleSystem, Content: openChatPrompt}}
}
