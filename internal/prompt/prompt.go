// Package prompt assembles the context window sent to the completion
// provider: a fixed system instruction, the document excerpt with recent
// conversation history, and the new user turn. Pure functions only, so the
// assembly is testable without network or database fixtures.
package prompt

import (
	"fmt"
	"strings"

	"github.com/zulandar/quire/internal/completion"
	"github.com/zulandar/quire/internal/models"
)

// SystemInstruction is the fixed system turn for every request.
const SystemInstruction = "You are a helpful assistant that answers questions based on provided PDF content."

// Build produces the ordered role-tagged prompt for one turn. prior must be
// oldest first. An empty excerpt degrades gracefully to a history-only
// context block.
func Build(excerpt string, prior []models.Message, newUserText string) []completion.Message {
	msgs := make([]completion.Message, 0, 3)
	msgs = append(msgs, completion.Message{Role: completion.RoleSystem, Content: SystemInstruction})
	if block := contextBlock(excerpt, prior); block != "" {
		msgs = append(msgs, completion.Message{Role: completion.RoleUser, Content: block})
	}
	msgs = append(msgs, completion.Message{Role: completion.RoleUser, Content: newUserText})
	return msgs
}

// contextBlock renders the excerpt and prior turns into a single block.
func contextBlock(excerpt string, prior []models.Message) string {
	var parts []string
	if excerpt != "" {
		parts = append(parts, fmt.Sprintf("The following content is from a PDF:\n\n%s", excerpt))
	}
	if len(prior) > 0 {
		parts = append(parts, "Previous interactions:\n\n"+renderHistory(prior))
	}
	return strings.Join(parts, "\n\n")
}

// renderHistory formats prior messages as alternating speaker turns.
func renderHistory(prior []models.Message) string {
	turns := make([]string, len(prior))
	for i, msg := range prior {
		speaker := "Assistant"
		if msg.IsUserMessage {
			speaker = "User"
		}
		turns[i] = fmt.Sprintf("%s: %s", speaker, msg.Text)
	}
	return strings.Join(turns, "\n\n")
}
