package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zulandar/quire/internal/models"
)

// messageView is the API shape of a transcript message.
type messageView struct {
	ID            string    `json:"id"`
	Text          string    `json:"text"`
	IsUserMessage bool      `json:"isUserMessage"`
	CreatedAt     time.Time `json:"createdAt"`
}

// handleTranscript returns the full conversation for a document, oldest
// first.
func handleTranscript(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		doc, ok := ownedDocument(c, deps)
		if !ok {
			return
		}
		msgs, err := deps.Store.Transcript(doc.ID, currentUser(c))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		views := make([]messageView, 0, len(msgs))
		for _, m := range msgs {
			views = append(views, messageView{
				ID:            m.ID,
				Text:          m.Text,
				IsUserMessage: m.IsUserMessage,
				CreatedAt:     m.CreatedAt,
			})
		}
		c.JSON(http.StatusOK, views)
	}
}

// handleExport downloads the conversation as a markdown transcript.
func handleExport(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		doc, ok := ownedDocument(c, deps)
		if !ok {
			return
		}
		msgs, err := deps.Store.Transcript(doc.ID, currentUser(c))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		body := renderTranscript(doc, msgs)
		filename := fmt.Sprintf("chat-%s.md", sanitizeFilename(doc.Name))
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(body))
	}
}

// renderTranscript formats a conversation as markdown.
func renderTranscript(doc *models.Document, msgs []models.Message) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Chat with %s\n\n", doc.Name)
	for _, m := range msgs {
		label := "Assistant"
		if m.IsUserMessage {
			label = "You"
		}
		fmt.Fprintf(&b, "**%s:** %s\n\n", label, m.Text)
	}
	return b.String()
}

// sanitizeFilename strips characters that break a Content-Disposition
// filename.
func sanitizeFilename(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', '"', '\n', '\r':
			return '-'
		}
		return r
	}, name)
}
