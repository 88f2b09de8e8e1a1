package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zulandar/quire/internal/chat"
	"github.com/zulandar/quire/internal/completion"
	"github.com/zulandar/quire/internal/store"
)

// sendMessageRequest is the body of POST /api/message.
type sendMessageRequest struct {
	DocumentID string `json:"documentId"`
	Message    string `json:"message"`
	Stream     *bool  `json:"stream"`
}

// streamFragment is one SSE data frame of a streamed reply.
type streamFragment struct {
	Content string `json:"content"`
}

// handleSendMessage runs one chat turn against a document. Plain requests
// get the full reply as a text body; streaming requests get an SSE relay
// of fragments terminated by a [DONE] frame.
func handleSendMessage(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req sendMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		stream := deps.StreamByDefault
		if req.Stream != nil {
			stream = *req.Stream
		}

		turn := chat.TurnRequest{
			UserID:     currentUser(c),
			DocumentID: req.DocumentID,
			Message:    req.Message,
			Stream:     stream,
		}

		if !stream {
			result, err := deps.Orchestrator.Run(c.Request.Context(), turn, nil)
			if err != nil {
				status, msg := turnErrorStatus(err)
				c.JSON(status, gin.H{"error": msg})
				return
			}
			c.String(http.StatusOK, result.Reply)
			return
		}

		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")

		// Once the first fragment is on the wire the response status is
		// fixed; later failures surface as an unterminated stream.
		started := false
		onFragment := func(text string) error {
			if err := writeSSE(c.Writer, streamFragment{Content: text}); err != nil {
				return err
			}
			started = true
			c.Writer.Flush()
			return nil
		}

		_, err := deps.Orchestrator.Run(c.Request.Context(), turn, onFragment)
		if err != nil {
			if !started {
				status, msg := turnErrorStatus(err)
				c.JSON(status, gin.H{"error": msg})
				return
			}
			// The stream ends without [DONE]; clients treat that as failure.
			log.Printf("server: stream aborted mid-reply: %v", err)
			return
		}

		fmt.Fprint(c.Writer, "data: [DONE]\n\n")
		c.Writer.Flush()
	}
}

// writeSSE writes one data frame to the stream.
func writeSSE(w http.ResponseWriter, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", payload)
	return err
}

// turnErrorStatus maps a turn error onto an HTTP status and a safe
// client-facing message.
func turnErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, chat.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "document not found"
	case errors.Is(err, completion.ErrUpstream), errors.Is(err, completion.ErrProtocol):
		return http.StatusBadGateway, "completion backend failed"
	default:
		// chat.ErrExtraction, chat.ErrStorage and anything unexpected.
		return http.StatusInternalServerError, "internal error"
	}
}
