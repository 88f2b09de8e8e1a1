package completion

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"
)

// streamChunk is one decoded SSE frame of a streaming response.
type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// Stream issues a streaming completion call. Each content fragment is
// forwarded to onFragment as it arrives and accumulated; the full text is
// returned at stream end. Retries apply only until the first byte of the
// stream; a transport error mid-stream is terminal. A stream that ends
// without the [DONE] sentinel is treated as a transport failure.
func (c *Client) Stream(ctx context.Context, messages []Message, opts Options, onFragment func(string) error) (string, error) {
	resp, err := c.post(ctx, messages, opts, true)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var acc strings.Builder
	reader := bufio.NewReader(resp.Body)
	done := false

	for !done {
		select {
		case <-ctx.Done():
			return acc.String(), fmt.Errorf("%w: %v", ErrUpstream, ctx.Err())
		default:
		}

		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				// Upstream closed without the end-of-stream sentinel.
				return acc.String(), fmt.Errorf("%w: stream ended without [DONE]", ErrUpstream)
			}
			return acc.String(), fmt.Errorf("%w: read stream: %v", ErrUpstream, err)
		}

		line = strings.TrimSpace(line)
		if line == "" || !strings.HasPrefix(line, "data: ") {
			continue
		}

		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			done = true
			continue
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			// One bad frame must not lose the rest of the reply.
			log.Printf("completion: skipping malformed stream frame: %v", err)
			continue
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		fragment := chunk.Choices[0].Delta.Content
		if fragment == "" {
			continue
		}

		acc.WriteString(fragment)
		if onFragment != nil {
			if err := onFragment(fragment); err != nil {
				return acc.String(), fmt.Errorf("completion: forward fragment: %w", err)
			}
		}
	}

	return acc.String(), nil
}
