package realtime

import (
	"context"
	"fmt"
	"io"
	"time"
)

// WriteStream writes c's messages to w in text/event-stream framing until ctx
// ends or the hub disconnects the client. A comment line is written every
// heartbeat to keep proxies from closing idle connections.
func WriteStream(ctx context.Context, w io.Writer, flush func(), c *Client, heartbeat time.Duration) error {
	if _, err := fmt.Fprintf(w, "event: connected\ndata: {\"clientId\":%q}\n\n", c.ID); err != nil {
		return err
	}
	flush()

	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.Done:
			return nil
		case <-ticker.C:
			if _, err := io.WriteString(w, ": ping\n\n"); err != nil {
				return err
			}
			flush()
		case msg := <-c.Outbound:
			if err := writeMessage(w, msg); err != nil {
				return err
			}
			flush()
		}
	}
}

func writeMessage(w io.Writer, msg Message) error {
	if msg.Event != "" {
		if _, err := fmt.Fprintf(w, "event: %s\n", msg.Event); err != nil {
			return err
		}
	}
	if msg.ID != "" {
		if _, err := fmt.Fprintf(w, "id: %s\n", msg.ID); err != nil {
			return err
		}
	}
	data := msg.Data
	if len(data) == 0 {
		data = []byte("{}")
	}
	_, err := fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}
