package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

const sseKeepAlive = 15 * time.Second

// writeEvent writes one Server-Sent Events frame.
func writeEvent(w io.Writer, event string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
	return err
}

func sseHeaders(c *fiber.Ctx) {
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")
}

// stream pumps frames to the client until frames closes, emit reports it is
// done, or the client goes away. cancel is always called on exit.
func stream[T any](c *fiber.Ctx, cancel context.CancelFunc, frames <-chan T, emit func(w *bufio.Writer, frame T) (bool, error)) {
	sseHeaders(c)
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer cancel()
		ticker := time.NewTicker(sseKeepAlive)
		defer ticker.Stop()

		for {
			select {
			case frame, ok := <-frames:
				if !ok {
					return
				}
				done, err := emit(w, frame)
				if err != nil {
					return
				}
				if err := w.Flush(); err != nil || done {
					return
				}
			case <-ticker.C:
				if _, err := w.WriteString(": keep-alive\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	}))
}
