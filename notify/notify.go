// Package notify posts a JSON event to a webhook (e.g. an IFTTT Maker Webhooks applet) for each newly
// created post.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/context/ctxhttp"
)

var ErrHTTPStatus = errors.New("unexpected HTTP status")

// Event is the IFTTT Maker Webhooks payload.
type Event struct {
	Value1 string `json:"value1"`
	Value2 string `json:"value2"`
	Value3 string `json:"value3"`
}

type Webhook struct {
	url    string
	client *http.Client
}

// NewWebhook returns a Webhook for the URL. A nil client uses an HTTP client with the given timeout.
func NewWebhook(url string, client *http.Client, timeout time.Duration) *Webhook {
	if client == nil {
		client = &http.Client{
			Timeout: timeout,
		}
	}

	return &Webhook{
		url:    url,
		client: client,
	}
}

func (w *Webhook) Notify(ctx context.Context, event Event) error {
	var b bytes.Buffer

	encoder := json.NewEncoder(&b)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(event); err != nil {
		return err
	}

	rq, err := http.NewRequest(http.MethodPost, w.url, bytes.NewReader(bytes.TrimSpace(b.Bytes())))
	if err != nil {
		return err
	}

	rq.Header.Set("Content-Type", "application/json")

	response, err := ctxhttp.Do(ctx, w.client, rq)
	if err != nil {
		return err
	}

	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(response.Body, 256))

		return fmt.Errorf("%w %v (%v)", ErrHTTPStatus, response.StatusCode, strings.TrimSpace(string(body)))
	}

	io.Copy(io.Discard, response.Body)

	return nil
}
