package authclient

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/bytedance/sonic"
)

const maxErrorBody = 64 << 10

// jsonClient wraps http.Client with helpers for JSON requests.
type jsonClient struct {
	baseURL string
	http    *http.Client
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// postJSON sends body to path and decodes a 2xx response into out.
// Every failure comes back as a *RemoteError.
func (c *jsonClient) postJSON(ctx context.Context, path string, body, out any) error {
	buf := new(bytes.Buffer)
	if err := sonic.ConfigStd.NewEncoder(buf).Encode(body); err != nil {
		return &RemoteError{Message: "encode request: " + err.Error(), Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, buf)
	if err != nil {
		return &RemoteError{Message: err.Error(), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &RemoteError{Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb errorBody
		_ = sonic.ConfigStd.NewDecoder(io.LimitReader(resp.Body, maxErrorBody)).Decode(&eb)
		return remoteErrorFromBody(resp.StatusCode, eb)
	}
	if out == nil {
		return nil
	}
	if err := sonic.ConfigStd.NewDecoder(resp.Body).Decode(out); err != nil {
		return &RemoteError{Status: resp.StatusCode, Message: "invalid response body", Err: err}
	}
	return nil
}
