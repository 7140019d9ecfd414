// Package graph is a thin client for the advertising platform's REST API.
package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/HyphaGroup/adgate/internal/metrics"
)

// maxResponseBytes caps how much of an upstream body is read.
const maxResponseBytes = 16 << 20

// Request is one upstream call. Params go in the query string for GET and
// DELETE and in a form body for POST. Non-string values are JSON encoded,
// which is how the platform expects nested fields such as targeting.
type Request struct {
	Method string
	Path   string
	Token  string
	Params map[string]any
}

// Caller performs upstream requests. A response that carries an "error"
// object, or a non-2xx status, is returned as *APIError.
type Caller interface {
	Call(ctx context.Context, req Request) (map[string]any, error)
}

// APIError is a structured rejection returned by the upstream platform.
type APIError struct {
	Status    int    `json:"-"`
	Message   string `json:"message"`
	Type      string `json:"type,omitempty"`
	Code      int    `json:"code,omitempty"`
	Subcode   int    `json:"error_subcode,omitempty"`
	FBTraceID string `json:"fbtrace_id,omitempty"`
}

func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s (code %d)", e.Message, e.Code)
	}
	return e.Message
}

// IsAPIError reports whether err came back from the upstream platform as a
// structured rejection, as opposed to a transport failure.
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}

// Client talks to the upstream API over HTTP
type Client struct {
	baseURL    string
	version    string
	httpClient *http.Client
}

// NewClient creates a client for baseURL/version. A zero timeout leaves
// requests without a client-side deadline.
func NewClient(baseURL, version string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		version:    strings.Trim(version, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) endpoint(path string) string {
	path = strings.TrimLeft(path, "/")
	if c.version == "" {
		return c.baseURL + "/" + path
	}
	return c.baseURL + "/" + c.version + "/" + path
}

// Call performs req and decodes the JSON response
func (c *Client) Call(ctx context.Context, req Request) (map[string]any, error) {
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}

	values, err := encodeParams(req.Params)
	if err != nil {
		return nil, err
	}

	target := c.endpoint(req.Path)
	var body io.Reader
	if method == http.MethodPost {
		body = strings.NewReader(values.Encode())
	} else if len(values) > 0 {
		target += "?" + values.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("building upstream request: %w", err)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.Token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		metrics.RecordUpstreamCall(method, "error")
		return nil, fmt.Errorf("upstream %s %s: %w", method, req.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()
	metrics.RecordUpstreamCall(method, strconv.Itoa(resp.StatusCode))

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading upstream response: %w", err)
	}

	return decodeResponse(resp.StatusCode, raw)
}

func encodeParams(params map[string]any) (url.Values, error) {
	values := url.Values{}
	for key, v := range params {
		switch val := v.(type) {
		case nil:
			continue
		case string:
			values.Set(key, val)
		case bool:
			values.Set(key, strconv.FormatBool(val))
		case int:
			values.Set(key, strconv.Itoa(val))
		case float64:
			values.Set(key, strconv.FormatFloat(val, 'f', -1, 64))
		default:
			encoded, err := json.Marshal(val)
			if err != nil {
				return nil, fmt.Errorf("encoding parameter %s: %w", key, err)
			}
			values.Set(key, string(encoded))
		}
	}
	return values, nil
}

func decodeResponse(status int, raw []byte) (map[string]any, error) {
	var decoded any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			if status >= 400 {
				return nil, &APIError{Status: status, Message: http.StatusText(status)}
			}
			return nil, fmt.Errorf("decoding upstream response: %w", err)
		}
	}

	body, ok := decoded.(map[string]any)
	if !ok {
		// DELETE and some edges answer with a bare true or a list.
		body = map[string]any{"result": decoded}
	}

	if errObj, ok := body["error"].(map[string]any); ok {
		return nil, parseAPIError(status, errObj)
	}
	if status >= 400 {
		return nil, &APIError{Status: status, Message: http.StatusText(status)}
	}
	return body, nil
}

func parseAPIError(status int, obj map[string]any) *APIError {
	apiErr := &APIError{Status: status}
	apiErr.Message, _ = obj["message"].(string)
	apiErr.Type, _ = obj["type"].(string)
	apiErr.FBTraceID, _ = obj["fbtrace_id"].(string)
	if code, ok := obj["code"].(float64); ok {
		apiErr.Code = int(code)
	}
	if sub, ok := obj["error_subcode"].(float64); ok {
		apiErr.Subcode = int(sub)
	}
	if apiErr.Message == "" {
		apiErr.Message = "upstream error"
	}
	return apiErr
}
