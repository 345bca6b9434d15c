package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Response is a decoded service response.
type Response struct {
	StatusCode int
	// Body is the decoded JSON object, empty when the body was empty or not
	// an object.
	Body map[string]interface{}
	// Raw is the undecoded body.
	Raw []byte
}

// MissingKeyError reports a response that lacks an expected key.
type MissingKeyError struct {
	Key string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("Key %q not found in the response.", e.Key)
}

func decodeResponse(status int, raw []byte) (*Response, error) {
	resp := &Response{
		StatusCode: status,
		Body:       map[string]interface{}{},
		Raw:        raw,
	}

	if len(strings.TrimSpace(string(raw))) == 0 {
		return resp, nil
	}

	var decoded interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		if resp.OK() {
			return nil, fmt.Errorf("%w: %s", ErrInvalidResponse, truncate(string(raw), 200))
		}
		// Error pages are often HTML; the raw text still explains the failure.
		return resp, nil
	}
	if obj, ok := decoded.(map[string]interface{}); ok {
		resp.Body = obj
	}
	return resp, nil
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= http.StatusOK && r.StatusCode < http.StatusMultipleChoices
}

// ErrorMessage returns error.message from the body, falling back to the raw
// body text.
func (r *Response) ErrorMessage() string {
	if errObj, ok := r.Body["error"].(map[string]interface{}); ok {
		if msg, ok := errObj["message"].(string); ok {
			return msg
		}
	}
	return strings.TrimSpace(string(r.Raw))
}

// String returns the string value stored under key.
func (r *Response) String(key string) (string, error) {
	v, ok := r.Body[key]
	if !ok {
		return "", &MissingKeyError{Key: key}
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("key %q has unexpected type %T", key, v)
	}
	return s, nil
}

// List returns the list stored under key. A missing key yields an empty list
// because the service omits empty collections.
func (r *Response) List(key string) ([]map[string]interface{}, error) {
	v, ok := r.Body[key]
	if !ok {
		return nil, nil
	}
	items, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("key %q has unexpected type %T", key, v)
	}
	out := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("key %q contains a non-object entry", key)
		}
		out = append(out, obj)
	}
	return out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
