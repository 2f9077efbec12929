package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"
)

// errorResponse is the document the node answers with on failure.
type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// StatusError is returned when the node answers with an error status.
type StatusError struct {
	Status int
	Msg    string
}

// Error implements the error interface.
func (se *StatusError) Error() string {
	return fmt.Sprintf("node answered %d: %s", se.Status, se.Msg)
}

// client talks to the public api of a node.
type client struct {
	url  string
	http *http.Client
}

func newClient(url string) *client {
	return &client{
		url:  strings.TrimSuffix(url, "/"),
		http: &http.Client{Timeout: 10 * time.Minute},
	}
}

// do sends the request and decodes a successful answer into dataRecv. The
// status code is returned along with the decoded error document when the
// node reports a failure.
func (c *client) do(method string, path string, dataSend any, dataRecv any) (int, error) {
	var body io.Reader
	if dataSend != nil {
		data, err := json.Marshal(dataSend)
		if err != nil {
			return 0, err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.url+path, body)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return resp.StatusCode, statusError(resp)
	}

	if dataRecv != nil {
		if err := json.NewDecoder(resp.Body).Decode(dataRecv); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}

	return resp.StatusCode, nil
}

func (c *client) get(path string, dataRecv any) error {
	_, err := c.do(http.MethodGet, path, nil, dataRecv)
	return err
}

func (c *client) post(path string, dataSend any, dataRecv any) (int, error) {
	return c.do(http.MethodPost, path, dataSend, dataRecv)
}

func (c *client) delete(path string, dataRecv any) error {
	_, err := c.do(http.MethodDelete, path, nil, dataRecv)
	return err
}

// statusError builds the error for a failed call from the error document
// or, when there is none, from the raw body.
func statusError(resp *http.Response) error {
	data, err := io.ReadAll(resp.Body)
	if err != nil || len(bytes.TrimSpace(data)) == 0 {
		return &StatusError{Status: resp.StatusCode, Msg: http.StatusText(resp.StatusCode)}
	}

	var er errorResponse
	if err := json.Unmarshal(data, &er); err != nil || er.Error == "" {
		return &StatusError{Status: resp.StatusCode, Msg: strings.TrimSpace(string(data))}
	}

	fields := make([]string, 0, len(er.Fields))
	for field, fe := range er.Fields {
		fields = append(fields, fmt.Sprintf("%s: %s", field, fe))
	}
	sort.Strings(fields)

	msg := er.Error
	if len(fields) > 0 {
		msg += " (" + strings.Join(fields, ", ") + ")"
	}

	return &StatusError{Status: resp.StatusCode, Msg: msg}
}
