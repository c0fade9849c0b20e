package tests

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/nimeshabuddhika/account-service-go/pkg"
	"github.com/nimeshabuddhika/account-service-go/pkg/views"
)

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
}

// DoRequest sends a JSON request and schedules the response body for cleanup.
func DoRequest(t *testing.T, method, url string, payload interface{}, headers map[string]string) (*http.Response, error) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		b, _ := json.Marshal(payload)
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	client := &http.Client{}
	t.Logf("Request %s %s", method, url)
	resp, err := client.Do(req)
	if resp != nil {
		t.Logf("Response %s %s: Status %d", method, url, resp.StatusCode)
	}
	t.Cleanup(func() {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
	})
	return resp, err
}

func PostRequest(t *testing.T, url string, payload interface{}) (*http.Response, error) {
	return DoRequest(t, http.MethodPost, url, payload, nil)
}

func PostRequestWithHeaders(t *testing.T, url string, payload interface{}, headers map[string]string) (*http.Response, error) {
	return DoRequest(t, http.MethodPost, url, payload, headers)
}

func GetRequest(t *testing.T, url string) (*http.Response, error) {
	return DoRequest(t, http.MethodGet, url, nil, nil)
}

func PutRequest(t *testing.T, url string, payload interface{}) (*http.Response, error) {
	return DoRequest(t, http.MethodPut, url, payload, nil)
}

func DeleteRequest(t *testing.T, url string) (*http.Response, error) {
	return DoRequest(t, http.MethodDelete, url, nil, nil)
}

func GetTraceId(resp *http.Response) string {
	return resp.Header.Get(pkg.HeaderTraceId)
}

func DecodeAccount(r io.Reader) (views.AccountResponse, error) {
	var out views.AccountResponse
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return out, err
	}
	return out, nil
}

func DecodeAccountList(r io.Reader) ([]views.AccountResponse, error) {
	var out []views.AccountResponse
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return out, err
	}
	return out, nil
}

func DecodeError(r io.Reader) (ErrorResponse, error) {
	var out ErrorResponse
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return out, err
	}
	return out, nil
}
