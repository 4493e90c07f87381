package sinks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultTimeout = 10 * time.Second

// HTTPAlertSink posts alerts to the platform REST backend
// (POST {base}/automation/alerts).
type HTTPAlertSink struct {
	Endpoint string
	Client   *http.Client
}

func NewHTTPAlertSink(endpoint string, timeout time.Duration) *HTTPAlertSink {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPAlertSink{
		Endpoint: strings.TrimRight(endpoint, "/"),
		Client:   &http.Client{Timeout: timeout},
	}
}

func (s *HTTPAlertSink) Create(ctx context.Context, req AlertRequest) (AlertResponse, error) {
	var resp AlertResponse
	err := postJSON(ctx, s.Client, s.Endpoint+"/automation/alerts", req, &resp)
	return resp, err
}

// HTTPCommandSink posts actuator commands
// (POST {base}/actuators/{deploymentId}/command).
type HTTPCommandSink struct {
	Endpoint string
	Client   *http.Client
}

func NewHTTPCommandSink(endpoint string, timeout time.Duration) *HTTPCommandSink {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPCommandSink{
		Endpoint: strings.TrimRight(endpoint, "/"),
		Client:   &http.Client{Timeout: timeout},
	}
}

func (s *HTTPCommandSink) Send(ctx context.Context, deploymentID string, req CommandRequest) (CommandResponse, error) {
	var resp CommandResponse
	target := s.Endpoint + "/actuators/" + url.PathEscape(deploymentID) + "/command"
	err := postJSON(ctx, s.Client, target, req, &resp)
	return resp, err
}

func postJSON(ctx context.Context, client *http.Client, target string, payload any, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = resp.Status
		}
		return fmt.Errorf("downstream returned %d: %s", resp.StatusCode, msg)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
