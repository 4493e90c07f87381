package sinks

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPAlertSinkCreate(t *testing.T) {
	var got AlertRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/automation/alerts", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(AlertResponse{ID: "alert-1"})
	}))
	defer server.Close()

	sink := NewHTTPAlertSink(server.URL, time.Second)
	resp, err := sink.Create(context.Background(), AlertRequest{
		Title:            "Too hot",
		Message:          "Above 30",
		Severity:         "warning",
		AutomationRuleID: "rule-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "alert-1", resp.ID)
	assert.Equal(t, "rule-1", got.AutomationRuleID)
	assert.Equal(t, "warning", got.Severity)
}

func TestHTTPCommandSinkSend(t *testing.T) {
	var got CommandRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/actuators/dep-2/command", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(CommandResponse{ID: "cmd-1", Status: "accepted"})
	}))
	defer server.Close()

	sink := NewHTTPCommandSink(server.URL, time.Second)
	resp, err := sink.Send(context.Background(), "dep-2", CommandRequest{
		Command:    "on",
		Parameters: map[string]any{"speed": 2},
	})
	require.NoError(t, err)
	assert.Equal(t, "cmd-1", resp.ID)
	assert.Equal(t, "on", got.Command)
}

func TestHTTPSinkDownstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "alert store unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	sink := NewHTTPAlertSink(server.URL, time.Second)
	_, err := sink.Create(context.Background(), AlertRequest{Title: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Contains(t, err.Error(), "alert store unavailable")
}

func TestHTTPSinkTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	sink := NewHTTPCommandSink(server.URL, 20*time.Millisecond)
	_, err := sink.Send(context.Background(), "dep-2", CommandRequest{Command: "on"})
	require.Error(t, err)
}
