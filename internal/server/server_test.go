package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeeshanhm/zara/internal/instrumentation"
	"github.com/zeeshanhm/zara/internal/session"
)

const (
	assertTimeout = 2 * time.Second
	assertTick    = 10 * time.Millisecond
)

// scriptedResponder returns canned replies in order and records every call.
type scriptedResponder struct {
	replies   []string
	errs      []error
	histories [][]session.Turn
	inputs    []string
}

func (r *scriptedResponder) Respond(_ context.Context, history []session.Turn, input string) (string, error) {
	call := len(r.inputs)
	r.histories = append(r.histories, history)
	r.inputs = append(r.inputs, input)
	if call < len(r.errs) && r.errs[call] != nil {
		return "", r.errs[call]
	}
	if call < len(r.replies) {
		return r.replies[call], nil
	}
	return "", errors.New("unexpected call")
}

func dialChat(t *testing.T, s *ChatServer) *websocket.Conn {
	t.Helper()
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + chatPath
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestChatRoundTrip(t *testing.T) {
	responder := &scriptedResponder{replies: []string{"Hi Zeeshan!"}}
	s := New(responder, Config{})
	conn := dialChat(t, s)

	require.NoError(t, conn.WriteJSON(inbound{Message: "hello"}))

	var got reply
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "Hi Zeeshan!", got.Message)

	require.Len(t, responder.inputs, 1)
	assert.Equal(t, "hello", responder.inputs[0])
	assert.Empty(t, responder.histories[0])
}

func TestChatHistoryAccumulates(t *testing.T) {
	responder := &scriptedResponder{replies: []string{"first reply", "second reply"}}
	s := New(responder, Config{})
	conn := dialChat(t, s)

	var got reply
	require.NoError(t, conn.WriteJSON(inbound{Message: "one"}))
	require.NoError(t, conn.ReadJSON(&got))
	require.NoError(t, conn.WriteJSON(inbound{Message: "two"}))
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "second reply", got.Message)

	require.Len(t, responder.histories, 2)
	history := responder.histories[1]
	require.Len(t, history, 2)
	assert.Equal(t, session.RoleUser, history[0].Role)
	assert.Equal(t, "one", history[0].Content)
	assert.Equal(t, session.RoleAssistant, history[1].Role)
	assert.Equal(t, "first reply", history[1].Content)
}

func TestChatAssistantFailureKeepsSession(t *testing.T) {
	responder := &scriptedResponder{
		replies: []string{"", "recovered"},
		errs:    []error{errors.New("calendar auth expired"), nil},
	}
	s := New(responder, Config{})
	conn := dialChat(t, s)

	require.NoError(t, conn.WriteJSON(inbound{Message: "book it"}))

	var gotFault fault
	require.NoError(t, conn.ReadJSON(&gotFault))
	assert.Equal(t, failureReply, gotFault.Error)
	// The internal error is never leaked to the client.
	assert.NotContains(t, gotFault.Error, "calendar auth expired")

	// The connection stays open and the failed turn is not recorded.
	require.NoError(t, conn.WriteJSON(inbound{Message: "try again"}))
	var got reply
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "recovered", got.Message)
	assert.Empty(t, responder.histories[1])
}

func TestChatSessionLifecycle(t *testing.T) {
	responder := &scriptedResponder{replies: []string{"ok"}}
	s := New(responder, Config{})
	conn := dialChat(t, s)

	require.NoError(t, conn.WriteJSON(inbound{Message: "hello"}))
	var got reply
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, 1, s.ActiveSessions())

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return s.ActiveSessions() == 0 },
		assertTimeout, assertTick, "session should be removed on disconnect")
}

func TestHealthEndpoints(t *testing.T) {
	s := New(&scriptedResponder{}, Config{})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/readyz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	s.health.SetReady(false)
	resp, err = http.Get(ts.URL + "/readyz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestNewMetricsServer(t *testing.T) {
	t.Run("requires provider", func(t *testing.T) {
		_, err := NewMetricsServer(MetricsServerConfig{})
		assert.Error(t, err)
	})

	t.Run("requires enabled provider", func(t *testing.T) {
		provider, err := instrumentation.NewProvider(context.Background(), instrumentation.Config{Enabled: false})
		require.NoError(t, err)
		_, err = NewMetricsServer(MetricsServerConfig{Provider: provider})
		assert.Error(t, err)
	})

	t.Run("defaults addr", func(t *testing.T) {
		provider, err := instrumentation.NewProvider(context.Background(), instrumentation.Config{
			Enabled:         true,
			ServiceName:     "test",
			MetricsExporter: instrumentation.ExporterStdout,
			TracingExporter: instrumentation.ExporterNone,
		})
		require.NoError(t, err)
		defer func() { _ = provider.Shutdown(context.Background()) }()

		ms, err := NewMetricsServer(MetricsServerConfig{Provider: provider})
		require.NoError(t, err)
		assert.Equal(t, DefaultMetricsAddr, ms.Addr())
	})
}
