package notifier

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWebhookNotifier(t *testing.T) {
	n, err := NewWebhookNotifier("chat", "https://chat.example.org/hooks/abc")
	require.NoError(t, err)
	assert.Equal(t, "chat", n.Name())

	n, err = NewWebhookNotifier("chat", "")
	assert.Error(t, err)
	assert.Nil(t, n)
}

func TestWebhookNotifierSend(t *testing.T) {
	var received map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n, err := NewWebhookNotifier("chat", server.URL)
	require.NoError(t, err)

	require.NoError(t, n.Send("queue backlog: 150 new jobs"))
	assert.Equal(t, map[string]string{"text": "queue backlog: 150 new jobs"}, received)
}

func TestWebhookNotifierSendErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte("invalid token"))
	}))
	defer server.Close()

	n, err := NewWebhookNotifier("chat", server.URL)
	require.NoError(t, err)

	err = n.Send("hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 403")
	assert.Contains(t, err.Error(), "invalid token")
}

func TestWebhookNotifierSendConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // shut down before sending

	n, err := NewWebhookNotifier("chat", server.URL)
	require.NoError(t, err)

	assert.Error(t, n.Send("hello"))
}

func TestStdoutNotifier(t *testing.T) {
	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	n := NewStdoutNotifier("console")
	assert.Equal(t, "console", n.Name())
	require.NoError(t, n.Send("backlog recovered: 3 new jobs"))

	w.Close()
	os.Stdout = oldStdout

	out, _ := io.ReadAll(r)
	assert.Equal(t, "backlog recovered: 3 new jobs\n", string(out))
}
