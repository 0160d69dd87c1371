package statsd

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrefixOrDefault(t *testing.T) {
	tests := map[string]string{
		"":             "clygate",
		"   ":          "clygate",
		".":            "clygate",
		"gateway":      "gateway",
		" .gateway. ":  "gateway",
		"gateway.edge": "gateway.edge",
	}
	for input, want := range tests {
		assert.Equal(t, want, prefixOrDefault(input), "prefixOrDefault(%q)", input)
	}
}

func TestQualify(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"gate.decision", "clygate.gate.decision"},
		{" session/validation ", "clygate.session_validation"},
		{"two words", "clygate.two_words"},
		{".trimmed.", "clygate.trimmed"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, qualify("clygate", tt.name), "qualify(%q)", tt.name)
	}
}

func TestEncodeTags(t *testing.T) {
	base := map[string]string{"service": "clygate", "env": "prod"}
	local := map[string]string{
		"action": " allow ",
		"env":    "stage",
		"":       "dropped",
	}

	got := encodeTags(base, local)
	assert.Equal(t, "|#action:allow,env:stage,service:clygate", got)
}

func TestEncodeTags_Empty(t *testing.T) {
	assert.Empty(t, encodeTags(nil, nil))
}

func TestClientEmitsOverUDP(t *testing.T) {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer pc.Close()

	client, err := NewClient(Config{
		Enabled:    true,
		Address:    pc.LocalAddr().String(),
		GlobalTags: map[string]string{"env": "test"},
	})
	require.NoError(t, err)
	defer client.Close()
	require.True(t, client.Enabled())

	readLine := func() string {
		t.Helper()
		buf := make([]byte, 512)
		require.NoError(t, pc.SetReadDeadline(time.Now().Add(2*time.Second)))
		n, _, err := pc.ReadFrom(buf)
		require.NoError(t, err)
		return string(buf[:n])
	}

	client.Count("gate.decision", 1, map[string]string{"action": "allow"})
	assert.Equal(t, "clygate.gate.decision:1|c|#action:allow,env:test,service:clygate", readLine())

	client.Timing("http.request", 250*time.Millisecond, nil)
	assert.Equal(t, "clygate.http.request:250|ms|#env:test,service:clygate", readLine())
}

func TestNewClient_DisabledWithoutAddress(t *testing.T) {
	client, err := NewClient(Config{Enabled: true, Address: "   "})
	require.NoError(t, err)
	assert.False(t, client.Enabled())

	// Emission on a disabled client is a no-op, not an error.
	client.Count("gate.decision", 1, nil)
}

func TestNewClient_DialError(t *testing.T) {
	_, err := NewClient(Config{Enabled: true, Address: "bad address"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "statsd dial")
}

func TestClientClose(t *testing.T) {
	client, err := NewClient(Config{})
	require.NoError(t, err)

	require.NoError(t, client.Close())
	require.NoError(t, client.Close())
	assert.False(t, client.Enabled())
}

func TestNilClientIsInert(t *testing.T) {
	var client *Client

	assert.False(t, client.Enabled())
	assert.NoError(t, client.Close())
	assert.NotPanics(t, func() {
		client.Count("gate.decision", 1, nil)
		client.Timing("http.request", time.Second, nil)
	})
}
