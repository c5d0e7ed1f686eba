package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/duck-deterrent/internal/logic"
	"github.com/sweeney/duck-deterrent/internal/status"
)

func newTestServer(t *testing.T) (*httptest.Server, *status.Tracker) {
	t.Helper()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := status.Config{
		DeviceID:    "pond",
		SampleMs:    100,
		TickMs:      20,
		HeartbeatMs: 900000,
		RampMs:      10000,
		BlastMs:     10000,
		RecoverMs:   60000,
		Broker:      "tcp://192.168.1.200:1883",
		HTTPAddr:    ":80",
	}
	tr := status.NewTracker(start, cfg)
	ts := httptest.NewServer(New(":0", tr).Handler())
	t.Cleanup(ts.Close)
	return ts, tr
}

func getJSON(t *testing.T, url string) status.StatusJSON {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var sj status.StatusJSON
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&sj))
	return sj
}

func getBody(t *testing.T, url string) (int, string, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, resp.Header.Get("Content-Type"), string(body)
}

func TestJSONEndpoint(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.Update(logic.StateRecover, logic.Counters{TriggerCount: 5, Problem: true}, status.Sensors{PIR: true, Detected: true})
	tr.SetMQTTConnected(true)

	sj := getJSON(t, ts.URL+"/index.json")

	assert.Equal(t, "pond", sj.Status.Device)
	assert.Equal(t, "RECOVER", sj.Status.State)
	assert.Equal(t, 5, sj.Status.TriggerCount)
	assert.True(t, sj.Status.Problem)
	assert.True(t, sj.Status.Sensors.PIR)
	assert.False(t, sj.Status.Sensors.Mwave)
	assert.True(t, sj.Status.MQTT.Connected)
	assert.Equal(t, "tcp://192.168.1.200:1883", sj.Status.MQTT.Broker)
	assert.Equal(t, int64(100), sj.Status.Config.SampleMs)
}

func TestJSONInitialState(t *testing.T) {
	ts, _ := newTestServer(t)
	sj := getJSON(t, ts.URL+"/index.json")
	assert.Equal(t, "INIT", sj.Status.State)
	assert.Zero(t, sj.Status.TriggerCount)
	assert.Nil(t, sj.Status.Network)
}

func TestJSONNetworkInfo(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.SetNetwork(&status.NetworkInfo{Type: "wifi", IP: "192.168.1.42", Status: "connected", SSID: "Pond"})

	sj := getJSON(t, ts.URL+"/index.json")
	require.NotNil(t, sj.Status.Network)
	assert.Equal(t, "192.168.1.42", sj.Status.Network.IP)
	assert.Equal(t, "Pond", sj.Status.Network.SSID)
}

func TestHTMLEndpoint(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.Update(logic.StateArmed, logic.Counters{TriggerCount: 2}, status.Sensors{Mwave: true, Detected: true})

	for _, path := range []string{"/", "/index.html"} {
		code, ct, body := getBody(t, ts.URL+path)
		assert.Equal(t, http.StatusOK, code, path)
		assert.Contains(t, ct, "text/html", path)
		assert.Contains(t, body, `<td id="state" class="armed">ARMED</td>`, path)
		assert.Contains(t, body, `<td id="triggers">2</td>`, path)
		assert.Contains(t, body, "detected", path)
	}
}

func TestHTMLDisabledBroker(t *testing.T) {
	tr := status.NewTracker(time.Now(), status.Config{})
	ts := httptest.NewServer(New(":0", tr).Handler())
	defer ts.Close()

	_, _, body := getBody(t, ts.URL+"/")
	assert.Contains(t, body, "<td>disabled</td>")
}

func TestNotFoundForUnknownPath(t *testing.T) {
	ts, _ := newTestServer(t)
	code, _, _ := getBody(t, ts.URL+"/nonexistent")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestStateChangesReflectedInResponse(t *testing.T) {
	ts, tr := newTestServer(t)

	assert.Equal(t, "INIT", getJSON(t, ts.URL+"/index.json").Status.State)

	tr.Update(logic.StateBlast, logic.Counters{TriggerCount: 1}, status.Sensors{Detected: true})
	sj := getJSON(t, ts.URL+"/index.json")
	assert.Equal(t, "BLAST", sj.Status.State)
	assert.True(t, sj.Status.Sensors.Detected)
}

func TestUptimeFormat(t *testing.T) {
	start := time.Unix(0, 0)
	snap := status.Snapshot{StartTime: start, Now: start.Add(26*time.Hour + 3*time.Minute + 4*time.Second)}

	var sb strings.Builder
	require.NoError(t, renderHTML(&sb, snap))
	assert.Contains(t, sb.String(), "1d 2h 3m 4s")
}
