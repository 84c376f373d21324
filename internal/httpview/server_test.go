package httpview

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/fv/internal/metrics"
	"github.com/rileyhilliard/fv/internal/render"
	"github.com/rileyhilliard/fv/internal/sample"
)

func newTestServer(t *testing.T, labels ...string) (*Server, *sample.Buffer) {
	t.Helper()
	buf := sample.NewBuffer(0)
	s, err := New(buf, Options{Labels: labels, Topic: "iss/position", StatsWindow: 2})
	require.NoError(t, err)
	return s, buf
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decodeEntries(t *testing.T, rec *httptest.ResponseRecorder) []map[string]float64 {
	t.Helper()
	var out []map[string]float64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestData(t *testing.T) {
	s, buf := newTestServer(t, "lat", "lon", "alt_km")
	buf.Append(sample.Reading{Values: []float64{1, 2, 3}, Timestamp: 1700000000000, HasTimestamp: true})
	buf.Append(sample.Reading{Values: []float64{4, 5}})

	rec := get(t, s.Handler(), "/api/v1/data")
	require.Equal(t, http.StatusOK, rec.Code)

	entries := decodeEntries(t, rec)
	require.Len(t, entries, 2)
	assert.Equal(t, map[string]float64{"seq": 1, "ts": 1700000000000, "lat": 1, "lon": 2, "alt_km": 3}, entries[0])
	assert.Equal(t, map[string]float64{"seq": 2, "lat": 4, "lon": 5}, entries[1], "no ts and no missing columns")
}

func TestData_Filters(t *testing.T) {
	s, buf := newTestServer(t)
	for i := 0; i < 5; i++ {
		buf.Append(sample.Scalar(float64(i)))
	}

	tests := []struct {
		query string
		seqs  []float64
	}{
		{"?since=3", []float64{4, 5}},
		{"?since=5", nil},
		{"?last=2", []float64{4, 5}},
		{"?last=0", nil},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := get(t, s.Handler(), "/api/v1/data"+tt.query)
			require.Equal(t, http.StatusOK, rec.Code)
			var seqs []float64
			for _, e := range decodeEntries(t, rec) {
				seqs = append(seqs, e["seq"])
			}
			assert.Equal(t, tt.seqs, seqs)
		})
	}

	for _, bad := range []string{"?since=x", "?last=-1"} {
		rec := get(t, s.Handler(), "/api/v1/data"+bad)
		assert.Equal(t, http.StatusBadRequest, rec.Code, bad)
	}
}

func TestCurrent(t *testing.T) {
	s, buf := newTestServer(t)

	rec := get(t, s.Handler(), "/api/v1/current")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	for _, v := range []float64{10, 1, 3} {
		buf.Append(sample.Scalar(v))
	}
	require.NoError(t, s.Render(buf.Snapshot()))

	rec = get(t, s.Handler(), "/api/v1/current")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Sample map[string]float64 `json:"sample"`
		Stats  map[string]struct {
			Count int     `json:"count"`
			Mean  float64 `json:"mean"`
			Last  float64 `json:"last"`
		} `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 3.0, body.Sample["seq"])
	assert.Equal(t, 3.0, body.Sample["value"])
	assert.Equal(t, 2, body.Stats["value"].Count, "stats window holds 2")
	assert.Equal(t, 2.0, body.Stats["value"].Mean)
	assert.Equal(t, 3.0, body.Stats["value"].Last)
}

func TestIndex(t *testing.T) {
	s, _ := newTestServer(t, "lat", "lon")

	rec := get(t, s.Handler(), "/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, body, "@observablehq/plot")
	assert.Contains(t, body, "iss/position")
	assert.Contains(t, body, `"lat"`)
	assert.Contains(t, body, `"lon"`)
	assert.Contains(t, body, "/api/v1/stream")
}

func TestHealth(t *testing.T) {
	s, buf := newTestServer(t)
	buf.Append(sample.Scalar(1))

	rec := get(t, s.Handler(), "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, 1.0, body["samples"])
	assert.Equal(t, 1.0, body["last_seq"])
}

func TestMetricsRoute(t *testing.T) {
	buf := sample.NewBuffer(0)
	m := metrics.New([]string{"value"})
	m.WatchBuffer(buf)
	buf.Append(sample.Scalar(1))

	s, err := New(buf, Options{Metrics: m.Handler()})
	require.NoError(t, err)

	rec := get(t, s.Handler(), "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "fv_buffer_samples 1")

	s, err = New(buf, Options{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, get(t, s.Handler(), "/metrics").Code)
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestStream(t *testing.T) {
	s, buf := newTestServer(t)
	buf.Append(sample.Scalar(1))

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()
	defer s.Hub().Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	snap := readMessage(t, conn)
	assert.Equal(t, MessageSnapshot, snap.Type)
	require.Len(t, snap.Entries, 1)
	assert.Equal(t, 1.0, snap.Entries[0]["seq"])
	assert.Equal(t, 1, s.Hub().Clients())

	// Drive the server the way `fv serve` does: an incremental loop.
	loop := render.NewLoop(buf, s, time.Second, render.WithMode(render.ModeIncremental))
	_, err = loop.Tick()
	require.NoError(t, err)

	buf.Append(sample.Scalar(2))
	buf.Append(sample.Scalar(3))
	_, err = loop.Tick()
	require.NoError(t, err)

	first := readMessage(t, conn)
	assert.Equal(t, MessageSamples, first.Type)
	require.Len(t, first.Entries, 1)
	assert.Equal(t, 1.0, first.Entries[0]["seq"])

	next := readMessage(t, conn)
	require.Len(t, next.Entries, 2)
	assert.Equal(t, 2.0, next.Entries[0]["seq"])
	assert.Equal(t, 3.0, next.Entries[1]["value"])
}

func TestStream_ClientDisconnect(t *testing.T) {
	s, _ := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	readMessage(t, conn)
	require.Equal(t, 1, s.Hub().Clients())

	conn.Close()
	assert.Eventually(t, func() bool { return s.Hub().Clients() == 0 }, 2*time.Second, 10*time.Millisecond)

	s.Hub().Close()
	assert.NoError(t, s.Hub().Broadcast(Message{Type: MessageSamples}))
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	s, _ := newTestServer(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(shutdownTimeout + time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestListenAndServe_BadAddr(t *testing.T) {
	buf := sample.NewBuffer(0)
	s, err := New(buf, Options{Addr: "256.0.0.1:bad"})
	require.NoError(t, err)

	err = s.ListenAndServe(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Couldn't listen")
}

func TestSummaries_ZeroWindowCoversAllSamples(t *testing.T) {
	s, err := New(sample.NewBuffer(0), Options{Labels: []string{"value"}})
	require.NoError(t, err)

	require.NoError(t, s.Render([]sample.Sample{
		{Seq: 1, Values: []float64{1}},
		{Seq: 2, Values: []float64{5}},
		{Seq: 3, Values: []float64{9}},
		{Seq: 4, Values: []float64{3}},
	}))

	sum := s.Summaries()["value"]
	assert.Equal(t, 4, sum.Count)
	assert.Equal(t, 1.0, sum.Min)
	assert.Equal(t, 9.0, sum.Max)
}
