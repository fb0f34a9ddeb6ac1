package broadcast

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bodytrace/mocap/internal/bvh"
	"github.com/bodytrace/mocap/internal/detector"
	"github.com/bodytrace/mocap/internal/monitoring"
	"github.com/bodytrace/mocap/internal/rig"
	"github.com/bodytrace/mocap/internal/skeleton"
)

func TestMain(m *testing.M) {
	// Connect/disconnect churn in these tests is expected; keep it quiet.
	monitoring.SetLogger(nil)
	os.Exit(m.Run())
}

func newTestHub(mode Mode) *Hub {
	enc := rig.NewEncoder(rig.NewMapper(), skeleton.New())
	return NewHub(mode, enc, bvh.DefaultFrameTime)
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	return conn
}

func readText(t *testing.T, conn *websocket.Conn) []byte {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	kind, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if kind != websocket.TextMessage {
		t.Fatalf("message type = %d, want text", kind)
	}
	return msg
}

func waitForClients(t *testing.T, h *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for h.ClientCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("client count stuck at %d, want %d", h.ClientCount(), want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func result(ts float64) *detector.Result {
	return &detector.Result{Timestamp: ts, Body: detector.MockBody(ts)}
}

func TestPublishWithNoClients(t *testing.T) {
	h := newTestHub(ModePassthrough)
	defer h.Close()

	if err := h.Publish(result(1)); err != nil {
		t.Errorf("publish with empty registry: %v", err)
	}
	if got := h.Accumulator().Len(); got != 0 {
		t.Errorf("passthrough mode accumulated %d frames", got)
	}
}

func TestPublishWithNoClientsStillAccumulates(t *testing.T) {
	h := newTestHub(ModeBVH)
	defer h.Close()

	if err := h.Publish(result(1)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if got := h.Accumulator().Len(); got != 1 {
		t.Errorf("accumulated %d frames, want 1", got)
	}
}

func TestPassthroughPayloadShape(t *testing.T) {
	h := newTestHub(ModePassthrough)
	defer h.Close()
	srv := httptest.NewServer(http.HandlerFunc(h.HandleWS))
	defer srv.Close()

	conn := dial(t, srv)
	defer conn.Close()
	waitForClients(t, h, 1)

	if err := h.Publish(result(2.5)); err != nil {
		t.Fatalf("publish: %v", err)
	}

	var msg struct {
		Timestamp float64 `json:"timestamp"`
		Body      []struct {
			X float64 `json:"x"`
		} `json:"body"`
		Additional struct {
			HipCenter      map[string]float64 `json:"hip_center"`
			ShoulderCenter map[string]float64 `json:"shoulder_center"`
			PoseLocation   map[string]float64 `json:"pose_location"`
		} `json:"additional"`
		LeftHand  []any `json:"left_hand"`
		RightHand []any `json:"right_hand"`
		Face      []any `json:"face"`
	}
	if err := json.Unmarshal(readText(t, conn), &msg); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if msg.Timestamp != 2.5 {
		t.Errorf("timestamp = %v, want 2.5", msg.Timestamp)
	}
	if len(msg.Body) != 33 {
		t.Errorf("body has %d landmarks, want 33", len(msg.Body))
	}
	if msg.Additional.HipCenter["x"] != 0.5 {
		t.Errorf("hip_center.x = %v, want 0.5", msg.Additional.HipCenter["x"])
	}
	if msg.Additional.PoseLocation["y"] != msg.Additional.HipCenter["y"] {
		t.Error("pose_location must equal hip_center")
	}
}

func TestAccumulateAckShape(t *testing.T) {
	h := newTestHub(ModeBVH)
	defer h.Close()
	srv := httptest.NewServer(http.HandlerFunc(h.HandleWS))
	defer srv.Close()

	conn := dial(t, srv)
	defer conn.Close()
	waitForClients(t, h, 1)

	if err := h.Publish(result(7)); err != nil {
		t.Fatalf("publish: %v", err)
	}

	var ack ackMessage
	if err := json.Unmarshal(readText(t, conn), &ack); err != nil {
		t.Fatalf("unmarshal ack: %v", err)
	}
	if ack.Format != "bvh" || ack.Frame != 1 || ack.Timestamp != 7 {
		t.Errorf("ack = %+v, want {bvh 1 7}", ack)
	}
}

func TestAccumulateDropsInvalidBody(t *testing.T) {
	h := newTestHub(ModeBVH)
	defer h.Close()

	if err := h.Publish(&detector.Result{Timestamp: 1, Body: nil}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := h.Publish(&detector.Result{Timestamp: 2, Body: detector.MockBody(0)[:20]}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if got := h.Accumulator().Len(); got != 0 {
		t.Errorf("invalid frames accumulated: %d", got)
	}
}

func TestDisconnectedClientDoesNotBreakBroadcast(t *testing.T) {
	h := newTestHub(ModePassthrough)
	defer h.Close()
	srv := httptest.NewServer(http.HandlerFunc(h.HandleWS))
	defer srv.Close()

	first := dial(t, srv)
	second := dial(t, srv)
	defer second.Close()
	waitForClients(t, h, 2)

	// One client drops mid-session.
	first.Close()
	waitForClients(t, h, 1)

	if err := h.Publish(result(3)); err != nil {
		t.Fatalf("publish after disconnect: %v", err)
	}
	msg := readText(t, second)
	if !strings.Contains(string(msg), "\"timestamp\":3") {
		t.Errorf("remaining client got %s", msg)
	}
}

func TestAccumulateExportSnapshot(t *testing.T) {
	h := newTestHub(ModeBVH)
	defer h.Close()

	for i := 0; i < 10; i++ {
		if err := h.Publish(result(float64(i))); err != nil {
			t.Fatalf("publish %d: %v", i, err)
		}
	}

	doc, err := h.ExportSnapshot()
	if err != nil {
		t.Fatalf("ExportSnapshot: %v", err)
	}
	if !strings.Contains(doc, "Frames: 10\n") {
		t.Error("snapshot missing Frames: 10")
	}

	_, motion, _ := strings.Cut(doc, "Frame Time: ")
	lines := strings.Split(strings.TrimSuffix(motion, "\n"), "\n")[1:]
	if len(lines) != 10 {
		t.Fatalf("got %d data lines, want 10", len(lines))
	}
	channels := skeleton.New().TotalChannels()
	for i, line := range lines {
		if got := len(strings.Fields(line)); got != channels {
			t.Errorf("line %d has %d values, want %d", i, got, channels)
		}
	}
}

func TestExportAfterClose(t *testing.T) {
	h := newTestHub(ModeBVH)
	if err := h.Publish(result(1)); err != nil {
		t.Fatal(err)
	}
	if err := h.Close(); err != nil {
		t.Fatal(err)
	}

	doc, err := h.ExportSnapshot()
	if err != nil {
		t.Fatalf("export after close: %v", err)
	}
	if !strings.Contains(doc, "Frames: 1\n") {
		t.Error("frames committed before shutdown must survive it")
	}

	if err := h.Publish(result(2)); err != ErrClosed {
		t.Errorf("publish after close: got %v, want ErrClosed", err)
	}
}

func TestCloseRejectsNewClients(t *testing.T) {
	h := newTestHub(ModePassthrough)
	srv := httptest.NewServer(http.HandlerFunc(h.HandleWS))
	defer srv.Close()

	h.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	if _, _, err := websocket.DefaultDialer.Dial(url, nil); err == nil {
		t.Error("dial after close must fail")
	}
}
