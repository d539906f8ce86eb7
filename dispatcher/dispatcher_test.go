package dispatcher

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"go-soilwater/config"
	"go-soilwater/models"
	"go-soilwater/pipeline"
)

func startServer(t *testing.T, runner Runner, maxFrame int) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	srv := NewServer(runner, config.ServerConfig{ReadTimeout: 2 * time.Second, MaxFrameBytes: maxFrame})
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Serve() error = %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Error("Serve() did not return after cancel")
		}
	})
	return ln.Addr().String()
}

func callCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFrame(&buf, []byte(`{"task":"x"}`)); err != nil {
		t.Fatal(err)
	}
	if got := binary.BigEndian.Uint32(buf.Bytes()[:4]); got != 12 {
		t.Errorf("length prefix = %d, want 12", got)
	}
	data, err := ReadFrame(&buf, 64)
	if err != nil || string(data) != `{"task":"x"}` {
		t.Errorf("ReadFrame() = %q, %v", data, err)
	}
}

func TestReadFrameErrors(t *testing.T) {
	big := []byte{0, 0, 1, 0}
	if _, err := ReadFrame(bytes.NewReader(big), 16); !errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("ReadFrame(256 bytes, limit 16) error = %v, want ErrFrameTooLarge", err)
	}
	short := []byte{0, 0, 0, 5, 'a', 'b'}
	if _, err := ReadFrame(bytes.NewReader(short), 16); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("ReadFrame(truncated) error = %v, want ErrUnexpectedEOF", err)
	}
	if _, err := ReadFrame(bytes.NewReader(nil), 16); !errors.Is(err, io.EOF) {
		t.Errorf("ReadFrame(empty) error = %v, want EOF", err)
	}
}

func TestCallPipeline(t *testing.T) {
	addr := startServer(t, pipeline.New(config.DefaultPipeline()), 1<<20)

	tests := []struct {
		name    string
		task    string
		data    interface{}
		status  string
		message string
	}{
		{
			name: "calibration",
			task: pipeline.TaskCalibrate,
			data: map[string]interface{}{
				"sensor_readings":      []float64{100, 200, 300, 400},
				"moisture_percentages": []float64{10, 20, 30, 40},
			},
			status:  models.StatusSuccess,
			message: "Calibration completed successfully.",
		},
		{
			name: "total water",
			task: pipeline.TaskTotalWater,
			data: map[string]interface{}{
				"sensor_readings": [][]float64{{0, 0, 500}, {1, 0, 520}, {0, 1, 480}, {1, 1, 510}, {0.5, 0.5, 500}},
				"radius":          1,
				"height":          10,
				"mode":            "cylinder",
			},
			status:  models.StatusSuccess,
			message: "total water calculated",
		},
		{
			name:    "unknown task",
			task:    "flower_stage_detection",
			data:    map[string]interface{}{},
			status:  models.StatusError,
			message: "Unknown task",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := Call(callCtx(t), addr, tt.task, tt.data)
			if err != nil {
				t.Fatalf("Call() error = %v", err)
			}
			if env.Status != tt.status || env.Message != tt.message {
				t.Errorf("Call() = %+v, want status %q message %q", env, tt.status, tt.message)
			}
		})
	}
}

func TestCallResultTypes(t *testing.T) {
	addr := startServer(t, pipeline.New(config.DefaultPipeline()), 1<<20)
	env, err := Call(callCtx(t), addr, pipeline.TaskTotalWater, map[string]interface{}{
		"sensor_readings": [][]float64{{0, 0, 500}, {1, 0, 520}, {0, 1, 480}},
		"radius":          1,
		"height":          10,
		"mode":            "sphere",
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := env.Result.(float64); !ok {
		t.Errorf("Result = %T(%v), want float64", env.Result, env.Result)
	}
}

type echoRunner struct{}

func (echoRunner) Run(task string, payload json.RawMessage) (models.Envelope, error) {
	return models.Succeeded(task, string(payload)), nil
}

func TestMalformedRequest(t *testing.T) {
	addr := startServer(t, echoRunner{}, 1<<20)
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	if err := WriteFrame(conn, []byte("not json")); err != nil {
		t.Fatal(err)
	}
	resp, err := ReadFrame(conn, 0)
	if err != nil {
		t.Fatalf("ReadFrame() error = %v", err)
	}
	var env models.Envelope
	if err := json.Unmarshal(resp, &env); err != nil {
		t.Fatal(err)
	}
	if env.Status != models.StatusError || env.Result != nil {
		t.Errorf("envelope = %+v, want an error envelope", env)
	}
}

func TestOversizedFrameClosesConnection(t *testing.T) {
	addr := startServer(t, echoRunner{}, 32)
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	if err := WriteFrame(conn, bytes.Repeat([]byte("x"), 64)); err != nil {
		t.Fatal(err)
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := ReadFrame(conn, 0); err == nil {
		t.Error("ReadFrame() error = nil, want the server to close the connection")
	}
}

func TestConcurrentCalls(t *testing.T) {
	addr := startServer(t, echoRunner{}, 1<<20)
	ctx := callCtx(t)
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			env, err := Call(ctx, addr, "echo", map[string]int{"n": 1})
			if err == nil && (env.Message != "echo" || env.Result != `{"n":1}`) {
				err = errors.New("unexpected envelope")
			}
			errs <- err
		}()
	}
	for i := 0; i < 8; i++ {
		if err := <-errs; err != nil {
			t.Error(err)
		}
	}
}
