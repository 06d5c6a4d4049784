package ipc

import (
	"bufio"
	"context"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/CE-Thesis-2023/camctl/src/biz/handlers"
	"github.com/CE-Thesis-2023/camctl/src/internal/configs"
	"github.com/CE-Thesis-2023/camctl/src/models/events"
)

// slowLayout records layout switches; switching to "slow" takes a while so
// ordering problems would show up.
type slowLayout struct {
	mu    sync.Mutex
	names []string
}

func (l *slowLayout) SetLayout(ctx context.Context, name string) error {
	if name == "slow" {
		select {
		case <-time.After(50 * time.Millisecond):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.names = append(l.names, name)
	return nil
}

func (l *slowLayout) MoveRelative(ctx context.Context, direction string) error { return nil }

func (l *slowLayout) CurrentLayout(ctx context.Context) (*events.LayoutStatus, error) {
	return &events.LayoutStatus{Layout: "top-left"}, nil
}

func (l *slowLayout) CameraSpacing(ctx context.Context) (*events.Spacing, error) {
	return &events.Spacing{}, nil
}

func (l *slowLayout) SetCameraSpacing(ctx context.Context, spacing *events.Spacing) error {
	return nil
}

func (l *slowLayout) CameraCrop(ctx context.Context) (*events.CameraCrop, error) {
	return &events.CameraCrop{}, nil
}

func (l *slowLayout) SetCameraCrop(ctx context.Context, crop *events.Crop) error { return nil }

func startServer(t *testing.T, layout handlers.LayoutController) *Server {
	t.Helper()
	// unix socket paths are length limited, keep them short
	dir, err := os.MkdirTemp("", "ipc")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	s := New(
		WithGlobalConfigs(&configs.IpcConfigs{SocketPath: filepath.Join(dir, "obs.sock")}),
		WithResponder(handlers.NewCommandHandler(layout)),
	)
	if err := s.Listen(); err != nil {
		t.Fatal(err)
	}
	go s.Serve()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		s.Stop(ctx)
	})
	return s
}

func dial(t *testing.T, s *Server) (net.Conn, *bufio.Reader) {
	t.Helper()
	conn, err := net.Dial("unix", s.SocketPath())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	conn.SetDeadline(time.Now().Add(5 * time.Second))
	return conn, bufio.NewReader(conn)
}

func readResponseLine(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	line, err := r.ReadString('\n')
	if err != nil {
		t.Fatal(err)
	}
	return strings.TrimSuffix(line, "\n")
}

func TestServer_UnknownCommand(t *testing.T) {
	s := startServer(t, &slowLayout{})
	conn, r := dial(t, s)

	if _, err := conn.Write([]byte("foo bar\n")); err != nil {
		t.Fatal(err)
	}
	if got, want := readResponseLine(t, r), `{"ok":false,"error":"unknown cmd: foo"}`; got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestServer_BlankLinesGetNoResponse(t *testing.T) {
	s := startServer(t, &slowLayout{})
	conn, r := dial(t, s)

	if _, err := conn.Write([]byte("\n   \r\n\nset-filter top-left\n")); err != nil {
		t.Fatal(err)
	}
	if got, want := readResponseLine(t, r), `{"ok":true,"result":null}`; got != want {
		t.Errorf("got %s, want %s", got, want)
	}

	conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	if extra, err := r.ReadString('\n'); err == nil {
		t.Errorf("unexpected extra response %q", extra)
	}
}

func TestServer_ResponsesInOrder(t *testing.T) {
	layout := &slowLayout{}
	s := startServer(t, layout)
	conn, r := dial(t, s)

	if _, err := conn.Write([]byte("set-filter slow\nnope\nset-filter fast\n")); err != nil {
		t.Fatal(err)
	}
	want := []string{
		`{"ok":true,"result":null}`,
		`{"ok":false,"error":"unknown cmd: nope"}`,
		`{"ok":true,"result":null}`,
	}
	for i, w := range want {
		if got := readResponseLine(t, r); got != w {
			t.Errorf("response %d = %s, want %s", i, got, w)
		}
	}

	layout.mu.Lock()
	defer layout.mu.Unlock()
	if len(layout.names) != 2 || layout.names[0] != "slow" || layout.names[1] != "fast" {
		t.Errorf("commands ran as %v", layout.names)
	}
}

func TestServer_SeveralClients(t *testing.T) {
	s := startServer(t, &slowLayout{})

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		conn, r := dial(t, s)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := conn.Write([]byte("get-layout\n")); err != nil {
				t.Error(err)
				return
			}
			line, err := r.ReadString('\n')
			if err != nil {
				t.Error(err)
				return
			}
			if !strings.HasPrefix(line, `{"ok":true,"result":{"layout":"top-left"`) {
				t.Errorf("unexpected response %s", line)
			}
		}()
	}
	wg.Wait()
}

func TestServer_ReplacesStaleSocket(t *testing.T) {
	dir, err := os.MkdirTemp("", "ipc")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "obs.sock")
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatal(err)
	}

	s := New(WithGlobalConfigs(&configs.IpcConfigs{SocketPath: path}))
	if err := s.Listen(); err != nil {
		t.Fatalf("Listen over stale file: %v", err)
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("socket file should be removed on stop, stat err = %v", err)
	}
}

func TestServer_StopClosesIdleConnections(t *testing.T) {
	dir, err := os.MkdirTemp("", "ipc")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	s := New(
		WithGlobalConfigs(&configs.IpcConfigs{SocketPath: filepath.Join(dir, "obs.sock")}),
		WithResponder(handlers.NewCommandHandler(&slowLayout{})),
	)
	if err := s.Listen(); err != nil {
		t.Fatal(err)
	}
	served := make(chan error, 1)
	go func() { served <- s.Serve() }()

	conn, r := dial(t, s)
	if _, err := conn.Write([]byte("get-layout\n")); err != nil {
		t.Fatal(err)
	}
	readResponseLine(t, r)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatal(err)
	}
	if err := <-served; err != nil {
		t.Errorf("Serve returned %v", err)
	}
	if _, err := r.ReadString('\n'); err == nil {
		t.Error("connection should be closed after stop")
	}
}

func TestServer_IdleClientsDoNotBlockNewOnes(t *testing.T) {
	s := startServer(t, &slowLayout{})

	for i := 0; i < 16; i++ {
		dial(t, s)
	}

	conn, r := dial(t, s)
	if _, err := conn.Write([]byte("foo bar\n")); err != nil {
		t.Fatal(err)
	}
	if got, want := readResponseLine(t, r), `{"ok":false,"error":"unknown cmd: foo"}`; got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestServer_OverlongLineAnswered(t *testing.T) {
	layout := &slowLayout{}
	s := startServer(t, layout)
	conn, r := dial(t, s)

	payload := "set-filter " + strings.Repeat("x", maxLineSize+6*1024) + "\nfoo bar\nset-filter top-left\n"
	go conn.Write([]byte(payload))

	want := []string{
		`{"ok":false,"error":"line too long"}`,
		`{"ok":false,"error":"unknown cmd: foo"}`,
		`{"ok":true,"result":null}`,
	}
	for i, w := range want {
		if got := readResponseLine(t, r); got != w {
			t.Errorf("response %d = %s, want %s", i, got, w)
		}
	}

	layout.mu.Lock()
	defer layout.mu.Unlock()
	if len(layout.names) != 1 || layout.names[0] != "top-left" {
		t.Errorf("commands ran as %v", layout.names)
	}
}

func TestReadLine(t *testing.T) {
	input := "short\r\n" + strings.Repeat("y", maxLineSize+1) + "\n" + strings.Repeat("z", maxLineSize) + "\nlast"
	r := bufio.NewReaderSize(strings.NewReader(input), 4096)

	tests := []struct {
		line    string
		tooLong bool
	}{
		{"short", false},
		{"", true},
		{strings.Repeat("z", maxLineSize), false},
		{"last", false},
	}
	for i, tt := range tests {
		line, tooLong, err := readLine(r)
		if err != nil {
			t.Fatalf("line %d: %v", i, err)
		}
		if line != tt.line || tooLong != tt.tooLong {
			t.Errorf("line %d = (%d bytes, %v), want (%d bytes, %v)", i, len(line), tooLong, len(tt.line), tt.tooLong)
		}
	}
	if _, _, err := readLine(r); err != io.EOF {
		t.Errorf("expected EOF, got %v", err)
	}
}
