package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lawnchairsociety/openhexmap/internal/config"
	"github.com/lawnchairsociety/openhexmap/internal/hexmap"
	"github.com/lawnchairsociety/openhexmap/internal/logger"
	"github.com/lawnchairsociety/openhexmap/internal/server"
	"github.com/lawnchairsociety/openhexmap/internal/terrain"
)

func TestMain(m *testing.M) {
	logger.SetOutput(io.Discard, "text", "error")
	m.Run()
}

func startServer(t *testing.T) string {
	t.Helper()
	srv := server.NewServer(config.DefaultConfig(), terrain.DefaultPalette(), server.SourceDefault, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.Shutdown(context.Background())
	})
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

func dialTest(t *testing.T, url string) *Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestClient_Generate(t *testing.T) {
	c := dialTest(t, startServer(t))

	seed := int64(21)
	res, err := c.Generate(context.Background(), hexmap.Request{Width: 9, Height: 7, Seed: &seed})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !res.Success || len(res.Hexes) != 63 || *res.Seed != 21 {
		t.Errorf("result success=%v hexes=%d", res.Success, len(res.Hexes))
	}

	local := hexmap.Generate(terrain.DefaultPalette(), hexmap.Request{Width: 9, Height: 7, Seed: &seed})
	for i := range local.Hexes {
		if local.Hexes[i] != res.Hexes[i] {
			t.Fatalf("remote hex %d = %+v, local %+v", i, res.Hexes[i], local.Hexes[i])
		}
	}
}

func TestClient_FailedResultIsNotAnError(t *testing.T) {
	c := dialTest(t, startServer(t))

	res, err := c.Generate(context.Background(), hexmap.Request{Width: 99, Height: 10})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Success || res.Error == "" {
		t.Errorf("expected failed result, got %+v", res)
	}

	res, err = c.Generate(context.Background(), hexmap.Request{Width: 5, Height: 5})
	if err != nil || !res.Success {
		t.Errorf("session should survive a rejected request: %v %+v", err, res.Error)
	}
}

func TestClient_ConcurrentRequests(t *testing.T) {
	c := dialTest(t, startServer(t))

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			res, err := c.Generate(context.Background(), hexmap.Request{Width: w, Height: 5})
			if err != nil {
				errs <- err
				return
			}
			if res.Width != w {
				errs <- errors.New("reply matched to the wrong request")
			}
		}(5 + i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

func TestClient_Closed(t *testing.T) {
	c := dialTest(t, startServer(t))
	c.Close()

	if _, err := c.Generate(context.Background(), hexmap.Request{Width: 5, Height: 5}); !errors.Is(err, ErrClosed) {
		t.Errorf("Generate after Close = %v, want ErrClosed", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close = %v", err)
	}
}

func TestClient_ServerGoesAway(t *testing.T) {
	upgrader := websocket.Upgrader{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn.ReadMessage()
		conn.Close()
	}))
	defer ts.Close()

	c := dialTest(t, "ws"+strings.TrimPrefix(ts.URL, "http"))
	_, err := c.Generate(context.Background(), hexmap.Request{Width: 5, Height: 5})
	if !errors.Is(err, ErrClosed) {
		t.Errorf("Generate = %v, want ErrClosed", err)
	}
}

func TestClient_Timeout(t *testing.T) {
	upgrader := websocket.Upgrader{}
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.ReadMessage()
		<-release
	}))
	defer ts.Close()
	defer close(release)

	c := dialTest(t, "ws"+strings.TrimPrefix(ts.URL, "http"))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if _, err := c.Generate(ctx, hexmap.Request{Width: 5, Height: 5}); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Generate = %v, want deadline exceeded", err)
	}
}

func TestClient_TimeoutBreaksSession(t *testing.T) {
	upgrader := websocket.Upgrader{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for first := true; ; first = false {
			var req hexmap.Request
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			if first {
				time.Sleep(300 * time.Millisecond)
			}
			res := hexmap.Result{Success: true, Width: req.Width, Height: req.Height, Hexes: []hexmap.Hex{}}
			if err := conn.WriteJSON(res); err != nil {
				return
			}
		}
	}))
	defer ts.Close()

	c := dialTest(t, "ws"+strings.TrimPrefix(ts.URL, "http"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := c.Generate(ctx, hexmap.Request{Width: 11, Height: 11}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("first Generate = %v, want deadline exceeded", err)
	}

	res, err := c.Generate(context.Background(), hexmap.Request{Width: 22, Height: 22})
	if err == nil {
		t.Fatalf("second request 22x22 got reply %dx%d", res.Width, res.Height)
	}
	if !errors.Is(err, ErrClosed) {
		t.Errorf("second Generate = %v, want ErrClosed", err)
	}
}

func TestDial_Refused(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := Dial(ctx, "ws://127.0.0.1:1/ws", nil); err == nil {
		t.Error("Dial to a closed port should fail")
	}
}
