package shelfwatch

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestWithUpdateCallback_InvokedOnRefresh(t *testing.T) {
	ts := newMockAudiobookshelf(t)
	defer ts.Close()

	var callCount atomic.Int32

	cb := func(u SensorUpdate) {
		callCount.Add(1)
	}

	sw, err := New(
		WithServer(ts.URL, mockToken),
		WithUpdateCallback(cb),
		WithScanInterval(50*time.Millisecond),
		WithPort(19200),
		WithLogger(testLogger()),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	_ = sw.Start(ctx)

	if callCount.Load() == 0 {
		t.Error("callback should have been invoked at least once")
	}
}

func TestWithUpdateCallback_ReceivesCorrectFields(t *testing.T) {
	ts := newMockAudiobookshelf(t)
	defer ts.Close()

	var result SensorUpdate
	var mu sync.Mutex
	done := make(chan struct{})

	cb := func(u SensorUpdate) {
		if u.Key != "users" {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		if result.Key == "" { // only capture first result
			result = u
			close(done)
		}
	}

	sw, err := New(
		WithServer(ts.URL, mockToken),
		WithUpdateCallback(cb),
		WithPort(19201),
		WithLogger(testLogger()),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		_ = sw.Start(ctx)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for callback")
	}
	cancel()

	mu.Lock()
	defer mu.Unlock()

	if result.Key != "users" {
		t.Errorf("Key = %q, want %q", result.Key, "users")
	}
	if result.Name != "Audiobookshelf Users" {
		t.Errorf("Name = %q, want %q", result.Name, "Audiobookshelf Users")
	}
	if result.Unit != "users" {
		t.Errorf("Unit = %q, want %q", result.Unit, "users")
	}
	// alice is the only active non-automation user in the mock payload
	if got, ok := result.State.(int); !ok || got != 1 {
		t.Errorf("State = %v (%T), want 1", result.State, result.State)
	}
	if result.UpdatedAt.IsZero() {
		t.Error("UpdatedAt should not be zero")
	}
	users, ok := result.Attributes["users"].([]any)
	if !ok || len(users) != 3 {
		t.Fatalf("Attributes[users] = %v, want list of 3", result.Attributes["users"])
	}
	first, _ := users[0].(map[string]any)
	if first["token"] != "<redacted>" {
		t.Errorf("Attributes users[0].token = %v, want <redacted>", first["token"])
	}
}

func TestWithUpdateCallback_PanicRecovery(t *testing.T) {
	ts := newMockAudiobookshelf(t)
	defer ts.Close()

	panicCb := func(u SensorUpdate) {
		panic("intentional test panic")
	}

	var normalCalled atomic.Bool
	normalCb := func(u SensorUpdate) {
		normalCalled.Store(true)
	}

	// use a logger that captures output to verify panic was logged
	var logBuf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logBuf, nil))

	sw, err := New(
		WithServer(ts.URL, mockToken),
		WithUpdateCallback(panicCb),
		WithUpdateCallback(normalCb), // should still be called after panic
		WithLogger(logger),
		WithScanInterval(50*time.Millisecond),
		WithPort(19202),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	// should not panic
	err = sw.Start(ctx)
	if err != nil {
		t.Errorf("Start() error = %v, want nil", err)
	}

	if !normalCalled.Load() {
		t.Error("subsequent callbacks should still run after panic")
	}

	if !bytes.Contains(logBuf.Bytes(), []byte("update callback panicked")) {
		t.Error("panic should have been logged")
	}
}

func TestWithUpdateCallback_NilIsSafe(t *testing.T) {
	ts := newMockAudiobookshelf(t)
	defer ts.Close()

	sw, err := New(
		WithServer(ts.URL, mockToken),
		WithUpdateCallback(nil),
		WithScanInterval(50*time.Millisecond),
		WithPort(19203),
		WithLogger(testLogger()),
	)
	if err != nil {
		t.Fatalf("New() error = %v, want nil (nil callback should be accepted)", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	err = sw.Start(ctx)
	if err != nil {
		t.Errorf("Start() error = %v, want nil", err)
	}
}

func TestWithUpdateCallback_DefensiveCopies(t *testing.T) {
	ts := newMockAudiobookshelf(t)
	defer ts.Close()

	mutated := make(chan struct{})
	var once sync.Once

	// mutate the delivered attributes; the stored state must not change
	cb := func(u SensorUpdate) {
		if u.Key != "users" || u.Attributes == nil {
			return
		}
		u.Attributes["mutated"] = "true"
		once.Do(func() { close(mutated) })
	}

	sw, err := New(
		WithServer(ts.URL, mockToken),
		WithUpdateCallback(cb),
		WithScanInterval(time.Minute), // a single refresh cycle
		WithPort(19204),
		WithLogger(testLogger()),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = sw.Start(ctx)
	}()

	select {
	case <-mutated:
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for callback")
	}

	states := fetchSensorStates(t, "http://localhost:19204/api/sensors")
	users, ok := states["users"]
	if !ok {
		t.Fatal("users state not served")
	}
	if _, ok := users.Attributes["mutated"]; ok {
		t.Error("callback mutation leaked into stored attributes")
	}
}

func TestWithUpdateCallback_ExecutionOrder(t *testing.T) {
	ts := newMockAudiobookshelf(t)
	defer ts.Close()

	var order []int
	var mu sync.Mutex

	sw, err := New(
		WithServer(ts.URL, mockToken),
		WithUpdateCallback(func(u SensorUpdate) {
			mu.Lock()
			order = append(order, 1)
			mu.Unlock()
		}),
		WithUpdateCallback(func(u SensorUpdate) {
			mu.Lock()
			order = append(order, 2)
			mu.Unlock()
		}),
		WithUpdateCallback(func(u SensorUpdate) {
			mu.Lock()
			order = append(order, 3)
			mu.Unlock()
		}),
		WithScanInterval(50*time.Millisecond),
		WithPort(19205),
		WithLogger(testLogger()),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_ = sw.Start(ctx)

	mu.Lock()
	defer mu.Unlock()

	if len(order) < 3 {
		t.Fatalf("expected at least 3 callback invocations, got %d", len(order))
	}

	// verify order is always 1, 2, 3, 1, 2, 3, ...
	for i := 0; i < len(order); i++ {
		expected := (i % 3) + 1
		if order[i] != expected {
			t.Errorf("order[%d] = %d, want %d (callbacks should execute in registration order)", i, order[i], expected)
		}
	}
}

func TestWithUpdateCallback_CoversAllSensors(t *testing.T) {
	ts := newMockAudiobookshelf(t)
	defer ts.Close()

	var mu sync.Mutex
	countByKey := make(map[string]int)
	done := make(chan struct{})
	var once sync.Once

	cb := func(u SensorUpdate) {
		mu.Lock()
		defer mu.Unlock()
		countByKey[u.Key]++
		// 4 fixed + 3 per-library + connectivity
		if len(countByKey) >= 8 {
			once.Do(func() { close(done) })
		}
	}

	sw, err := New(
		WithServer(ts.URL, mockToken),
		WithUpdateCallback(cb),
		WithScanInterval(50*time.Millisecond),
		WithPort(19206),
		WithLogger(testLogger()),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		_ = sw.Start(ctx)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for updates from all sensors")
	}
	cancel()

	mu.Lock()
	defer mu.Unlock()

	for _, key := range []string{"users", "sessions", "libraries", "server_version", "connectivity"} {
		if countByKey[key] == 0 {
			t.Errorf("no update delivered for %q", key)
		}
	}
}

func TestWithUpdateCallback_ConnectivityFlipsOnFailure(t *testing.T) {
	var failing atomic.Bool
	inner := mockABSHandler()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if failing.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		inner.ServeHTTP(w, r)
	}))
	defer ts.Close()

	sawOn := make(chan struct{})
	sawOff := make(chan struct{})
	var onOnce, offOnce sync.Once

	cb := func(u SensorUpdate) {
		if u.Key != "connectivity" {
			return
		}
		switch u.State {
		case "on":
			onOnce.Do(func() { close(sawOn) })
		case "off":
			offOnce.Do(func() { close(sawOff) })
		}
	}

	sw, err := New(
		WithServer(ts.URL, mockToken),
		WithUpdateCallback(cb),
		WithScanInterval(50*time.Millisecond),
		WithPort(19207),
		WithLogger(testLogger()),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = sw.Start(ctx)
	}()

	select {
	case <-sawOn:
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for connectivity on")
	}

	failing.Store(true)

	select {
	case <-sawOff:
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for connectivity off after server failure")
	}
}
