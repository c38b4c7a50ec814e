package render

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

type countingRenderer struct {
	calls atomic.Int32
	png   []byte
	err   error
}

func (r *countingRenderer) ID() string { return "counting" }

func (r *countingRenderer) RenderPNG(ctx context.Context, src []byte) ([]byte, error) {
	r.calls.Add(1)
	return r.png, r.err
}

func writeSource(t *testing.T, dir, text string) string {
	t.Helper()
	path := filepath.Join(dir, "diagram.puml")
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func waitResult(t *testing.T, m *Manager, path string) Result {
	t.Helper()
	ch := make(chan Result, 1)
	m.Load(path, func(r Result) { ch <- r })
	select {
	case r := <-ch:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("Timeout waiting for render")
		return Result{}
	}
}

func TestManager_LoadAndCache(t *testing.T) {
	cacheDir := t.TempDir()
	path := writeSource(t, t.TempDir(), "@startuml\nA -> B\n@enduml")

	r := &countingRenderer{png: testPNG(t, 4, 3)}
	m := NewManager(r, cacheDir, 2)
	defer m.Close()

	res := waitResult(t, m, path)
	if res.Err != nil {
		t.Fatalf("Render failed: %v", res.Err)
	}
	if b := res.Image.Bounds(); b.Dx() != 4 || b.Dy() != 3 {
		t.Errorf("Expected 4x3 image, got %v", b)
	}
	if res.Cached {
		t.Error("First render should not come from the cache")
	}

	res = waitResult(t, m, path)
	if !res.Cached || r.calls.Load() != 1 {
		t.Errorf("Expected cached result, calls=%d", r.calls.Load())
	}

	// a changed source renders again
	writeSource(t, filepath.Dir(path), "@startuml\nB -> A\n@enduml")
	res = waitResult(t, m, path)
	if res.Cached || r.calls.Load() != 2 {
		t.Errorf("Expected a fresh render after the source changed, calls=%d", r.calls.Load())
	}
}

func TestManager_DiskCache(t *testing.T) {
	cacheDir := t.TempDir()
	path := writeSource(t, t.TempDir(), "@startuml\nA -> B\n@enduml")

	first := NewManager(&countingRenderer{png: testPNG(t, 2, 2)}, cacheDir, 1)
	if res := first.Render(context.Background(), path); res.Err != nil {
		t.Fatal(res.Err)
	}
	first.Close()

	r := &countingRenderer{err: errors.New("should not render")}
	second := NewManager(r, cacheDir, 1)
	defer second.Close()

	res := second.Render(context.Background(), path)
	if res.Err != nil || !res.Cached {
		t.Errorf("Expected result from disk cache, got %+v", res)
	}
	if r.calls.Load() != 0 {
		t.Errorf("Renderer should not run on a disk hit, calls=%d", r.calls.Load())
	}
}

func TestManager_Errors(t *testing.T) {
	boom := errors.New("boom")
	m := NewManager(&countingRenderer{err: boom}, "", 1)
	defer m.Close()

	path := writeSource(t, t.TempDir(), "x")
	if res := waitResult(t, m, path); !errors.Is(res.Err, boom) {
		t.Errorf("Expected renderer error, got %v", res.Err)
	}

	if res := waitResult(t, m, filepath.Join(t.TempDir(), "missing.puml")); !errors.Is(res.Err, os.ErrNotExist) {
		t.Errorf("Expected missing file error, got %v", res.Err)
	}

	bad := NewManager(&countingRenderer{png: []byte("not a png")}, "", 1)
	defer bad.Close()
	if res := waitResult(t, bad, path); !errors.Is(res.Err, ErrNoImage) {
		t.Errorf("Expected ErrNoImage, got %v", res.Err)
	}
}

func TestManager_CacheKey(t *testing.T) {
	m := &Manager{renderer: &countingRenderer{}}
	a := m.cacheKey([]byte("A -> B"))
	if a != m.cacheKey([]byte("A -> B")) {
		t.Error("Keys should be identical for the same source")
	}
	if a == m.cacheKey([]byte("B -> A")) {
		t.Error("Key should change with the source")
	}

	other := &Manager{renderer: NewServer("http://localhost")}
	if a == other.cacheKey([]byte("A -> B")) {
		t.Error("Key should change with the renderer")
	}
}

func TestManager_CleanupCache(t *testing.T) {
	dir := t.TempDir()
	m := &Manager{cacheDir: dir}

	oldFiles, oldSize := MaxCacheFiles, MaxCacheSize
	MaxCacheFiles, MaxCacheSize = 5, 1<<20
	defer func() { MaxCacheFiles, MaxCacheSize = oldFiles, oldSize }()

	base := time.Now().Add(-time.Hour)
	for i := range 10 {
		p := filepath.Join(dir, string(rune('a'+i))+".png")
		if err := os.WriteFile(p, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
		ts := base.Add(time.Duration(i) * time.Minute)
		_ = os.Chtimes(p, ts, ts)
	}

	m.cleanupCache()

	entries, _ := os.ReadDir(dir)
	if len(entries) != 4 {
		t.Fatalf("Expected cache trimmed to 4 files, got %d", len(entries))
	}
	// oldest go first
	for _, e := range entries {
		if e.Name() < "g" {
			t.Errorf("Expected %s to be evicted", e.Name())
		}
	}
}

func TestManager_CloseStopsWork(t *testing.T) {
	m := NewManager(&countingRenderer{png: testPNG(t, 1, 1)}, "", 2)
	m.Close()
	m.Close()

	called := make(chan struct{}, 1)
	m.Load("whatever", func(Result) { called <- struct{}{} })
	select {
	case <-called:
		t.Error("Closed manager should ignore requests")
	case <-time.After(100 * time.Millisecond):
	}
}
