package render

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// ErrDropped is delivered to requests pushed out of a full queue.
var ErrDropped = errors.New("render request dropped")

const maxPending = 100

var (
	MaxCacheSize  int64 = 200 * 1024 * 1024 // 200MB
	MaxCacheFiles int   = 2000
)

// Result is what a render request produces.
type Result struct {
	Path   string
	Image  image.Image
	PNG    []byte
	Cached bool
	Err    error
}

type renderRequest struct {
	path     string
	callback func(Result)
}

type cacheEntry struct {
	key   string
	image image.Image
	png   []byte
}

// Manager renders files on a small pool of workers. Requests are served
// newest first and results are cached in memory per file and on disk per
// source content.
type Manager struct {
	renderer Renderer
	cacheDir string

	cache    sync.Map // map[string]*cacheEntry
	requests []renderRequest
	reqLock  sync.Mutex
	reqCond  *sync.Cond
	closed   bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// DefaultCacheDir is where rendered diagrams are kept between runs.
func DefaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "umlview")
}

// NewManager starts workers rendering with r. An empty cacheDir disables
// the disk cache.
func NewManager(r Renderer, cacheDir string, workers int) *Manager {
	if workers <= 0 {
		workers = 2
	}
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		renderer: r,
		requests: make([]renderRequest, 0, maxPending),
		ctx:      ctx,
		cancel:   cancel,
	}
	m.reqCond = sync.NewCond(&m.reqLock)

	if cacheDir != "" {
		if err := os.MkdirAll(cacheDir, 0755); err == nil {
			m.cacheDir = cacheDir
			go m.cleanupCache()
		}
	}

	for range workers {
		m.wg.Add(1)
		go m.worker()
	}
	return m
}

// Load queues path for rendering. callback runs on a worker goroutine.
func (m *Manager) Load(path string, callback func(Result)) {
	m.reqLock.Lock()
	if m.closed {
		m.reqLock.Unlock()
		return
	}
	var dropped *renderRequest
	// the oldest request is the least relevant one
	if len(m.requests) >= maxPending {
		d := m.requests[0]
		dropped = &d
		m.requests = m.requests[1:]
	}
	m.requests = append(m.requests, renderRequest{path: path, callback: callback})
	m.reqCond.Signal()
	m.reqLock.Unlock()

	if dropped != nil && dropped.callback != nil {
		dropped.callback(Result{Path: dropped.path, Err: ErrDropped})
	}
}

// Close stops the workers and aborts running renders. Pending requests are
// discarded without a callback.
func (m *Manager) Close() {
	m.reqLock.Lock()
	if m.closed {
		m.reqLock.Unlock()
		return
	}
	m.closed = true
	m.requests = nil
	m.reqCond.Broadcast()
	m.reqLock.Unlock()

	m.cancel()
	m.wg.Wait()
}

func (m *Manager) worker() {
	defer m.wg.Done()
	for {
		m.reqLock.Lock()
		for len(m.requests) == 0 && !m.closed {
			m.reqCond.Wait()
		}
		if m.closed {
			m.reqLock.Unlock()
			return
		}
		// Pop LAST request (LIFO)
		lastIdx := len(m.requests) - 1
		req := m.requests[lastIdx]
		m.requests = m.requests[:lastIdx]
		m.reqLock.Unlock()

		res := m.Render(m.ctx, req.path)
		if req.callback != nil {
			req.callback(res)
		}
	}
}

// Render reads path and produces its image, using the caches when the
// source has been rendered before.
func (m *Manager) Render(ctx context.Context, path string) Result {
	res := Result{Path: path}

	src, err := os.ReadFile(path)
	if err != nil {
		res.Err = err
		return res
	}

	key := m.cacheKey(src)
	if cached, ok := m.cache.Load(path); ok {
		if e := cached.(*cacheEntry); e.key == key {
			res.Image, res.PNG, res.Cached = e.image, e.png, true
			return res
		}
	}

	if data, err := m.readDisk(key); err == nil {
		if img, err := decodePNG(data); err == nil {
			m.cache.Store(path, &cacheEntry{key: key, image: img, png: data})
			res.Image, res.PNG, res.Cached = img, data, true
			return res
		}
	}

	data, err := m.renderer.RenderPNG(ctx, src)
	if err != nil {
		res.Err = err
		return res
	}
	img, err := decodePNG(data)
	if err != nil {
		res.Err = err
		return res
	}

	m.cache.Store(path, &cacheEntry{key: key, image: img, png: data})
	m.writeDisk(key, data)

	res.Image, res.PNG = img, data
	return res
}

func decodePNG(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, ErrEmptyOutput
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoImage, err)
	}
	return img, nil
}

// cacheKey identifies a render of src by the renderer that produced it.
func (m *Manager) cacheKey(src []byte) string {
	h := sha256.New()
	if id, ok := m.renderer.(identifier); ok {
		io.WriteString(h, id.ID())
	} else {
		fmt.Fprintf(h, "%T", m.renderer)
	}
	h.Write([]byte{0})
	h.Write(src)
	return hex.EncodeToString(h.Sum(nil))
}

func (m *Manager) diskPath(key string) string {
	return filepath.Join(m.cacheDir, key+".png")
}

func (m *Manager) readDisk(key string) ([]byte, error) {
	if m.cacheDir == "" {
		return nil, os.ErrNotExist
	}
	p := m.diskPath(key)
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	_ = os.Chtimes(p, now, now)
	return data, nil
}

func (m *Manager) writeDisk(key string, data []byte) {
	if m.cacheDir == "" {
		return
	}
	tmp, err := os.CreateTemp(m.cacheDir, key+"-*.tmp")
	if err != nil {
		return
	}
	_, err = tmp.Write(data)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return
	}
	if err := os.Rename(tmp.Name(), m.diskPath(key)); err != nil {
		_ = os.Remove(tmp.Name())
	}
}

func (m *Manager) cleanupCache() {
	if m.cacheDir == "" {
		return
	}

	files, err := os.ReadDir(m.cacheDir)
	if err != nil {
		return
	}

	type fileInfo struct {
		name string
		size int64
		time time.Time
	}

	var cachedFiles []fileInfo
	var totalSize int64

	for _, f := range files {
		if f.IsDir() || filepath.Ext(f.Name()) != ".png" {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		cachedFiles = append(cachedFiles, fileInfo{
			name: f.Name(),
			size: info.Size(),
			time: info.ModTime(),
		})
		totalSize += info.Size()
	}

	if totalSize <= MaxCacheSize && len(cachedFiles) <= MaxCacheFiles {
		return
	}

	// LRU: oldest first
	sort.Slice(cachedFiles, func(i, j int) bool {
		return cachedFiles[i].time.Before(cachedFiles[j].time)
	})

	for len(cachedFiles) > 0 {
		if totalSize <= int64(float64(MaxCacheSize)*0.8) && len(cachedFiles) <= int(float64(MaxCacheFiles)*0.8) {
			break
		}
		f := cachedFiles[0]
		_ = os.Remove(filepath.Join(m.cacheDir, f.name))
		totalSize -= f.size
		cachedFiles = cachedFiles[1:]
	}
}
