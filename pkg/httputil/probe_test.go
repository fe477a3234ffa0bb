package httputil

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/stackscan/pkg/cache"
)

func TestGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != UserAgent {
			t.Errorf("User-Agent = %q", r.Header.Get("User-Agent"))
		}
		w.WriteHeader(http.StatusTeapot)
	}))
	defer srv.Close()

	resp, err := Get(context.Background(), nil, srv.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusTeapot {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestGetTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := Get(ctx, NewClient(time.Second), srv.URL)
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("err = %v, want ErrTimeout", err)
	}
}

func TestProberExists(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/3/library/os.html", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>os</html>"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	p := NewProber(ProberOptions{})
	ctx := context.Background()

	ok, err := p.Exists(ctx, srv.URL+"/3/library/os.html")
	if err != nil || !ok {
		t.Errorf("Exists(os) = %v, %v; want true", ok, err)
	}
	ok, err = p.Exists(ctx, srv.URL+"/3/library/foo.html")
	if err != nil || ok {
		t.Errorf("Exists(foo) = %v, %v; want false", ok, err)
	}
}

func TestProberMemoizes(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	mem, _ := cache.NewMemoryCache(0)
	p := NewProber(ProberOptions{Cache: mem})
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, err := p.Exists(ctx, srv.URL+"/x"); !ok || err != nil {
				t.Errorf("Exists = %v, %v", ok, err)
			}
		}()
	}
	wg.Wait()
	if ok, _ := p.Exists(ctx, srv.URL+"/x"); !ok {
		t.Error("cached result should be true")
	}
	if n := hits.Load(); n < 1 || n > 8 {
		t.Errorf("server hits = %d", n)
	}
	before := hits.Load()
	_, _ = p.Exists(ctx, srv.URL+"/x")
	if hits.Load() != before {
		t.Error("memoized probe should not hit the server")
	}
}

func TestProberNetworkFailureNotCached(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL + "/gone"
	srv.Close()

	mem, _ := cache.NewMemoryCache(0)
	p := NewProber(ProberOptions{Cache: mem})

	ok, err := p.Exists(context.Background(), url)
	if ok || err == nil {
		t.Errorf("Exists on closed server = %v, %v; want false with error", ok, err)
	}
	if mem.Len() != 0 {
		t.Errorf("network failure was cached (%d entries)", mem.Len())
	}
}
