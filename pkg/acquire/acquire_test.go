package acquire

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/jmylchreest/sitebrief/pkg/cleaner"
	"github.com/jmylchreest/sitebrief/pkg/fetcher"
)

const cafePage = `<!DOCTYPE html>
<html>
<head>
  <title>Harbour Coffee</title>
  <meta name="description" content="Small-batch roastery on the waterfront.">
</head>
<body>
  <nav><a href="/">Home</a><a href="/shop">Shop</a></nav>
  <h1>Roasted by the sea</h1>
  <p>We roast single-origin beans every morning in our harbourside workshop.</p>
  <p>Short one.</p>
  <script>var tracking = "should never appear";</script>
  <footer>Copyright Harbour Coffee</footer>
</body>
</html>`

const cafeText = "Harbour Coffee\n" +
	"Small-batch roastery on the waterfront.\n" +
	"Roasted by the sea\n" +
	"We roast single-origin beans every morning in our harbourside workshop."

// server serves each handler in turn, repeating the last one, and counts hits.
func server(t *testing.T, handlers ...http.HandlerFunc) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(hits.Add(1))
		if n > len(handlers) {
			n = len(handlers)
		}
		handlers[n-1](w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func html(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(body))
	}
}

func status(code int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(code)
		_, _ = w.Write([]byte("<html><body><p>error page with enough text to pass the guard easily</p></body></html>"))
	}
}

func slow(d time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(d):
		case <-r.Context().Done():
			return
		}
		html(cafePage)(w, r)
	}
}

func newTestAcquirer(opts ...Option) *Acquirer {
	base := []Option{WithRetry(2, 10*time.Millisecond), WithClient(fetcher.NewHTTPClient())}
	return New(append(base, opts...)...)
}

func TestAcquire_Fetched(t *testing.T) {
	srv, hits := server(t, html(cafePage))
	a := newTestAcquirer()

	got, err := a.Acquire(context.Background(), Request{URL: srv.URL, Fallback: "unused"})
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if got.Source != SourceFetched {
		t.Errorf("Source = %q, want %q", got.Source, SourceFetched)
	}
	if got.Text != cafeText {
		t.Errorf("Text = %q, want %q", got.Text, cafeText)
	}
	if got.Truncated {
		t.Error("Truncated = true, want false")
	}
	if got.Attempts != 1 || hits.Load() != 1 {
		t.Errorf("attempts = %d, hits = %d, want 1", got.Attempts, hits.Load())
	}
	if strings.Contains(got.Text, "tracking") || strings.Contains(got.Text, "Copyright") {
		t.Errorf("boilerplate leaked into text: %q", got.Text)
	}
}

func TestAcquire_FetchFailuresUseFallback(t *testing.T) {
	tests := []struct {
		name     string
		handler  http.HandlerFunc
		wantHits int32
	}{
		{"server error retried", status(http.StatusInternalServerError), 2},
		{"not found", status(http.StatusNotFound), 1},
		{"timeout retried", slow(2 * time.Second), 2},
		{"not html", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"about": "a json document that is long enough to pass"}`))
		}, 1},
		{"too short", html("<html><head><title>Hi</title></head><body></body></html>"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, hits := server(t, tt.handler)
			a := newTestAcquirer(WithTimeout(100 * time.Millisecond))

			fallback := "  Harbour Coffee roasts beans by the sea.  "
			got, err := a.Acquire(context.Background(), Request{URL: srv.URL, Fallback: fallback})
			if err != nil {
				t.Fatalf("Acquire() error = %v", err)
			}
			if got.Source != SourceFallbackProvided {
				t.Errorf("Source = %q, want %q", got.Source, SourceFallbackProvided)
			}
			if got.Text != fallback {
				t.Errorf("Text = %q, want fallback verbatim", got.Text)
			}
			if hits.Load() != tt.wantHits {
				t.Errorf("hits = %d, want %d", hits.Load(), tt.wantHits)
			}
		})
	}
}

func TestAcquire_SynthesizesWithoutFallback(t *testing.T) {
	srv, _ := server(t, status(http.StatusBadGateway))
	a := newTestAcquirer()

	got, err := a.Acquire(context.Background(), Request{URL: srv.URL, Fallback: "   "})
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if got.Source != SourceFallbackSynthesized {
		t.Errorf("Source = %q, want %q", got.Source, SourceFallbackSynthesized)
	}
	want := "A business operating at 127.0.0.1, offering products and services."
	if got.Text != want {
		t.Errorf("Text = %q, want %q", got.Text, want)
	}
	if got.Attempts != 2 {
		t.Errorf("Attempts = %d, want 2", got.Attempts)
	}
}

func TestAcquire_UnfetchableURL(t *testing.T) {
	a := newTestAcquirer()

	got, err := a.Acquire(context.Background(), Request{URL: "ftp://www.Example.com/brand"})
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if got.Source != SourceFallbackSynthesized || got.Attempts != 0 {
		t.Errorf("got %+v, want synthesized with no attempts", got)
	}
	if !strings.Contains(got.Text, "example.com") {
		t.Errorf("Text = %q, want domain example.com", got.Text)
	}
}

func TestAcquire_NoContentAvailable(t *testing.T) {
	srv, _ := server(t, status(http.StatusServiceUnavailable))

	tests := []struct {
		name   string
		req    Request
		opts   []Option
		status int
	}{
		{"synthesis disabled", Request{URL: srv.URL}, []Option{WithoutSynthesis()}, http.StatusServiceUnavailable},
		{"empty url", Request{URL: "  "}, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAcquirer(tt.opts...)
			_, err := a.Acquire(context.Background(), tt.req)
			if !errors.Is(err, ErrNoContentAvailable) {
				t.Fatalf("error = %v, want ErrNoContentAvailable", err)
			}

			var acqErr *AcquisitionError
			if !errors.As(err, &acqErr) {
				t.Fatalf("error type = %T, want *AcquisitionError", err)
			}
			if acqErr.Reason != ReasonNoContentAvailable {
				t.Errorf("Reason = %q", acqErr.Reason)
			}

			var statusErr *fetcher.StatusError
			if got := errors.As(err, &statusErr); got != (tt.status != 0) {
				t.Errorf("errors.As(StatusError) = %v", got)
			} else if got && statusErr.Code != tt.status {
				t.Errorf("status = %d, want %d", statusErr.Code, tt.status)
			}
		})
	}
}

func TestAcquire_RecoversAfterTransientFailure(t *testing.T) {
	srv, hits := server(t, status(http.StatusServiceUnavailable), html(cafePage))
	a := newTestAcquirer()

	got, err := a.Acquire(context.Background(), Request{URL: srv.URL})
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if got.Source != SourceFetched || got.Attempts != 2 || hits.Load() != 2 {
		t.Errorf("got source %q attempts %d hits %d, want fetched after 2", got.Source, got.Attempts, hits.Load())
	}
}

func TestAcquire_Truncation(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 0; i < 8; i++ {
		fmt.Fprintf(&b, "<p>Paragraph %d here is comfortably longer than twenty characters.</p>", i)
	}
	b.WriteString("</body></html>")
	srv, _ := server(t, html(b.String()))

	const limit = 100
	a := newTestAcquirer(WithMaxChars(limit))

	got, err := a.Acquire(context.Background(), Request{URL: srv.URL})
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if !got.Truncated {
		t.Error("Truncated = false, want true")
	}
	if n := utf8.RuneCountInString(got.Text); n != limit+len(TruncationMarker) {
		t.Errorf("length = %d, want %d", n, limit+len(TruncationMarker))
	}
	if !strings.HasSuffix(got.Text, TruncationMarker) {
		t.Errorf("Text = %q, want marker suffix", got.Text)
	}

	fb, err := a.Acquire(context.Background(), Request{URL: "ftp://x", Fallback: strings.Repeat("ü", 250)})
	if err != nil {
		t.Fatal(err)
	}
	if !fb.Truncated || fb.Text != strings.Repeat("ü", limit)+TruncationMarker {
		t.Errorf("fallback not capped: %q", fb.Text)
	}
}

func TestAcquire_Idempotent(t *testing.T) {
	srv, _ := server(t, html(cafePage))
	a := newTestAcquirer()

	first, err := a.Acquire(context.Background(), Request{URL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again, err := a.Acquire(context.Background(), Request{URL: srv.URL})
		if err != nil {
			t.Fatal(err)
		}
		if again != first {
			t.Fatalf("call %d differs: %+v vs %+v", i, again, first)
		}
	}
}

func TestAcquire_CancelledContextFallsThrough(t *testing.T) {
	srv, _ := server(t, slow(2*time.Second))
	a := newTestAcquirer()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := a.Acquire(ctx, Request{URL: srv.URL, Fallback: "provided"})
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if got.Source != SourceFallbackProvided {
		t.Errorf("Source = %q, want %q", got.Source, SourceFallbackProvided)
	}
}

type stubFetcher struct {
	html  string
	err   error
	calls int
}

func (f *stubFetcher) Fetch(ctx context.Context, url string, opts fetcher.Options) (fetcher.Content, error) {
	f.calls++
	return fetcher.Content{URL: url, HTML: f.html, Attempts: 1}, f.err
}

func (f *stubFetcher) Close() error { return nil }
func (f *stubFetcher) Type() string { return "stub" }

func TestAcquire_CustomFetcherAndCleaner(t *testing.T) {
	stub := &stubFetcher{html: "plain text body that is certainly longer than fifty characters"}
	a := New(WithFetcher(stub), WithCleaner(cleaner.NewNoop()))

	got, err := a.Acquire(context.Background(), Request{URL: "example.com"})
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if got.Text != stub.html || got.Source != SourceFetched {
		t.Errorf("got %+v", got)
	}
	if got.URL != "https://example.com" {
		t.Errorf("URL = %q, want https://example.com", got.URL)
	}
	if stub.calls != 1 {
		t.Errorf("calls = %d, want 1", stub.calls)
	}
}

func TestAcquire_MinChars(t *testing.T) {
	stub := &stubFetcher{html: "tiny"}

	got, err := New(WithFetcher(stub), WithCleaner(cleaner.NewNoop()), WithMinChars(4)).
		Acquire(context.Background(), Request{URL: "example.com"})
	if err != nil || got.Source != SourceFetched {
		t.Errorf("MinChars 4: got %+v, %v; want fetched", got, err)
	}

	got, err = New(WithFetcher(stub), WithCleaner(cleaner.NewNoop()), WithMinChars(5)).
		Acquire(context.Background(), Request{URL: "example.com"})
	if err != nil || got.Source != SourceFallbackSynthesized {
		t.Errorf("MinChars 5: got %+v, %v; want synthesized", got, err)
	}
}

func TestAcquisitionError_Error(t *testing.T) {
	err := &AcquisitionError{Reason: ReasonNoContentAvailable, URL: "x", Err: errors.New("boom")}
	if want := `acquire "x": no_content_available: boom`; err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
