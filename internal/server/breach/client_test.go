package breach

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/vaultwatch/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCorpus serves range responses and records every request it sees.
type fakeCorpus struct {
	mu       sync.Mutex
	requests []*http.Request
	body     map[string]string
	status   int
	delay    time.Duration
}

func (f *fakeCorpus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests = append(f.requests, r.Clone(context.Background()))
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-r.Context().Done():
			return
		}
	}
	if f.status != 0 {
		w.WriteHeader(f.status)
		return
	}
	prefix := strings.TrimPrefix(r.URL.Path, "/range/")
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprint(w, f.body[prefix])
}

func newCorpus(t *testing.T, f *fakeCorpus) *Client {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/range", time.Second)
}

func TestRangeQuery(t *testing.T) {
	prefix, suffix := RangeQuery("password")
	assert.Equal(t, "5BAA6", prefix)
	assert.Equal(t, "1E4C9B93F3F0682250B6CF8331B7EE68FD8", suffix)
	assert.Len(t, prefix+suffix, 40)
}

func TestClient_Exposed(t *testing.T) {
	prefix, suffix := RangeQuery("Zx9!aB7qT2")
	f := &fakeCorpus{body: map[string]string{
		prefix: "0018A45C4D1DEF81644B54AB7F969B88D65:1\r\n" + suffix + ":42\r\nDEADBEEFDEADBEEFDEADBEEFDEADBEEFDEA:3",
	}}
	c := newCorpus(t, f)

	res := c.Check(context.Background(), "Zx9!aB7qT2")
	assert.Equal(t, StatusExposed, res.Status)
	assert.Equal(t, int64(42), res.Count)
	assert.NoError(t, res.Err)
}

func TestClient_Clean(t *testing.T) {
	prefix, _ := RangeQuery("Zx9!aB7qT2")
	f := &fakeCorpus{body: map[string]string{
		prefix: "0018A45C4D1DEF81644B54AB7F969B88D65:1\nDEADBEEFDEADBEEFDEADBEEFDEADBEEFDEA:3\n",
	}}
	c := newCorpus(t, f)

	res := c.Check(context.Background(), "Zx9!aB7qT2")
	assert.Equal(t, StatusClean, res.Status)
	assert.Zero(t, res.Count)
	assert.True(t, res.Conclusive())
}

func TestClient_PaddingRowIsClean(t *testing.T) {
	prefix, suffix := RangeQuery("padded")
	f := &fakeCorpus{body: map[string]string{prefix: suffix + ":0\n"}}
	c := newCorpus(t, f)

	assert.Equal(t, StatusClean, c.Check(context.Background(), "padded").Status)
}

func TestClient_LowercaseSuffixMatches(t *testing.T) {
	prefix, suffix := RangeQuery("lower")
	f := &fakeCorpus{body: map[string]string{prefix: strings.ToLower(suffix) + ":7"}}
	c := newCorpus(t, f)

	res := c.Check(context.Background(), "lower")
	assert.Equal(t, Exposed(7), res)
}

func TestClient_OnlyPrefixLeavesProcess(t *testing.T) {
	const secret = "Zx9!aB7qT2"
	prefix, suffix := RangeQuery(secret)
	f := &fakeCorpus{body: map[string]string{}}
	c := newCorpus(t, f)

	c.Check(context.Background(), secret)

	require.Len(t, f.requests, 1)
	r := f.requests[0]
	assert.Equal(t, "/range/"+prefix, r.URL.Path)
	assert.Empty(t, r.URL.RawQuery)
	assert.Equal(t, "true", r.Header.Get("Add-Padding"))

	for _, leak := range []string{secret, suffix, prefix + suffix} {
		assert.NotContains(t, r.URL.String(), leak)
		for _, values := range r.Header {
			for _, v := range values {
				assert.NotContains(t, v, leak)
			}
		}
	}
}

func TestClient_UnknownOnFailure(t *testing.T) {
	prefix, suffix := RangeQuery("x")

	t.Run("server error", func(t *testing.T) {
		c := newCorpus(t, &fakeCorpus{status: http.StatusServiceUnavailable})
		res := c.Check(context.Background(), "x")
		assert.Equal(t, StatusUnknown, res.Status)
		assert.ErrorIs(t, res.Err, common.ErrOracleUnavailable)
	})

	t.Run("malformed count", func(t *testing.T) {
		c := newCorpus(t, &fakeCorpus{body: map[string]string{prefix: suffix + ":lots"}})
		res := c.Check(context.Background(), "x")
		assert.Equal(t, StatusUnknown, res.Status)
	})

	t.Run("timeout", func(t *testing.T) {
		srv := httptest.NewServer(&fakeCorpus{delay: 2 * time.Second})
		t.Cleanup(srv.Close)
		c := NewClient(srv.URL+"/range/", 50*time.Millisecond)

		start := time.Now()
		res := c.Check(context.Background(), "x")
		assert.Equal(t, StatusUnknown, res.Status)
		assert.Less(t, time.Since(start), time.Second)
	})

	t.Run("unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		res := NewClient(url, time.Second).Check(context.Background(), "x")
		assert.Equal(t, StatusUnknown, res.Status)
		assert.False(t, res.Conclusive())
	})

	t.Run("cancelled context", func(t *testing.T) {
		c := newCorpus(t, &fakeCorpus{})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.Equal(t, StatusUnknown, c.Check(ctx, "x").Status)
	})
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "clean", StatusClean.String())
	assert.Equal(t, "exposed", StatusExposed.String())
	assert.Equal(t, "unknown", StatusUnknown.String())
}
