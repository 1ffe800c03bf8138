package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpkotak/giftbud/internal/config"
	"github.com/hpkotak/giftbud/internal/gift"
	"github.com/hpkotak/giftbud/internal/links"
)

func TestRunLink(t *testing.T) {
	out, _ := isolate(t)
	useMockProvider(&mockProvider{})

	require.NoError(t, runLink(linkCmd, []string{"Yoga", "Mat"}))
	assert.Equal(t, "https://www.trendyol.com/sr?q=Yoga+Mat\n", out.String())
}

func TestRunLinkAll(t *testing.T) {
	out, _ := isolate(t)
	useMockProvider(&mockProvider{})
	linkAllFlag = true
	jsonFlag = true

	require.NoError(t, runLink(linkCmd, []string{"Kite"}))

	var found []links.ProductLink
	require.NoError(t, json.Unmarshal(out.Bytes(), &found))
	require.Len(t, found, 4)
	assert.Equal(t, "Trendyol", found[0].Platform)
	assert.Equal(t, "N11", found[3].Platform)
}

func TestRunLinkFromFile(t *testing.T) {
	out, _ := isolate(t)
	useMockProvider(&mockProvider{})

	recs := []gift.Recommendation{
		gift.New("Kite", "Red", "100 TL", ""),
		gift.New("Tea Set", "Assorted", "300 TL", "https://old.example.com"),
	}
	data, err := json.Marshal(recs)
	require.NoError(t, err)
	linkFromFlag = writeFile(t, "recs.json", string(data))

	require.NoError(t, runLink(linkCmd, []string{"Tea Set"}))

	var got []gift.Recommendation
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, recs[0], got[0])
	assert.Equal(t, "https://www.trendyol.com/sr?q=Tea+Set", got[1].Link)
	assert.Equal(t, recs[1].ID, got[1].ID)
}

func TestRunLinkFromFileUnknownTitle(t *testing.T) {
	isolate(t)
	useMockProvider(&mockProvider{})
	linkFromFlag = writeFile(t, "recs.json", `[{"title":"Kite"}]`)

	err := runLink(linkCmd, []string{"Yoga Mat"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no recommendation titled "Yoga Mat"`)
}

func TestRunLinkBlankTitle(t *testing.T) {
	isolate(t)
	err := runLink(linkCmd, []string{"  "})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "title cannot be empty")
}

type proberFunc func(ctx context.Context, store links.Storefront, title string) (string, error)

func (f proberFunc) Probe(ctx context.Context, store links.Storefront, title string) (string, error) {
	return f(ctx, store, title)
}

// signalWriter closes written on the first Write.
type signalWriter struct {
	buf     bytes.Buffer
	once    sync.Once
	written chan struct{}
}

func (w *signalWriter) Write(p []byte) (int, error) {
	n, err := w.buf.Write(p)
	w.once.Do(func() { close(w.written) })
	return n, err
}

func TestRunLinkShowsLoadingCard(t *testing.T) {
	out, _ := isolate(t)
	useMockProvider(&mockProvider{})
	isInteractive = func() bool { return true }
	refreshNoticeDelay = 10 * time.Millisecond

	errOut := &signalWriter{written: make(chan struct{})}
	ioErr = errOut
	newProber = func(*http.Client, *config.Config) links.Prober {
		return proberFunc(func(_ context.Context, store links.Storefront, title string) (string, error) {
			select {
			case <-errOut.written:
			case <-time.After(2 * time.Second):
			}
			return store.URL(title), nil
		})
	}

	require.NoError(t, runLink(linkCmd, []string{"Yoga Mat"}))

	assert.Contains(t, errOut.buf.String(), "Yoga Mat")
	assert.Contains(t, errOut.buf.String(), "Searching for a link...")
	assert.Equal(t, "https://www.trendyol.com/sr?q=Yoga+Mat\n", out.String())
}

func TestRunLinkFastLookupSkipsLoadingCard(t *testing.T) {
	out, errOut := isolate(t)
	useMockProvider(&mockProvider{})
	isInteractive = func() bool { return true }
	refreshNoticeDelay = time.Hour

	require.NoError(t, runLink(linkCmd, []string{"Kite"}))

	assert.Empty(t, errOut.String())
	assert.Equal(t, "https://www.trendyol.com/sr?q=Kite\n", out.String())
}
