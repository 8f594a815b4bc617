package transport

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hockijo/techconnect/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSerial records writes and replays a fixed stream of responses.
type fakeSerial struct {
	mu      sync.Mutex
	written bytes.Buffer
	r       io.Reader
	closer  func() error
}

func (f *fakeSerial) Read(p []byte) (int, error) { return f.r.Read(p) }

func (f *fakeSerial) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.written.Write(p)
}

func (f *fakeSerial) Close() error {
	if f.closer != nil {
		return f.closer()
	}
	return nil
}

func (f *fakeSerial) lines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return strings.Split(strings.TrimSuffix(f.written.String(), "\n"), "\n")
}

func TestPrologixSetupAndQuery(t *testing.T) {
	responses := "RIGOL TECHNOLOGIES,DS4024,DS4A0001,00.02.03\n" + string(EncodeBlock(EncodeWords([]int16{5, -5})))
	port := &fakeSerial{r: strings.NewReader(responses)}

	ctx := context.Background()
	p, err := NewPrologix(ctx, port, 7, 500*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, "prologix  gpib 7", p.String())

	idn, err := p.Query(ctx, "*IDN?")
	require.NoError(t, err)
	assert.Equal(t, "RIGOL TECHNOLOGIES,DS4024,DS4A0001,00.02.03", idn)

	samples, err := p.QueryBinary(ctx, ":WAVEFORM:DATA?")
	require.NoError(t, err)
	assert.Equal(t, []int16{5, -5}, samples)

	require.NoError(t, p.Write(ctx, ":RUN"))

	assert.Equal(t, []string{
		"++mode 1",
		"++auto 0",
		"++eoi 1",
		"++eos 2",
		"++read_tmo_ms 500",
		"++addr 7",
		"*IDN?",
		"++read eoi",
		":WAVEFORM:DATA?",
		"++read eoi",
		":RUN",
	}, port.lines())
}

func TestPrologixReadTimeoutClamped(t *testing.T) {
	port := &fakeSerial{r: strings.NewReader("")}
	_, err := NewPrologix(context.Background(), port, 12, time.Minute)
	require.NoError(t, err)
	assert.Contains(t, port.lines(), "++read_tmo_ms 3000")
	assert.Contains(t, port.lines(), "++addr 12")
}

func TestPrologixTimeout(t *testing.T) {
	pr, pw := io.Pipe()
	port := &fakeSerial{r: pr, closer: pw.Close}
	defer port.Close()

	ctx := context.Background()
	p, err := NewPrologix(ctx, port, 7, 50*time.Millisecond)
	require.NoError(t, err)

	_, err = p.Query(ctx, ":ACQUIRE:POINTS?")
	assert.ErrorIs(t, err, schema.ErrTimeout)

	err = p.Write(ctx, "*CLS")
	assert.ErrorIs(t, err, schema.ErrTransport, "a timed out link refuses further traffic")
}
