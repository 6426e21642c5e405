package net

import (
	"bufio"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

// Direction of a captured frame.
const (
	DirIn  = "in"
	DirOut = "out"
)

// Recorder receives every raw frame that crosses the session, before
// outbound encryption. Implementations must be safe for concurrent use.
type Recorder interface {
	Record(dir string, frame []byte)
}

// CaptureRecord is one line of a capture file.
type CaptureRecord struct {
	Time   time.Time `json:"t"`
	Dir    string    `json:"dir"`
	Opcode string    `json:"op"`
	Data   string    `json:"data"`
}

// Frame decodes the hex payload back to bytes.
func (r CaptureRecord) Frame() ([]byte, error) {
	return hex.DecodeString(r.Data)
}

// Capture writes frames as zstd-compressed JSON lines.
type Capture struct {
	mu  sync.Mutex
	f   io.Closer
	enc *zstd.Encoder
	w   *bufio.Writer
	err error
}

// OpenCapture creates a capture file in dir named after the start time.
func OpenCapture(dir string) (*Capture, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("capture dir: %w", err)
	}
	name := filepath.Join(dir, fmt.Sprintf("capture-%s.jsonl.zst", time.Now().UTC().Format("2006-01-02-150405")))
	f, err := os.Create(name)
	if err != nil {
		return nil, fmt.Errorf("capture file: %w", err)
	}
	c, err := NewCapture(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	c.f = f
	return c, nil
}

// NewCapture writes to an arbitrary sink. Close flushes but does not close w.
func NewCapture(w io.Writer) (*Capture, error) {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, fmt.Errorf("zstd writer: %w", err)
	}
	return &Capture{enc: enc, w: bufio.NewWriterSize(enc, 64*1024)}, nil
}

func (c *Capture) Record(dir string, frame []byte) {
	if len(frame) == 0 {
		return
	}
	rec := CaptureRecord{
		Time:   time.Now().UTC(),
		Dir:    dir,
		Opcode: fmt.Sprintf("0x%02X", frame[0]),
		Data:   hex.EncodeToString(frame),
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil || c.w == nil {
		return
	}
	if _, err := c.w.Write(b); err != nil {
		c.err = err
		return
	}
	c.err = c.w.WriteByte('\n')
}

// Err returns the first write error, if any.
func (c *Capture) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *Capture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.w == nil {
		return c.err
	}
	err := c.w.Flush()
	if cerr := c.enc.Close(); err == nil {
		err = cerr
	}
	if c.f != nil {
		if cerr := c.f.Close(); err == nil {
			err = cerr
		}
	}
	c.w = nil
	return err
}

// ReadCapture decodes every record of a capture stream.
func ReadCapture(r io.Reader) ([]CaptureRecord, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("zstd reader: %w", err)
	}
	defer dec.Close()

	var out []CaptureRecord
	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 0, 64*1024), 4*maxFrame)
	for sc.Scan() {
		var rec CaptureRecord
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			return out, fmt.Errorf("capture line %d: %w", len(out)+1, err)
		}
		out = append(out, rec)
	}
	return out, sc.Err()
}
