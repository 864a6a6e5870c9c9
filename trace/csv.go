package trace

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/structs"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// CSVRecorder writes accesses to a CSV file, one row per access.
type CSVRecorder struct {
	path   string
	file   *os.File
	writer *csv.Writer

	accesses   []Access
	bufferSize int
	closed     bool
}

// NewCSVRecorder creates the CSV file and writes the header. An empty path
// picks a unique name in the working directory. The file must not exist.
func NewCSVRecorder(path string) (*CSVRecorder, error) {
	if path == "" {
		path = "cachesim_trace_" + xid.New().String()
	}
	if !strings.HasSuffix(path, ".csv") {
		path += ".csv"
	}

	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("file %s already exists", path)
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace file: %w", err)
	}

	r := &CSVRecorder{
		path:       path,
		file:       file,
		writer:     csv.NewWriter(file),
		bufferSize: 1000,
	}

	if err := r.writer.Write(structs.Names(Access{})); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to write trace header: %w", err)
	}

	atexit.Register(func() { _ = r.Close() })

	return r, nil
}

// Path returns the file the recorder writes to.
func (r *CSVRecorder) Path() string {
	return r.path
}

// Record buffers an access and flushes once the buffer is full.
func (r *CSVRecorder) Record(access Access) error {
	if r.closed {
		return os.ErrClosed
	}

	r.accesses = append(r.accesses, access)
	if len(r.accesses) >= r.bufferSize {
		return r.Flush()
	}

	return nil
}

// Flush writes the buffered accesses to the file.
func (r *CSVRecorder) Flush() error {
	if r.closed {
		return nil
	}

	for _, a := range r.accesses {
		err := r.writer.Write([]string{
			a.Session,
			strconv.FormatUint(a.Seq, 10),
			a.Op,
			fmt.Sprintf("0x%02X", a.Address),
			fmt.Sprintf("0x%02X", a.Value),
			strconv.FormatBool(a.Hit),
			strconv.Itoa(a.SetIndex),
			fmt.Sprintf("%02X", a.Tag),
			strconv.Itoa(a.EvictedLine),
			strconv.Itoa(a.Dirty),
		})
		if err != nil {
			return fmt.Errorf("failed to write trace row: %w", err)
		}
	}
	r.accesses = nil

	r.writer.Flush()
	return r.writer.Error()
}

// Close flushes and closes the file. Closing twice is a no-op.
func (r *CSVRecorder) Close() error {
	if r.closed {
		return nil
	}

	flushErr := r.Flush()
	r.closed = true

	if err := r.file.Close(); err != nil {
		return err
	}

	return flushErr
}
