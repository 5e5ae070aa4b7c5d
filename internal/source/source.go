package source

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	v1 "github.com/aevon-lab/review-history/internal/api/v1"
)

// maxLineBytes bounds one JSON line; review texts can be long.
const maxLineBytes = 4 << 20

// Source yields one raw batch per call.
type Source interface {
	Fetch(ctx context.Context) ([]v1.RawRecord, error)
}

// FileSource reads a JSON lines file, or a file holding a single JSON array.
// The file is re-read on every Fetch.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) Path() string {
	return s.path
}

func (s *FileSource) Fetch(ctx context.Context) ([]v1.RawRecord, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("source: open %s: %w", s.path, err)
	}
	defer f.Close()

	records, skipped, err := Decode(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("source: read %s: %w", s.path, err)
	}
	if skipped > 0 {
		slog.Warn("[Source] Skipped malformed lines", "path", s.path, "skipped", skipped)
	}
	slog.Info("[Source] Loaded raw records", "path", s.path, "records", len(records))
	return records, nil
}

// Decode reads raw records from r. A leading '[' selects array mode, which
// fails on malformed input; otherwise each non-blank line is one object and
// malformed lines are counted and skipped. Numbers are kept as json.Number.
func Decode(ctx context.Context, r io.Reader) ([]v1.RawRecord, int, error) {
	br := bufio.NewReaderSize(r, 64*1024)

	first, err := peekNonSpace(br)
	if err == io.EOF {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, err
	}

	if first == '[' {
		dec := json.NewDecoder(br)
		dec.UseNumber()
		var records []v1.RawRecord
		if err := dec.Decode(&records); err != nil {
			return nil, 0, fmt.Errorf("decode array: %w", err)
		}
		return records, 0, nil
	}

	scanner := bufio.NewScanner(br)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var (
		records []v1.RawRecord
		skipped int
		lineNo  int
	)
	for scanner.Scan() {
		lineNo++
		if lineNo%10000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, 0, err
			}
		}

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		dec := json.NewDecoder(bytes.NewReader(line))
		dec.UseNumber()
		var rec v1.RawRecord
		if err := dec.Decode(&rec); err != nil || rec == nil {
			skipped++
			slog.Debug("[Source] Malformed line", "line", lineNo, "error", err)
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("scan lines: %w", err)
	}
	return records, skipped, nil
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		if err := br.UnreadByte(); err != nil {
			return 0, err
		}
		return b, nil
	}
}
