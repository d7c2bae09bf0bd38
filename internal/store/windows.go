// Package store reads and writes the files stages hand to each other.
package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/forPelevin/trendclip/internal/types"
)

var windowHeader = []string{"word", "original_start", "lower_bound", "upper_bound"}

func WriteWindows(path string, ws []types.TimeWindow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := EncodeWindows(f, ws); err != nil {
		f.Close()
		return fmt.Errorf("write windows: %w", err)
	}
	return f.Close()
}

func EncodeWindows(w io.Writer, ws []types.TimeWindow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(windowHeader); err != nil {
		return err
	}
	for _, win := range ws {
		rec := []string{win.Word, fmtFloat(win.OriginalStart), fmtFloat(win.LowerBound), fmtFloat(win.UpperBound)}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func ReadWindows(path string) ([]types.TimeWindow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	ws, err := DecodeWindows(f)
	if err != nil {
		return nil, fmt.Errorf("read windows %s: %w", path, err)
	}
	return ws, nil
}

// DecodeWindows parses a window table. Columns are located by header name, so
// extra columns are ignored.
func DecodeWindows(r io.Reader) ([]types.TimeWindow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	head, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("missing header row")
	}
	if err != nil {
		return nil, err
	}
	col, err := columns(head, windowHeader...)
	if err != nil {
		return nil, err
	}

	var out []types.TimeWindow
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		if blank(rec) {
			continue
		}
		w := types.TimeWindow{Word: field(rec, col["word"])}
		if w.Word == "" {
			return nil, fmt.Errorf("line %d: empty word", line)
		}
		for _, f := range []struct {
			name string
			dst  *float64
		}{
			{"original_start", &w.OriginalStart},
			{"lower_bound", &w.LowerBound},
			{"upper_bound", &w.UpperBound},
		} {
			v, err := strconv.ParseFloat(field(rec, col[f.name]), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: %s: %w", line, f.name, err)
			}
			*f.dst = v
		}
		out = append(out, w)
	}
}

// WindowFor returns the first window recorded for word.
func WindowFor(ws []types.TimeWindow, word string) (types.TimeWindow, bool) {
	for _, w := range ws {
		if w.Word == word {
			return w, true
		}
	}
	return types.TimeWindow{}, false
}

// NthWindow returns the n-th (1-based) window recorded for word.
func NthWindow(ws []types.TimeWindow, word string, n int) (types.TimeWindow, bool) {
	seen := 0
	for _, w := range ws {
		if w.Word != word {
			continue
		}
		seen++
		if seen == n {
			return w, true
		}
	}
	return types.TimeWindow{}, false
}

func columns(head []string, want ...string) (map[string]int, error) {
	col := make(map[string]int, len(head))
	for i, h := range head {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := col[h]; !dup {
			col[h] = i
		}
	}
	for _, w := range want {
		if _, ok := col[w]; !ok {
			return nil, fmt.Errorf("missing column %q", w)
		}
	}
	return col, nil
}

func field(rec []string, i int) string {
	if i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func blank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func fmtFloat(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
