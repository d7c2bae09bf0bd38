package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/forPelevin/trendclip/internal/types"
)

func ReadKeywords(path string) ([]types.Keyword, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	ks, err := DecodeKeywords(f)
	if err != nil {
		return nil, fmt.Errorf("read keywords %s: %w", path, err)
	}
	return ks, nil
}

// DecodeKeywords parses an Item,Value table of scored keywords.
func DecodeKeywords(r io.Reader) ([]types.Keyword, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	head, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("missing header row")
	}
	if err != nil {
		return nil, err
	}
	col, err := columns(head, "Item", "Value")
	if err != nil {
		return nil, err
	}

	var out []types.Keyword
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
		k := types.Keyword{Item: field(rec, col["Item"])}
		if k.Item == "" {
			continue
		}
		k.Value, err = strconv.ParseFloat(field(rec, col["Value"]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: Value: %w", line, err)
		}
		out = append(out, k)
	}
}

// TopN returns the items of the n highest-valued keywords. Ties keep file order.
func TopN(ks []types.Keyword, n int) []string {
	cp := make([]types.Keyword, len(ks))
	copy(cp, ks)
	sort.SliceStable(cp, func(i, j int) bool { return cp[i].Value > cp[j].Value })
	if n >= 0 && n < len(cp) {
		cp = cp[:n]
	}
	out := make([]string, len(cp))
	for i, k := range cp {
		out[i] = k.Item
	}
	return out
}

// SplitList parses a comma separated keyword flag, dropping blanks and
// repeated words while keeping first-seen order.
func SplitList(s string) []string {
	var out []string
	seen := map[string]bool{}
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		key := strings.ToLower(p)
		if p == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, p)
	}
	return out
}
