// Package clipname maps clips to and from their "{word}_clip_{index}.mp4" file names.
package clipname

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/forPelevin/trendclip/internal/types"
)

const Ext = ".mp4"

var ErrNotClip = errors.New("not a clip file name")

var reClip = regexp.MustCompile(`^([\p{L}\p{M}\p{N}_]+)_clip_(\d+)\.mp4$`)

// Name returns the base file name for the index-th clip of word.
func Name(word string, index int) string {
	return fmt.Sprintf("%s_clip_%d%s", word, index, Ext)
}

// Path joins dir with Name and returns the resulting Clip.
func Path(dir, word string, index int) types.Clip {
	return types.Clip{Word: word, Index: index, Path: filepath.Join(dir, Name(word, index))}
}

// Parse extracts word and index from a clip path. Only the base name is matched.
func Parse(path string) (types.Clip, error) {
	m := reClip.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return types.Clip{}, fmt.Errorf("%w: %s", ErrNotClip, filepath.Base(path))
	}
	n, err := strconv.Atoi(m[2])
	if err != nil || n < 1 {
		return types.Clip{}, fmt.Errorf("%w: bad index in %s", ErrNotClip, filepath.Base(path))
	}
	return types.Clip{Word: m[1], Index: n, Path: path}, nil
}

// Sidecar returns the path of the subtitle file written next to a clip.
func Sidecar(clip types.Clip) string {
	return filepath.Join(filepath.Dir(clip.Path), fmt.Sprintf("%s_clip_%d.ass", clip.Word, clip.Index))
}
