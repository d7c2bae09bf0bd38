package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/forPelevin/trendclip/internal/domain/overlay"
)

// EnvPath names the environment variable that points at a config file.
const EnvPath = "TRENDCLIP_CONFIG"

type Config struct {
	OutDir      string  `yaml:"out_dir"`
	TimeRange   float64 `yaml:"time_range"`
	TopN        int     `yaml:"top_n"`
	Concurrency int     `yaml:"concurrency"`

	FFmpeg   FFmpegConfig   `yaml:"ffmpeg"`
	Captions CaptionsConfig `yaml:"captions"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type FFmpegConfig struct {
	BinaryPath string `yaml:"binary_path"`
	ProbePath  string `yaml:"probe_path"`
	VideoCodec string `yaml:"video_codec"`
	AudioCodec string `yaml:"audio_codec"`
	Preset     string `yaml:"preset"`
	CRF        int    `yaml:"crf"`
}

type CaptionsConfig struct {
	FontPath     string   `yaml:"font_path"`
	FontSize     float64  `yaml:"font_size"`
	Palette      []string `yaml:"palette"`
	ColorEvery   int      `yaml:"color_every"`
	BottomMargin int      `yaml:"bottom_margin"`
	ShadowOffset int      `yaml:"shadow_offset"`
	ShadowAlpha  int      `yaml:"shadow_alpha"`
	OutlineWidth int      `yaml:"outline_width"`
	Fade         float64  `yaml:"fade"`
	Subtitles    bool     `yaml:"subtitles"`
}

type LoggingConfig struct {
	Format string `yaml:"format"` // console or json
}

// Load reads configuration from path, or from the first file found on the
// search path, layered over defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = findConfigFile()
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Default() *Config {
	st := overlay.DefaultStyle()
	return &Config{
		OutDir:    "out",
		TimeRange: 15,
		TopN:      5,
		FFmpeg: FFmpegConfig{
			BinaryPath: "ffmpeg",
			ProbePath:  "ffprobe",
			VideoCodec: "libx264",
			AudioCodec: "aac",
			Preset:     "veryfast",
			CRF:        18,
		},
		Captions: CaptionsConfig{
			FontSize:     st.FontSize,
			Palette:      append([]string(nil), overlay.DefaultPalette...),
			ColorEvery:   st.ColorEvery,
			BottomMargin: st.BottomMargin,
			ShadowOffset: st.ShadowOffset,
			ShadowAlpha:  int(st.ShadowAlpha),
			OutlineWidth: st.OutlineWidth,
			Fade:         st.Fade,
		},
		Logging: LoggingConfig{Format: "console"},
	}
}

func findConfigFile() string {
	if p := os.Getenv(EnvPath); p != "" {
		return p
	}
	candidates := []string{
		"./trendclip.yaml",
		"./config.yaml",
		filepath.Join(os.Getenv("HOME"), ".trendclip", "config.yaml"),
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func (c *Config) Validate() error {
	if c.TimeRange <= 0 || math.IsNaN(c.TimeRange) || math.IsInf(c.TimeRange, 0) {
		return fmt.Errorf("time_range must be a positive number of seconds")
	}
	if c.TopN < 0 {
		return fmt.Errorf("top_n must be >= 0")
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency must be >= 0")
	}
	if c.FFmpeg.CRF < 0 || c.FFmpeg.CRF > 51 {
		return fmt.Errorf("ffmpeg.crf must be within [0, 51]")
	}
	if c.Captions.FontSize <= 0 {
		return fmt.Errorf("captions.font_size must be > 0")
	}
	if c.Captions.Fade < 0 {
		return fmt.Errorf("captions.fade must be >= 0")
	}
	if c.Captions.ShadowAlpha < 0 || c.Captions.ShadowAlpha > 255 {
		return fmt.Errorf("captions.shadow_alpha must be within [0, 255]")
	}
	if _, err := overlay.ParsePalette(c.Captions.Palette); err != nil {
		return fmt.Errorf("captions.palette: %w", err)
	}
	if c.Captions.FontPath != "" {
		if _, err := os.Stat(c.Captions.FontPath); err != nil {
			return fmt.Errorf("captions.font_path: %w", err)
		}
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json")
	}

	if c.OutDir == "" {
		c.OutDir = "out"
	}
	if c.Captions.ColorEvery <= 0 {
		c.Captions.ColorEvery = 10
	}
	return nil
}

// Style converts the captions section into a drawing style.
func (c *Config) Style() (overlay.Style, error) {
	pal, err := overlay.ParsePalette(c.Captions.Palette)
	if err != nil {
		return overlay.Style{}, err
	}
	st := overlay.DefaultStyle()
	st.FontPath = c.Captions.FontPath
	st.FontSize = c.Captions.FontSize
	st.Palette = pal
	st.ColorEvery = c.Captions.ColorEvery
	st.BottomMargin = c.Captions.BottomMargin
	st.ShadowOffset = c.Captions.ShadowOffset
	st.ShadowAlpha = uint8(c.Captions.ShadowAlpha)
	st.OutlineWidth = c.Captions.OutlineWidth
	st.Fade = c.Captions.Fade
	return st, nil
}
