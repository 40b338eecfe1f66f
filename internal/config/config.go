package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/John-Robertt/WaveGal/internal/domain"
)

// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
const ErrCodeInvalid = "config_invalid"

// FileName 是项目根下的配置文件名。文件可选：缺失时使用内置默认表。
const FileName = "wavegal.yml"

// CLIArgs 只包含 CLI 暴露的两项入口（path/apply），并保留“是否显式指定”的信息。
// 这能保证覆盖优先级可实现：例如 --apply=false 必须能覆盖 config.apply=true。
type CLIArgs struct {
	Path string

	Apply    bool
	ApplySet bool
}

// CategoryEntry 是配置文件里的一条分类映射。
type CategoryEntry struct {
	Key   string `yaml:"key"`
	Dir   string `yaml:"dir"`
	Group string `yaml:"group"`
}

// AggregateEntry 是配置文件里的一条聚合分类定义。
type AggregateEntry struct {
	Key     string   `yaml:"key"`
	From    []string `yaml:"from"`
	Comment string   `yaml:"comment"`
}

type FFmpegEntry struct {
	Bin     string `yaml:"bin" env:"WAVEGAL_FFMPEG_BIN"`
	Offset  string `yaml:"offset" env:"WAVEGAL_FFMPEG_OFFSET"`
	Width   int    `yaml:"width" env:"WAVEGAL_FFMPEG_WIDTH"`
	Height  int    `yaml:"height" env:"WAVEGAL_FFMPEG_HEIGHT"`
	Quality int    `yaml:"quality" env:"WAVEGAL_FFMPEG_QUALITY"`
	// Timeout 用 time.ParseDuration 格式；空串或 "0" 表示不限时。
	Timeout string `yaml:"timeout" env:"WAVEGAL_FFMPEG_TIMEOUT"`
}

type MarkersEntry struct {
	Open  string `yaml:"open"`
	Close string `yaml:"close"`
}

// FileConfig 对应 wavegal.yml 的解析结构（cleanenv：yaml + WAVEGAL_* 环境变量覆盖）。
type FileConfig struct {
	VideoDir string `yaml:"video_dir" env:"WAVEGAL_VIDEO_DIR"`
	ThumbDir string `yaml:"thumb_dir" env:"WAVEGAL_THUMB_DIR"`
	HTMLFile string `yaml:"html_file" env:"WAVEGAL_HTML_FILE"`

	Apply *bool `yaml:"apply"`

	Categories       []CategoryEntry  `yaml:"categories"`
	Aggregates       []AggregateEntry `yaml:"aggregates"`
	TrendingKeywords []string         `yaml:"trending_keywords"`

	FFmpeg  FFmpegEntry  `yaml:"ffmpeg"`
	Markers MarkersEntry `yaml:"markers"`
}

// Default 返回内置默认配置：分类表、聚合表与热门关键字表与站点现状一致。
func Default() FileConfig {
	return FileConfig{
		VideoDir: "街聲波影片",
		ThumbDir: "thumbnails",
		HTMLFile: "index.html",
		Categories: []CategoryEntry{
			{Key: "neutral", Dir: "中性素材（15）"},
			{Key: "realistic", Dir: "寫實人物（15）"},
			{Key: "sky", Dir: "天空系列（8）", Group: "山海大地自然（30）"},
			{Key: "mountain", Dir: "山脈系列（7）", Group: "山海大地自然（30）"},
			{Key: "forest", Dir: "森林系列（7）", Group: "山海大地自然（30）"},
			{Key: "ocean", Dir: "海洋系列（8）", Group: "山海大地自然（30）"},
			{Key: "funny", Dir: "搞怪素材（11）"},
		},
		Aggregates: []AggregateEntry{
			{
				Key:     "all",
				From:    []string{"neutral", "realistic", "sky", "mountain", "forest", "ocean", "funny"},
				Comment: "// 合併所有影片到 all 分類",
			},
			{
				Key:     "nature",
				From:    []string{"sky", "mountain", "forest", "ocean"},
				Comment: "// 合併自然分類的子系列",
			},
		},
		TrendingKeywords: []string{
			"極光", "台北", "粒子", "彩色波", "聽團仔", "80 年代",
			"可愛", "日落", "陽光", "波光", "人潮", "三角形",
		},
		FFmpeg: FFmpegEntry{
			Bin:     "ffmpeg",
			Offset:  "00:00:01",
			Width:   270,
			Height:  480,
			Quality: 2,
		},
		Markers: MarkersEntry{
			Open:  "const videoData = {",
			Close: "};",
		},
	}
}

// Effective 是合并并做最小规范化后的最终配置（实现层直接消费，不再做二次默认/优先级判断）。
type Effective struct {
	Path  string // 项目根（clean + absolute）
	Apply bool

	VideoDir string // 以下三项均已换算为绝对路径
	ThumbDir string
	HTMLFile string

	Categories       []domain.CategorySpec
	Aggregates       []domain.AggregateSpec
	TrendingKeywords []string

	FFmpegBin string
	Offset    string
	Width     int
	Height    int
	Quality   int
	Timeout   time.Duration

	MarkerOpen  string
	MarkerClose string
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s：配置 %q 无效：%v", e.Code, e.Path, e.Err)
	}
	return fmt.Sprintf("%s：配置 %q 无效", e.Code, e.Path)
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LoadEffective 发现并读取配置，然后与 CLI 参数合并为最终配置。
//
// 发现规则（固定）：
// 1) 项目根 = CLI path（可为相对 cwd 的路径）；未提供则为 cwd
// 2) <根>/wavegal.yml 存在则读取（yaml 字段覆盖默认值，再叠加环境变量）；
//    不存在不是错误：使用内置默认表（环境变量仍然生效）
//
// 覆盖优先级（固定）：
// - apply：CLI --apply/--apply=false > config > 默认 false
// - 其余字段：环境变量 > 配置文件 > 内置默认
func LoadEffective(cwd string, cli CLIArgs) (Effective, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return Effective{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	root := cwdAbs
	if strings.TrimSpace(cli.Path) != "" {
		root = absCleanFrom(cwdAbs, cli.Path)
	}

	cfgPath := filepath.Join(root, FileName)
	fc := Default()

	if _, err := os.Stat(cfgPath); err == nil {
		if err := cleanenv.ReadConfig(cfgPath, &fc); err != nil {
			return Effective{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}
	} else if !os.IsNotExist(err) {
		return Effective{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	} else if err := cleanenv.ReadEnv(&fc); err != nil {
		return Effective{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}

	return merge(root, cfgPath, cli, fc)
}

// identRe 限制分类/聚合键：它们会成为宿主脚本里的对象键与属性访问，必须是合法标识符。
var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func merge(root, cfgPath string, cli CLIArgs, fc FileConfig) (Effective, error) {
	fail := func(err error) (Effective, error) {
		return Effective{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}

	apply := false
	if cli.ApplySet {
		apply = cli.Apply
	} else if fc.Apply != nil {
		apply = *fc.Apply
	}

	if strings.TrimSpace(fc.VideoDir) == "" {
		return fail(fmt.Errorf("video_dir 不能为空"))
	}
	if strings.TrimSpace(fc.ThumbDir) == "" {
		return fail(fmt.Errorf("thumb_dir 不能为空"))
	}
	if strings.TrimSpace(fc.HTMLFile) == "" {
		return fail(fmt.Errorf("html_file 不能为空"))
	}

	if len(fc.Categories) == 0 {
		return fail(fmt.Errorf("categories 不能为空"))
	}
	seen := make(map[string]struct{}, len(fc.Categories)+len(fc.Aggregates))
	cats := make([]domain.CategorySpec, 0, len(fc.Categories))
	for i, c := range fc.Categories {
		key := strings.TrimSpace(c.Key)
		dir := strings.TrimSpace(c.Dir)
		group := strings.TrimSpace(c.Group)

		if !identRe.MatchString(key) {
			return fail(fmt.Errorf("categories[%d].key 不是合法标识符：%q", i, c.Key))
		}
		if _, dup := seen[key]; dup {
			return fail(fmt.Errorf("分类键重复：%q", key))
		}
		seen[key] = struct{}{}

		if dir == "" {
			return fail(fmt.Errorf("categories[%d].dir 不能为空", i))
		}
		if strings.ContainsAny(dir, `/\`) || strings.ContainsAny(group, `/\`) {
			return fail(fmt.Errorf("分类目录名必须是单级目录：%q", c.Dir))
		}

		cats = append(cats, domain.CategorySpec{Key: key, Dir: dir, Group: group})
	}

	aggs := make([]domain.AggregateSpec, 0, len(fc.Aggregates))
	for i, a := range fc.Aggregates {
		key := strings.TrimSpace(a.Key)
		if !identRe.MatchString(key) {
			return fail(fmt.Errorf("aggregates[%d].key 不是合法标识符：%q", i, a.Key))
		}
		if _, dup := seen[key]; dup {
			return fail(fmt.Errorf("聚合键与已有键重复：%q", key))
		}
		seen[key] = struct{}{}

		if len(a.From) == 0 {
			return fail(fmt.Errorf("aggregates[%d].from 不能为空", i))
		}
		from := make([]string, 0, len(a.From))
		for _, f := range a.From {
			f = strings.TrimSpace(f)
			if !containsKey(cats, f) {
				return fail(fmt.Errorf("聚合 %q 引用了未定义的分类键：%q", key, f))
			}
			from = append(from, f)
		}

		aggs = append(aggs, domain.AggregateSpec{Key: key, From: from, Comment: strings.TrimSpace(a.Comment)})
	}

	keywords := make([]string, 0, len(fc.TrendingKeywords))
	for _, k := range fc.TrendingKeywords {
		if k = strings.TrimSpace(k); k != "" {
			keywords = append(keywords, k)
		}
	}

	if strings.TrimSpace(fc.FFmpeg.Bin) == "" {
		return fail(fmt.Errorf("ffmpeg.bin 不能为空"))
	}
	if strings.TrimSpace(fc.FFmpeg.Offset) == "" {
		return fail(fmt.Errorf("ffmpeg.offset 不能为空"))
	}
	if fc.FFmpeg.Width <= 0 || fc.FFmpeg.Height <= 0 {
		return fail(fmt.Errorf("ffmpeg.width/height 必须为正：%dx%d", fc.FFmpeg.Width, fc.FFmpeg.Height))
	}
	if fc.FFmpeg.Quality < 1 || fc.FFmpeg.Quality > 31 {
		return fail(fmt.Errorf("ffmpeg.quality 必须在 [1, 31]：%d", fc.FFmpeg.Quality))
	}

	timeout := time.Duration(0)
	if s := strings.TrimSpace(fc.FFmpeg.Timeout); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return fail(fmt.Errorf("ffmpeg.timeout 无效：%w", err))
		}
		if d < 0 {
			return fail(fmt.Errorf("ffmpeg.timeout 不能为负：%s", s))
		}
		timeout = d
	}

	if fc.Markers.Open == "" || fc.Markers.Close == "" {
		return fail(fmt.Errorf("markers.open/close 不能为空"))
	}

	return Effective{
		Path:  root,
		Apply: apply,

		VideoDir: absCleanFrom(root, fc.VideoDir),
		ThumbDir: absCleanFrom(root, fc.ThumbDir),
		HTMLFile: absCleanFrom(root, fc.HTMLFile),

		Categories:       cats,
		Aggregates:       aggs,
		TrendingKeywords: keywords,

		FFmpegBin: strings.TrimSpace(fc.FFmpeg.Bin),
		Offset:    strings.TrimSpace(fc.FFmpeg.Offset),
		Width:     fc.FFmpeg.Width,
		Height:    fc.FFmpeg.Height,
		Quality:   fc.FFmpeg.Quality,
		Timeout:   timeout,

		MarkerOpen:  fc.Markers.Open,
		MarkerClose: fc.Markers.Close,
	}, nil
}

func containsKey(cats []domain.CategorySpec, key string) bool {
	for _, c := range cats {
		if c.Key == key {
			return true
		}
	}
	return false
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
// - p 若已是绝对路径：直接 Clean
// - p 若是相对路径：Join(base, p) 后 Clean
func absCleanFrom(base, p string) string {
	p = filepath.Clean(strings.TrimSpace(p))
	if p == "" {
		return ""
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}
