package ffmpegx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultBin     = "ffmpeg"
	DefaultOffset  = "00:00:01"
	DefaultWidth   = 270
	DefaultHeight  = 480
	DefaultQuality = 2
)

// Options 是单帧抽取的固定参数；一次运行内不变。
type Options struct {
	Bin     string
	Offset  string // 抽帧时间点（HH:MM:SS）；源比它短时由工具自行取最近可用帧
	Width   int
	Height  int
	Quality int           // -q:v，1-31，越小越好
	Timeout time.Duration // 单次抽帧限时；0 表示不限时
}

// Extractor 抽象外部抽帧工具，测试里可替换为桩实现。
type Extractor interface {
	// Available 校验外部工具可用；不可用返回 *ToolError。
	// 调用方约定：apply 模式必须在任何写入之前调用一次。
	Available() error
	// ExtractFrame 同步抽取单帧并写入 dst：阻塞直到子进程退出。
	ExtractFrame(ctx context.Context, src, dst string) error
}

// ToolError 表示外部工具缺失或无法执行。
type ToolError struct {
	Bin string
	Err error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("外部工具 %q 不可用：%v（请先安装 ffmpeg，例如 brew install ffmpeg）", e.Bin, e.Err)
}

func (e *ToolError) Unwrap() error { return e.Err }

// IsToolMissing 判断 err 是否为外部工具缺失错误。
func IsToolMissing(err error) bool {
	var e *ToolError
	return errors.As(err, &e)
}

// ExtractError 表示一次抽帧失败，携带截断后的 stderr 诊断文本。
type ExtractError struct {
	Src    string
	Stderr string
	Err    error
}

func (e *ExtractError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("抽帧失败：%v：%s", e.Err, e.Stderr)
	}
	return fmt.Sprintf("抽帧失败：%v", e.Err)
}

func (e *ExtractError) Unwrap() error { return e.Err }

// FFmpeg 是基于子进程的真实实现。
type FFmpeg struct {
	Opts Options
}

// New 返回归一化过默认值的 FFmpeg。
func New(opts Options) *FFmpeg {
	if strings.TrimSpace(opts.Bin) == "" {
		opts.Bin = DefaultBin
	}
	if strings.TrimSpace(opts.Offset) == "" {
		opts.Offset = DefaultOffset
	}
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = DefaultHeight
	}
	if opts.Quality <= 0 {
		opts.Quality = DefaultQuality
	}
	return &FFmpeg{Opts: opts}
}

// Available 先查 PATH，再静默跑一次 -version。
// 后者能暴露“PATH 命中但无法执行”（权限/损坏）的情况，避免遍历到一半才失败。
func (f *FFmpeg) Available() error {
	if _, err := exec.LookPath(f.Opts.Bin); err != nil {
		return &ToolError{Bin: f.Opts.Bin, Err: err}
	}

	cmd := exec.Command(f.Opts.Bin, "-version")
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard
	if err := cmd.Run(); err != nil {
		return &ToolError{Bin: f.Opts.Bin, Err: err}
	}
	return nil
}

// Version 返回 -version 输出的首行（check 用）。
func (f *FFmpeg) Version() (string, error) {
	var out bytes.Buffer
	cmd := exec.Command(f.Opts.Bin, "-version")
	cmd.Stdout = &out
	cmd.Stderr = io.Discard
	if err := cmd.Run(); err != nil {
		return "", &ToolError{Bin: f.Opts.Bin, Err: err}
	}

	line := out.String()
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	return strings.TrimSpace(line), nil
}

// ExtractFrame 执行一次单帧抽取。Timeout > 0 时超时按抽帧失败处理。
func (f *FFmpeg) ExtractFrame(ctx context.Context, src, dst string) error {
	if f.Opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Opts.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, f.Opts.Bin, BuildArgs(src, dst, f.Opts)...)

	var stderr bytes.Buffer
	cmd.Stdout = io.Discard
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return &ExtractError{Src: src, Stderr: truncate(stderr.String(), 200), Err: err}
	}
	return nil
}

// BuildArgs 生成与抽帧策略一一对应的参数表。
// 顺序固定：输入、时间点、帧数、滤镜、质量、覆盖开关、输出。
func BuildArgs(src, dst string, o Options) []string {
	return []string{
		"-i", src,
		"-ss", o.Offset,
		"-vframes", "1",
		"-vf", FilterExpr(o.Width, o.Height),
		"-q:v", strconv.Itoa(o.Quality),
		"-y",
		dst,
	}
}

// FilterExpr 是固定的“等比缩放 + 居中补边 + SAR 归一”滤镜表达式：
// 先按比例缩放进 W×H 的竖版外框，再居中补边到精确分辨率，最后归一像素宽高比。
func FilterExpr(w, h int) string {
	return fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,setsar=1",
		w, h, w, h,
	)
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
