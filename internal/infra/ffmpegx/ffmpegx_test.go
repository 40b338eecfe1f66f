package ffmpegx

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestBuildArgs_FixedOrder(t *testing.T) {
	o := Options{
		Bin:     "ffmpeg",
		Offset:  "00:00:01",
		Width:   270,
		Height:  480,
		Quality: 2,
	}

	got := BuildArgs("in/v.mp4", "out/v.jpg", o)
	want := []string{
		"-i", "in/v.mp4",
		"-ss", "00:00:01",
		"-vframes", "1",
		"-vf", "scale=270:480:force_original_aspect_ratio=decrease,pad=270:480:(ow-iw)/2:(oh-ih)/2,setsar=1",
		"-q:v", "2",
		"-y",
		"out/v.jpg",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("期望 %v\n实际 %v", want, got)
	}
}

func TestFilterExpr(t *testing.T) {
	got := FilterExpr(100, 200)
	want := "scale=100:200:force_original_aspect_ratio=decrease,pad=100:200:(ow-iw)/2:(oh-ih)/2,setsar=1"
	if got != want {
		t.Fatalf("期望 %q，实际 %q", want, got)
	}
}

func TestNew_NormalizesDefaults(t *testing.T) {
	f := New(Options{})

	want := Options{
		Bin:     DefaultBin,
		Offset:  DefaultOffset,
		Width:   DefaultWidth,
		Height:  DefaultHeight,
		Quality: DefaultQuality,
	}
	if f.Opts != want {
		t.Fatalf("期望 %+v，实际 %+v", want, f.Opts)
	}

	// 显式值不被默认值覆盖。
	f = New(Options{Bin: "avconv", Offset: "00:00:05", Width: 1, Height: 2, Quality: 31, Timeout: time.Second})
	if f.Opts.Bin != "avconv" || f.Opts.Offset != "00:00:05" || f.Opts.Width != 1 || f.Opts.Height != 2 || f.Opts.Quality != 31 || f.Opts.Timeout != time.Second {
		t.Fatalf("显式值被覆盖：%+v", f.Opts)
	}
}

func TestAvailable_MissingBinary(t *testing.T) {
	f := New(Options{Bin: "绝对不存在的工具-wavegal-test"})

	err := f.Available()
	if err == nil {
		t.Fatalf("期望错误，实际 nil")
	}
	if !IsToolMissing(err) {
		t.Fatalf("期望 ToolError，实际 %T：%v", err, err)
	}
	if !strings.Contains(err.Error(), "请先安装 ffmpeg") {
		t.Fatalf("错误信息应包含安装指引：%v", err)
	}
}

func TestToolErrorUnwrapAndMatch(t *testing.T) {
	inner := &ToolError{Bin: "ffmpeg"}
	wrapped := &ExtractError{Src: "x.mp4", Err: inner}

	// IsToolMissing 走 errors.As，包一层也能识别。
	if !IsToolMissing(wrapped) {
		t.Fatalf("期望包裹后的 ToolError 也能被识别")
	}
	if IsToolMissing(nil) {
		t.Fatalf("nil 不应命中")
	}
}

func TestExtractError_Message(t *testing.T) {
	e := &ExtractError{Src: "a.mp4", Stderr: "moov atom not found", Err: errExit}
	if !strings.Contains(e.Error(), "moov atom not found") {
		t.Fatalf("错误信息应包含 stderr 诊断：%v", e)
	}

	noDiag := &ExtractError{Src: "a.mp4", Err: errExit}
	if strings.Contains(noDiag.Error(), "：：") {
		t.Fatalf("无诊断文本时不应有悬空分隔：%v", noDiag)
	}
}

var errExit = &exitErr{}

type exitErr struct{}

func (*exitErr) Error() string { return "exit status 1" }

func TestTruncate(t *testing.T) {
	if got := truncate("  abc  ", 10); got != "abc" {
		t.Fatalf("期望修剪空白，实际 %q", got)
	}
	if got := truncate("abcdef", 3); got != "abc…" {
		t.Fatalf("期望截断加省略号，实际 %q", got)
	}
	// 多字节诊断按 rune 截断，不能切出半个字符。
	if got := truncate("抽帧诊断文本", 2); got != "抽帧…" {
		t.Fatalf("期望按字符截断，实际 %q", got)
	}
}
