package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/John-Robertt/WaveGal/internal/app/run"
	"github.com/John-Robertt/WaveGal/internal/config"
	"github.com/John-Robertt/WaveGal/internal/domain"
)

var _ run.Observer = (*progressUI)(nil)

// progressUI 是交互终端下的进度输出。
//
// 设计目标：
// - 所有过程信息写到 stderr（或退化到 stdout），不污染 stdout 的 JSON 输出契约
// - 事件驱动：run 层只发事件，CLI 决定如何展示
// - 执行全程串行，事件按顺序到达，无需加锁
type progressUI struct {
	w io.Writer

	startedAt time.Time
}

func newProgressUI(w io.Writer) *progressUI {
	return &progressUI{w: w}
}

func (p *progressUI) OnStart(eff config.Effective, command string) {
	now := time.Now()
	if p.startedAt.IsZero() {
		p.startedAt = now
	}

	mode := "dry-run"
	modeHint := " (不写入)"
	if eff.Apply {
		mode = "apply"
		modeHint = ""
	}

	fmt.Fprintf(p.w, "[%s] WaveGal %s (%s)\n", now.Format("15:04:05"), command, mode)
	fmt.Fprintln(p.w, "配置（生效）:")
	fmt.Fprintf(p.w, "  path: %s\n", eff.Path)
	fmt.Fprintf(p.w, "  mode: %s%s\n", mode, modeHint)
	fmt.Fprintf(p.w, "  video_dir: %s\n", eff.VideoDir)
	fmt.Fprintf(p.w, "  thumb_dir: %s\n", eff.ThumbDir)
	if command == "sync" {
		fmt.Fprintf(p.w, "  html_file: %s\n", eff.HTMLFile)
	}
	fmt.Fprintf(p.w, "  ffmpeg: %s (offset=%s, %dx%d, q=%d%s)\n",
		eff.FFmpegBin, eff.Offset, eff.Width, eff.Height, eff.Quality, timeoutHint(eff.Timeout),
	)
	fmt.Fprintln(p.w)
}

func (p *progressUI) OnPhaseDone(name string, fields map[string]any, dur time.Duration) {
	switch name {
	case "scan":
		// thumbs 的 scan 报 files；sync 的 scan 报 categories+records。
		if _, ok := fields["files"]; ok {
			fmt.Fprintf(p.w, "扫描: files=%d (%s)\n", intField(fields, "files"), formatShortDuration(dur))
		} else {
			fmt.Fprintf(p.w, "扫描: categories=%d records=%d (%s)\n",
				intField(fields, "categories"), intField(fields, "records"), formatShortDuration(dur),
			)
		}
	case "plan":
		fmt.Fprintf(p.w, "规划: tasks=%d\n", intField(fields, "tasks"))
	case "exec":
		fmt.Fprintf(p.w, "执行: total=%d\n\n", intField(fields, "total"))
	case "fill":
		if s, ok := fields["skipped"].(string); ok {
			fmt.Fprintf(p.w, "补缺: 跳过（%s）\n", truncate(s, 160))
		} else {
			fmt.Fprintf(p.w, "补缺: candidates=%d (%s)\n", intField(fields, "candidates"), formatShortDuration(dur))
		}
	case "html":
		st, _ := fields["status"].(string)
		fmt.Fprintf(p.w, "页面: %s (%s)\n", st, formatShortDuration(dur))
	default:
		// 兜底：未知阶段也不要静默（便于调试/演进）。
		fmt.Fprintf(p.w, "%s (%s)\n", name, formatShortDuration(dur))
	}
}

func (p *progressUI) OnItemDone(idx, total int, item domain.ThumbItem, dur time.Duration) {
	switch item.Status {
	case domain.StatusFailed:
		fmt.Fprintf(p.w, "[%d/%d] %s %s %s: %s (%s)\n",
			idx, total, item.Src, statusLabel(item.Status), item.ErrorCode, truncate(item.ErrorMsg, 160), formatShortDuration(dur),
		)
	case domain.StatusSkipped:
		fmt.Fprintf(p.w, "[%d/%d] %s %s (已存在) (%s)\n",
			idx, total, item.Src, statusLabel(item.Status), formatShortDuration(dur),
		)
	default:
		fmt.Fprintf(p.w, "[%d/%d] %s %s -> %s (%s)\n",
			idx, total, item.Src, statusLabel(item.Status), item.Dst, formatShortDuration(dur),
		)
	}
}

// statusLabel 给状态一个短标签；非 TTY 下 color 包自动退化为纯文本。
func statusLabel(status string) string {
	switch status {
	case domain.StatusProcessed:
		return color.GreenString("OK")
	case domain.StatusSkipped:
		return color.YellowString("SKIP")
	case domain.StatusPlanned:
		return color.CyanString("PLAN")
	case domain.StatusFailed:
		return color.RedString("FAIL")
	default:
		return strings.ToUpper(status)
	}
}

func timeoutHint(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	return fmt.Sprintf(", timeout=%s", d)
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 || len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

func formatShortDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func intField(fields map[string]any, key string) int {
	if fields == nil {
		return 0
	}
	v, ok := fields[key]
	if !ok {
		return 0
	}
	switch x := v.(type) {
	case int:
		return x
	case int32:
		return int(x)
	case int64:
		return int(x)
	case uint:
		return int(x)
	case uint32:
		return int(x)
	case uint64:
		return int(x)
	default:
		return 0
	}
}
