package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/John-Robertt/WaveGal/internal/app/run"
	"github.com/John-Robertt/WaveGal/internal/config"
	"github.com/John-Robertt/WaveGal/internal/domain"
	"github.com/John-Robertt/WaveGal/internal/infra/ffmpegx"
)

func main() {
	args := os.Args[1:]
	if len(args) == 0 || isHelp(args[0]) {
		printUsage()
		return
	}

	switch args[0] {
	case "thumbs":
		if code := thumbsCmd(args[1:]); code != 0 {
			os.Exit(code)
		}
	case "sync":
		if code := syncCmd(args[1:]); code != 0 {
			os.Exit(code)
		}
	case "check":
		if code := checkCmd(args[1:]); code != 0 {
			os.Exit(code)
		}
	default:
		fmt.Fprintf(os.Stderr, "未知命令：%q\n\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func thumbsCmd(args []string) int {
	for _, a := range args {
		if isHelp(a) {
			printThumbsUsage()
			return 0
		}
	}

	ca, err := parseCmdArgs(args, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "参数错误：%v\n\n", err)
		printThumbsUsage()
		return 1
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "读取当前目录失败：%v\n", err)
		return 2
	}
	cwdAbs, _ := filepath.Abs(cwd)

	eff, err := config.LoadEffective(cwd, config.CLIArgs{Path: ca.Path, Apply: ca.Apply, ApplySet: ca.ApplySet})
	if err != nil {
		emitThumbReport(thumbReportForConfigError(cwdAbs, ca, err), ca.JSON)
		return 2
	}

	progressW, interactive := pickProgressWriter()
	var obs run.Observer
	if interactive {
		obs = newProgressUI(progressW)
	}

	ctx, cancel := interruptContext()
	defer cancel()

	rr := run.ExecuteThumbsWithObserver(ctx, eff, newDeps(eff), obs)
	emitThumbReport(rr, ca.JSON)
	if rr.Summary.Failed > 0 {
		return 2
	}
	return 0
}

func syncCmd(args []string) int {
	for _, a := range args {
		if isHelp(a) {
			printSyncUsage()
			return 0
		}
	}

	ca, err := parseCmdArgs(args, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "参数错误：%v\n\n", err)
		printSyncUsage()
		return 1
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "读取当前目录失败：%v\n", err)
		return 2
	}
	cwdAbs, _ := filepath.Abs(cwd)

	eff, err := config.LoadEffective(cwd, config.CLIArgs{Path: ca.Path, Apply: ca.Apply, ApplySet: ca.ApplySet})
	if err != nil {
		emitSyncReport(syncReportForConfigError(cwdAbs, ca, err), ca.JSON)
		return 2
	}

	progressW, interactive := pickProgressWriter()
	var obs run.Observer
	if interactive {
		obs = newProgressUI(progressW)
	}

	ctx, cancel := interruptContext()
	defer cancel()

	rr := run.ExecuteSyncWithObserver(ctx, eff, newDeps(eff), obs)
	emitSyncReport(rr, ca.JSON)
	if rr.Failed() {
		return 2
	}
	return 0
}

func checkCmd(args []string) int {
	for _, a := range args {
		if isHelp(a) {
			printCheckUsage()
			return 0
		}
	}

	ca, err := parseCmdArgs(args, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "参数错误：%v\n\n", err)
		printCheckUsage()
		return 1
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "读取当前目录失败：%v\n", err)
		return 2
	}
	cwdAbs, _ := filepath.Abs(cwd)

	eff, err := config.LoadEffective(cwd, config.CLIArgs{Path: ca.Path})
	if err != nil {
		emitCheckReport(checkReportForConfigError(cwdAbs, err), ca.JSON)
		return 2
	}

	ctx, cancel := interruptContext()
	defer cancel()

	rr := run.ExecuteCheck(ctx, eff, newDeps(eff))
	emitCheckReport(rr, ca.JSON)
	if rr.Summary.Failed > 0 {
		return 2
	}
	return 0
}

func newDeps(eff config.Effective) run.Deps {
	return run.Deps{
		Extractor: ffmpegx.New(ffmpegx.Options{
			Bin:     eff.FFmpegBin,
			Offset:  eff.Offset,
			Width:   eff.Width,
			Height:  eff.Height,
			Quality: eff.Quality,
			Timeout: eff.Timeout,
		}),
	}
}

// interruptContext 在收到 SIGINT/SIGTERM 时取消 ctx，让执行层在文件间停下
// （当前文件照常完成，不产生半截输出归属问题）。
func interruptContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	return ctx, cancel
}

type cmdArgs struct {
	Path     string
	Apply    bool
	ApplySet bool
	JSON     bool
}

func parseCmdArgs(args []string, withApply bool) (cmdArgs, error) {
	ca := cmdArgs{}

	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "--json":
			ca.JSON = true
		case withApply && a == "--apply":
			ca.Apply = true
			ca.ApplySet = true
		case withApply && strings.HasPrefix(a, "--apply="):
			v := strings.TrimPrefix(a, "--apply=")
			switch v {
			case "true":
				ca.Apply = true
			case "false":
				ca.Apply = false
			default:
				return cmdArgs{}, fmt.Errorf("--apply 只能是 true 或 false，实际是 %q", v)
			}
			ca.ApplySet = true
		case strings.HasPrefix(a, "-"):
			return cmdArgs{}, fmt.Errorf("未知参数 %q", a)
		default:
			if ca.Path != "" {
				return cmdArgs{}, fmt.Errorf("重复的 path：%q 与 %q", ca.Path, a)
			}
			ca.Path = a
		}
	}

	return ca, nil
}

func isHelp(s string) bool {
	return s == "-h" || s == "--help" || s == "help"
}

func printUsage() {
	fmt.Fprint(os.Stdout, `用法：
  wavegal <thumbs|sync|check> [path] [--apply[=true|false]] [--json]

命令：
  thumbs  为媒体树全量生成缩略图（已有文件覆盖重建；默认 dry-run）
  sync    扫描分类 → 补缺缩略图 → 回写页面目录数据（默认 dry-run）
  check   只读体检：工具/目录/分类/页面标记（不写任何文件）

使用 "wavegal <命令> --help" 查看详细说明。
`)
}

func printThumbsUsage() {
	fmt.Fprint(os.Stdout, `用法：
  wavegal thumbs [path] [--apply[=true|false]] [--json]

参数：
  --apply     执行抽帧落盘（默认 dry-run 只列计划）；支持 --apply=false 覆盖配置中的 apply: true
  --json      stdout 强制输出 JSON 报告（非交互终端下默认即 JSON）
  -h, --help  显示帮助
`)
}

func printSyncUsage() {
	fmt.Fprint(os.Stdout, `用法：
  wavegal sync [path] [--apply[=true|false]] [--json]

参数：
  --apply     执行补缺与页面回写（默认 dry-run 只验证）；支持 --apply=false 覆盖配置中的 apply: true
  --json      stdout 强制输出 JSON 报告（非交互终端下默认即 JSON）
  -h, --help  显示帮助
`)
}

func printCheckUsage() {
	fmt.Fprint(os.Stdout, `用法：
  wavegal check [path] [--json]

参数：
  --json      stdout 强制输出 JSON 报告（非交互终端下默认即 JSON）
  -h, --help  显示帮助
`)
}

func emitThumbReport(rr domain.ThumbReport, forceJSON bool) {
	if !forceJSON && isTTY(os.Stdout) {
		fmt.Fprintf(os.Stdout, "完成：processed=%d planned=%d skipped=%d failed=%d\n",
			rr.Summary.Processed, rr.Summary.Planned, rr.Summary.Skipped, rr.Summary.Failed,
		)
		emitFailedItems(rr.Items)
		return
	}

	// stdout 非 TTY（或 --json）：stdout 必须且仅输出一个 ThumbReport JSON（摘要走 stderr）。
	enc := json.NewEncoder(os.Stdout)
	_ = enc.Encode(rr)
	fmt.Fprintf(os.Stderr, "完成：processed=%d planned=%d skipped=%d failed=%d\n",
		rr.Summary.Processed, rr.Summary.Planned, rr.Summary.Skipped, rr.Summary.Failed,
	)
}

func emitSyncReport(rr domain.SyncReport, forceJSON bool) {
	if !forceJSON && isTTY(os.Stdout) {
		fmt.Fprintf(os.Stdout, "目录：records=%d\n", rr.Records)
		for _, c := range rr.Categories {
			note := ""
			if c.Missing {
				note = "（目录缺失）"
			}
			fmt.Fprintf(os.Stdout, "  %s %s: %d 条%s\n", c.Key, c.Dir, c.Count, note)
		}
		if rr.FillSkipped {
			fmt.Fprintf(os.Stdout, "补缺：跳过（%s）\n", rr.FillSkipReason)
		} else {
			fmt.Fprintf(os.Stdout, "补缺：processed=%d planned=%d skipped=%d failed=%d\n",
				rr.Fill.Processed, rr.Fill.Planned, rr.Fill.Skipped, rr.Fill.Failed,
			)
		}
		fmt.Fprintf(os.Stdout, "页面：%s\n", rr.HTMLStatus)

		emitFailedItems(rr.FillItems)
		if rr.ErrorCode != "" {
			fmt.Fprintf(os.Stderr, "%s: %s\n", rr.ErrorCode, rr.ErrorMsg)
		}
		return
	}

	enc := json.NewEncoder(os.Stdout)
	_ = enc.Encode(rr)
	fmt.Fprintf(os.Stderr, "完成：records=%d fill_failed=%d html=%s\n",
		rr.Records, rr.Fill.Failed, rr.HTMLStatus,
	)
}

func emitCheckReport(rr domain.CheckReport, forceJSON bool) {
	if !forceJSON && isTTY(os.Stdout) {
		for _, p := range rr.Probes {
			glyph := color.GreenString("✓")
			if !p.OK {
				glyph = color.RedString("✗")
			}
			fmt.Fprintf(os.Stdout, "%s %s：%s\n", glyph, p.Name, p.Detail)
		}
		fmt.Fprintf(os.Stdout, "检查完成：ok=%d failed=%d\n", rr.Summary.OK, rr.Summary.Failed)
		return
	}

	enc := json.NewEncoder(os.Stdout)
	_ = enc.Encode(rr)
	fmt.Fprintf(os.Stderr, "检查完成：ok=%d failed=%d\n", rr.Summary.OK, rr.Summary.Failed)
}

func emitFailedItems(items []domain.ThumbItem) {
	for _, it := range items {
		if it.Status != domain.StatusFailed {
			continue
		}
		key := it.Src
		if key == "" {
			// 合成条目（工具缺失/扫描失败/中断）：没有文件锚点。
			key = "<run>"
		}
		fmt.Fprintf(os.Stderr, "%s %s: %s\n", key, it.ErrorCode, it.ErrorMsg)
	}
}

func thumbReportForConfigError(cwdAbs string, ca cmdArgs, err error) domain.ThumbReport {
	now := time.Now().UTC()
	rr := domain.ThumbReport{
		Path:       cwdAbs,
		DryRun:     !(ca.ApplySet && ca.Apply),
		StartedAt:  now,
		FinishedAt: now,
		Items: []domain.ThumbItem{{
			Status:    domain.StatusFailed,
			ErrorCode: config.Code(err),
			ErrorMsg:  err.Error(),
		}},
	}
	rr.Finalize()
	return rr
}

func syncReportForConfigError(cwdAbs string, ca cmdArgs, err error) domain.SyncReport {
	now := time.Now().UTC()
	rr := domain.SyncReport{
		Path:       cwdAbs,
		DryRun:     !(ca.ApplySet && ca.Apply),
		StartedAt:  now,
		FinishedAt: now,
		Categories: []domain.CategoryCount{},
		FillItems:  []domain.ThumbItem{},
		HTMLStatus: domain.HTMLStatusSkipped,
		ErrorCode:  config.Code(err),
		ErrorMsg:   err.Error(),
	}
	rr.Finalize()
	return rr
}

func checkReportForConfigError(cwdAbs string, err error) domain.CheckReport {
	now := time.Now().UTC()
	rr := domain.CheckReport{
		Path:       cwdAbs,
		StartedAt:  now,
		FinishedAt: now,
		Probes: []domain.ProbeResult{{
			Name:   "config",
			OK:     false,
			Detail: err.Error(),
		}},
	}
	rr.Finalize()
	return rr
}

func isTTY(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func pickProgressWriter() (io.Writer, bool) {
	// 进度输出只在交互终端启用；默认走 stderr（不污染 stdout JSON）。
	if isTTY(os.Stderr) {
		return os.Stderr, true
	}
	// 某些环境（例如仅重定向 stderr）下，stdout 仍是 TTY：退化输出到 stdout。
	if isTTY(os.Stdout) {
		return os.Stdout, true
	}
	return nil, false
}
