package run

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/John-Robertt/WaveGal/internal/app"
	"github.com/John-Robertt/WaveGal/internal/app/planner"
	"github.com/John-Robertt/WaveGal/internal/config"
	"github.com/John-Robertt/WaveGal/internal/domain"
	"github.com/John-Robertt/WaveGal/internal/htmldoc"
	"github.com/John-Robertt/WaveGal/internal/infra/ffmpegx"
	"github.com/John-Robertt/WaveGal/internal/infra/fsx"
	"github.com/John-Robertt/WaveGal/internal/infra/imgx"
	"github.com/John-Robertt/WaveGal/internal/scan"
	"github.com/John-Robertt/WaveGal/internal/videodata"
)

// Deps 注入外部工具依赖，便于测试替换（不打真实 ffmpeg）。
type Deps struct {
	Extractor ffmpegx.Extractor
}

// ExecuteThumbs 执行一次 thumbs（dry-run/apply），并返回对外稳定的 ThumbReport。
// 该函数尽量把错误“降级”为 item 级失败（单条失败不影响其他）。
func ExecuteThumbs(ctx context.Context, eff config.Effective, deps Deps) domain.ThumbReport {
	return ExecuteThumbsWithObserver(ctx, eff, deps, nil)
}

// ExecuteThumbsWithObserver 与 ExecuteThumbs 相同，但允许传入 Observer 输出进度/阶段信息。
func ExecuteThumbsWithObserver(ctx context.Context, eff config.Effective, deps Deps, obs Observer) domain.ThumbReport {
	started := time.Now().UTC()

	if obs != nil {
		obs.OnStart(eff, "thumbs")
	}

	rr := domain.ThumbReport{
		Path:      eff.Path,
		VideoDir:  eff.VideoDir,
		ThumbDir:  eff.ThumbDir,
		DryRun:    !eff.Apply,
		StartedAt: started,
		Items:     make([]domain.ThumbItem, 0, 64),
	}

	scanStarted := time.Now()
	files, err := scan.WalkTree(eff.VideoDir)
	if err != nil {
		rr.Items = append(rr.Items, syntheticFailed(domain.ErrCodeScanFailed, fmt.Sprintf("扫描失败：%v", err)))
		rr.FinishedAt = time.Now().UTC()
		rr.Finalize()
		return rr
	}
	scanDur := time.Since(scanStarted)

	tasks := planner.PlanThumbs(eff.ThumbDir, files)

	if obs != nil {
		obs.OnPhaseDone("scan", map[string]any{"files": len(files)}, scanDur)
		obs.OnPhaseDone("plan", map[string]any{"tasks": len(tasks)}, 0)
	}

	// dry-run：只列出计划，不碰文件系统，也不要求外部工具可用。
	if !eff.Apply {
		for _, tk := range tasks {
			rr.Items = append(rr.Items, domain.ThumbItem{
				Src:    tk.Src.RelPath,
				Dst:    tk.DstRel,
				Status: domain.StatusPlanned,
			})
		}
		rr.FinishedAt = time.Now().UTC()
		rr.Finalize()
		return rr
	}

	// apply：先验可用性。工具缺失必须发生在任何写入之前，整个 run 终止。
	if err := deps.Extractor.Available(); err != nil {
		rr.Items = append(rr.Items, syntheticFailed(domain.ErrCodeToolMissing, err.Error()))
		rr.FinishedAt = time.Now().UTC()
		rr.Finalize()
		return rr
	}

	if obs != nil {
		obs.OnPhaseDone("exec", map[string]any{"total": len(tasks)}, 0)
	}

	for i, tk := range tasks {
		if ctx.Err() != nil {
			rr.Items = append(rr.Items, syntheticFailed(domain.ErrCodeInterrupted, "收到中断信号，停止后续处理"))
			break
		}

		oneStarted := time.Now()
		item := execThumb(ctx, deps, tk)
		rr.Items = append(rr.Items, item)
		if obs != nil {
			obs.OnItemDone(i+1, len(tasks), item, time.Since(oneStarted))
		}
	}

	rr.FinishedAt = time.Now().UTC()
	rr.Finalize()
	return rr
}

// ExecuteSync 执行一次 sync（扫描 → 补缺 → 序列化 → 回写页面），返回 SyncReport。
func ExecuteSync(ctx context.Context, eff config.Effective, deps Deps) domain.SyncReport {
	return ExecuteSyncWithObserver(ctx, eff, deps, nil)
}

// ExecuteSyncWithObserver 与 ExecuteSync 相同，但允许传入 Observer 输出进度/阶段信息。
func ExecuteSyncWithObserver(ctx context.Context, eff config.Effective, deps Deps, obs Observer) domain.SyncReport {
	started := time.Now().UTC()

	if obs != nil {
		obs.OnStart(eff, "sync")
	}

	rr := domain.SyncReport{
		Path:      eff.Path,
		VideoDir:  eff.VideoDir,
		ThumbDir:  eff.ThumbDir,
		HTMLFile:  eff.HTMLFile,
		DryRun:    !eff.Apply,
		StartedAt: started,
		FillItems: make([]domain.ThumbItem, 0, 16),
	}

	scanStarted := time.Now()
	cat, counts, err := app.BuildCatalog(eff.VideoDir, eff.Categories, eff.TrendingKeywords)
	if err != nil {
		rr.ErrorCode = domain.ErrCodeScanFailed
		rr.ErrorMsg = fmt.Sprintf("扫描失败：%v", err)
		rr.HTMLStatus = domain.HTMLStatusSkipped
		rr.FinishedAt = time.Now().UTC()
		rr.Finalize()
		return rr
	}
	rr.Categories = counts

	if obs != nil {
		obs.OnPhaseDone("scan", map[string]any{
			"categories": len(counts),
			"records":    cat.Total(),
		}, time.Since(scanStarted))
	}

	// 补缺阶段：只生成缺失的缩略图，已有文件一律保留（与 thumbs 的覆盖语义相反）。
	recs := cat.Aggregate(cat.Keys)
	tasks := planner.PlanFill(eff.VideoDir, eff.ThumbDir, recs)

	fillStarted := time.Now()
	interrupted := false

	if !eff.Apply {
		for _, tk := range tasks {
			item := domain.ThumbItem{Src: tk.Src.RelPath, Dst: tk.DstRel, Status: domain.StatusPlanned}
			if _, err := os.Stat(tk.DstAbs); err == nil {
				item.Status = domain.StatusSkipped
			}
			rr.FillItems = append(rr.FillItems, item)
		}
	} else if err := deps.Extractor.Available(); err != nil {
		// 工具缺失不终止 sync：跳过补缺，目录数据照常回写。
		rr.FillSkipped = true
		rr.FillSkipReason = err.Error()
	} else {
		for i, tk := range tasks {
			if ctx.Err() != nil {
				rr.FillItems = append(rr.FillItems, syntheticFailed(domain.ErrCodeInterrupted, "收到中断信号，停止后续处理"))
				interrupted = true
				break
			}

			oneStarted := time.Now()
			item := execFill(ctx, deps, tk)
			rr.FillItems = append(rr.FillItems, item)
			if obs != nil {
				obs.OnItemDone(i+1, len(tasks), item, time.Since(oneStarted))
			}
		}
	}

	if obs != nil {
		fields := map[string]any{"candidates": len(tasks)}
		if rr.FillSkipped {
			fields["skipped"] = rr.FillSkipReason
		}
		obs.OnPhaseDone("fill", fields, time.Since(fillStarted))
	}

	if interrupted {
		rr.ErrorCode = domain.ErrCodeInterrupted
		rr.ErrorMsg = "收到中断信号，页面未回写"
		rr.HTMLStatus = domain.HTMLStatusSkipped
		rr.FinishedAt = time.Now().UTC()
		rr.Finalize()
		return rr
	}

	htmlStarted := time.Now()
	rr.HTMLStatus, rr.ErrorCode, rr.ErrorMsg = updateHTML(eff, videodata.Encode(cat, eff.Aggregates))
	if obs != nil {
		obs.OnPhaseDone("html", map[string]any{"status": rr.HTMLStatus}, time.Since(htmlStarted))
	}

	rr.FinishedAt = time.Now().UTC()
	rr.Finalize()
	return rr
}

// updateHTML 把新的目录数据替换进页面的标记区间。
//
// 约束：
// - 标记缺失必须显式失败，且目标文件保持原样（先替换后写入，替换失败不落盘）
// - 替换结果与原文件一致时不写入（避免无意义的 mtime 变化）
// - dry-run 只验证可替换性，不写入
func updateHTML(eff config.Effective, interior string) (status, errCode, errMsg string) {
	raw, err := os.ReadFile(eff.HTMLFile)
	if err != nil {
		return domain.HTMLStatusFailed, domain.ErrCodeIOFailed, fmt.Sprintf("读取页面失败：%v", err)
	}

	out, err := htmldoc.ReplaceRegion(string(raw), eff.MarkerOpen, eff.MarkerClose, interior)
	if err != nil {
		if htmldoc.IsMarkerNotFound(err) {
			return domain.HTMLStatusFailed, domain.ErrCodeMarkersNotFound, err.Error()
		}
		return domain.HTMLStatusFailed, domain.ErrCodeIOFailed, err.Error()
	}

	if out == string(raw) {
		return domain.HTMLStatusUnchanged, "", ""
	}
	if !eff.Apply {
		return domain.HTMLStatusPlanned, "", ""
	}

	if err := fsx.WriteFileAtomicReplace(filepath.Dir(eff.HTMLFile), filepath.Base(eff.HTMLFile), []byte(out)); err != nil {
		if fsx.IsPathTypeConflict(err) {
			return domain.HTMLStatusFailed, domain.ErrCodeTargetConflict, err.Error()
		}
		return domain.HTMLStatusFailed, domain.ErrCodeIOFailed, fmt.Sprintf("写入页面失败：%v", err)
	}
	return domain.HTMLStatusUpdated, "", ""
}

// execThumb 处理一条抽帧任务：目标一律覆盖（ffmpeg -y）。
func execThumb(ctx context.Context, deps Deps, tk domain.ThumbTask) domain.ThumbItem {
	item := domain.ThumbItem{
		Src:    tk.Src.RelPath,
		Dst:    tk.DstRel,
		Status: domain.StatusProcessed, // 失败时覆盖
	}

	if err := fsx.EnsureDir(filepath.Dir(tk.DstAbs)); err != nil {
		item.Status = domain.StatusFailed
		if fsx.IsPathTypeConflict(err) {
			item.ErrorCode = domain.ErrCodeTargetConflict
		} else {
			item.ErrorCode = domain.ErrCodeIOFailed
		}
		item.ErrorMsg = err.Error()
		return item
	}

	if err := deps.Extractor.ExtractFrame(ctx, tk.Src.AbsPath, tk.DstAbs); err != nil {
		item.Status = domain.StatusFailed
		item.ErrorCode = domain.ErrCodeExtractFailed
		item.ErrorMsg = err.Error()
		return item
	}
	return item
}

// execFill 与 execThumb 相同，但目标已存在时跳过（严格增量，不再重新生成）。
func execFill(ctx context.Context, deps Deps, tk domain.ThumbTask) domain.ThumbItem {
	if _, err := os.Stat(tk.DstAbs); err == nil {
		return domain.ThumbItem{Src: tk.Src.RelPath, Dst: tk.DstRel, Status: domain.StatusSkipped}
	} else if !os.IsNotExist(err) {
		return domain.ThumbItem{
			Src:       tk.Src.RelPath,
			Dst:       tk.DstRel,
			Status:    domain.StatusFailed,
			ErrorCode: domain.ErrCodeIOFailed,
			ErrorMsg:  fmt.Sprintf("检查目标失败：%v", err),
		}
	}
	return execThumb(ctx, deps, tk)
}

func syntheticFailed(code, msg string) domain.ThumbItem {
	return domain.ThumbItem{
		Status:    domain.StatusFailed,
		ErrorCode: code,
		ErrorMsg:  msg,
	}
}

// ExecuteCheck 做一组只读探测（不写任何文件），返回 CheckReport。
// 探测顺序固定：工具 → 媒体树 → 分类表 → 缩略图树 → 页面标记。
func ExecuteCheck(ctx context.Context, eff config.Effective, deps Deps) domain.CheckReport {
	_ = ctx

	rr := domain.CheckReport{
		Path:      eff.Path,
		StartedAt: time.Now().UTC(),
		Probes:    make([]domain.ProbeResult, 0, 16),
	}
	add := func(name string, ok bool, detail string) {
		rr.Probes = append(rr.Probes, domain.ProbeResult{Name: name, OK: ok, Detail: detail})
	}

	add("config", true, fmt.Sprintf("%d 个分类，%d 个聚合，%d 个关键字",
		len(eff.Categories), len(eff.Aggregates), len(eff.TrendingKeywords)))

	if err := deps.Extractor.Available(); err != nil {
		add("ffmpeg", false, err.Error())
	} else {
		detail := "可用"
		if v, ok := deps.Extractor.(interface{ Version() (string, error) }); ok {
			if s, e := v.Version(); e == nil && s != "" {
				detail = s
			}
		}
		add("ffmpeg", true, detail)
	}

	var files []domain.MediaFile
	if fi, err := os.Stat(eff.VideoDir); err != nil {
		add("video_dir", false, fmt.Sprintf("无法访问：%v", err))
	} else if !fi.IsDir() {
		add("video_dir", false, fmt.Sprintf("%q 不是目录", eff.VideoDir))
	} else if fs, err := scan.WalkTree(eff.VideoDir); err != nil {
		add("video_dir", false, fmt.Sprintf("扫描失败：%v", err))
	} else {
		files = fs
		add("video_dir", true, fmt.Sprintf("共 %d 个媒体文件", len(files)))
	}

	if _, counts, err := app.BuildCatalog(eff.VideoDir, eff.Categories, eff.TrendingKeywords); err != nil {
		add("categories", false, fmt.Sprintf("扫描失败：%v", err))
	} else {
		for _, c := range counts {
			detail := fmt.Sprintf("%d 条", c.Count)
			if c.Missing {
				detail += "（目录缺失，按空分类处理）"
			}
			add("category:"+c.Key, true, detail)
		}
	}

	if files != nil {
		tasks := planner.PlanThumbs(eff.ThumbDir, files)
		have, checked, bad := 0, 0, 0
		for _, tk := range tasks {
			b, err := os.ReadFile(tk.DstAbs)
			if err != nil {
				continue // 缺失只影响覆盖率
			}
			have++
			checked++
			if err := imgx.VerifyThumb(b, eff.Width, eff.Height); err != nil {
				bad++
			}
		}
		add("thumbs", true, fmt.Sprintf("覆盖 %d/%d", have, len(tasks)))
		add("thumbs_valid", bad == 0, fmt.Sprintf("已检 %d 张，异常 %d 张", checked, bad))
	}

	if raw, err := os.ReadFile(eff.HTMLFile); err != nil {
		add("html", false, fmt.Sprintf("读取页面失败：%v", err))
	} else if _, _, err := htmldoc.FindRegion(string(raw), eff.MarkerOpen, eff.MarkerClose); err != nil {
		add("html", false, err.Error())
	} else if n, err := htmldoc.CountMarkerScripts(string(raw), eff.MarkerOpen); err != nil {
		add("html", false, fmt.Sprintf("解析页面失败：%v", err))
	} else if n != 1 {
		add("html", false, fmt.Sprintf("开始标记出现在 %d 个 script 节点中（期望恰好 1 个）", n))
	} else {
		add("html", true, "标记区间可定位")
	}

	rr.FinishedAt = time.Now().UTC()
	rr.Finalize()
	return rr
}
