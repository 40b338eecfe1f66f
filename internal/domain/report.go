package domain

import (
	"sort"
	"time"
)

const (
	StatusProcessed = "processed"
	StatusPlanned   = "planned"
	StatusSkipped   = "skipped"
	StatusFailed    = "failed"
)

const (
	HTMLStatusUpdated   = "updated"
	HTMLStatusPlanned   = "planned"
	HTMLStatusUnchanged = "unchanged"
	HTMLStatusSkipped   = "skipped"
	HTMLStatusFailed    = "failed"
)

const (
	ErrCodeToolMissing     = "tool_missing"
	ErrCodeExtractFailed   = "extract_failed"
	ErrCodeScanFailed      = "scan_failed"
	ErrCodeIOFailed        = "io_failed"
	ErrCodeTargetConflict  = "target_conflict"
	ErrCodeMarkersNotFound = "markers_not_found"
	ErrCodeConfigInvalid   = "config_invalid"
	ErrCodeInterrupted     = "interrupted"
)

// ThumbItem 是一条抽帧结果（thumbs 的每个文件 / sync 填充阶段的每个缺口）。
// Src/Dst 均为相对路径，保证报告可跨机器比对。
type ThumbItem struct {
	Src       string `json:"src"`
	Dst       string `json:"dst"`
	Status    string `json:"status"`
	ErrorCode string `json:"error_code,omitempty"`
	ErrorMsg  string `json:"error_msg,omitempty"`
}

// ThumbReport 是 thumbs 子命令对外稳定输出（stdout JSON）的结构。
type ThumbReport struct {
	Path     string `json:"path"`
	VideoDir string `json:"video_dir"`
	ThumbDir string `json:"thumb_dir"`
	DryRun   bool   `json:"dry_run"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Summary ThumbSummary `json:"summary"`
	Items   []ThumbItem  `json:"items"`
}

type ThumbSummary struct {
	Total     int `json:"total"`
	Processed int `json:"processed"`
	Planned   int `json:"planned"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// Finalize 做三件事：
// 1) 时间统一为 UTC（确保 JSON 为 RFC3339 且后缀 Z）
// 2) items 稳定排序：按 Src 字典序；Src=="" 的合成条目排在最后
// 3) summary 由 items 计算得出（Total = 条目总数）
func (r *ThumbReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()

	sortItems(r.Items)
	r.Summary = summarize(r.Items)
}

// SyncReport 是 sync 子命令对外稳定输出（stdout JSON）的结构。
type SyncReport struct {
	Path     string `json:"path"`
	VideoDir string `json:"video_dir"`
	ThumbDir string `json:"thumb_dir"`
	HTMLFile string `json:"html_file"`
	DryRun   bool   `json:"dry_run"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Categories 按配置顺序逐分类给出扫描结果；目录缺失是空分类，不是错误。
	Categories []CategoryCount `json:"categories"`
	Records    int             `json:"records"`

	// FillSkipped 表示整个填充阶段被跳过（外部工具不可用时的非致命降级）。
	FillSkipped    bool        `json:"fill_skipped"`
	FillSkipReason string      `json:"fill_skip_reason,omitempty"`
	Fill           ThumbSummary `json:"fill"`
	FillItems      []ThumbItem  `json:"fill_items"`

	HTMLStatus string `json:"html_status"`
	ErrorCode  string `json:"error_code,omitempty"`
	ErrorMsg   string `json:"error_msg,omitempty"`
}

type CategoryCount struct {
	Key     string `json:"key"`
	Dir     string `json:"dir"`
	Count   int    `json:"count"`
	Missing bool   `json:"missing,omitempty"`
}

// Finalize 归一时间、排序填充条目并重算填充统计与记录总数。
func (r *SyncReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()

	sortItems(r.FillItems)
	r.Fill = summarize(r.FillItems)

	n := 0
	for _, c := range r.Categories {
		n += c.Count
	}
	r.Records = n
}

// Failed 判断本次 sync 是否应以非零退出码结束。
func (r *SyncReport) Failed() bool {
	if r.ErrorCode != "" {
		return true
	}
	if r.Fill.Failed > 0 {
		return true
	}
	return r.HTMLStatus == HTMLStatusFailed
}

// ProbeResult 是 check 子命令单项探测的结果。
type ProbeResult struct {
	Name   string `json:"name"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail"`
}

// CheckReport 是 check 子命令对外稳定输出（stdout JSON）的结构。
type CheckReport struct {
	Path string `json:"path"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Summary CheckSummary  `json:"summary"`
	Probes  []ProbeResult `json:"probes"`
}

type CheckSummary struct {
	OK     int `json:"ok"`
	Failed int `json:"failed"`
}

// Finalize 归一时间并重算探测统计。探测顺序保持执行顺序，不排序。
func (r *CheckReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()

	var s CheckSummary
	for _, p := range r.Probes {
		if p.OK {
			s.OK++
		} else {
			s.Failed++
		}
	}
	r.Summary = s
}

func sortItems(items []ThumbItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a := items[i].Src
		b := items[j].Src
		if a == "" && b == "" {
			return false
		}
		if a == "" {
			return false
		}
		if b == "" {
			return true
		}
		return a < b
	})
}

func summarize(items []ThumbItem) ThumbSummary {
	var s ThumbSummary
	s.Total = len(items)
	for _, it := range items {
		switch it.Status {
		case StatusProcessed:
			s.Processed++
		case StatusPlanned:
			s.Planned++
		case StatusSkipped:
			s.Skipped++
		case StatusFailed:
			s.Failed++
		}
	}
	return s
}
