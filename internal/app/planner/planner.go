package planner

import (
	"path/filepath"
	"strings"

	"github.com/John-Robertt/WaveGal/internal/domain"
)

// ThumbTarget 把媒体相对路径换算为缩略图相对路径：仅替换最后一个扩展名为 .jpg。
// 路径中间出现的 ".mp4" 等片段必须原样保留。
func ThumbTarget(rel string) string {
	ext := filepath.Ext(rel)
	return strings.TrimSuffix(rel, ext) + ".jpg"
}

// PlanThumbs 基于扫描结果生成确定性的抽帧计划（不做任何写入）。
// 目标树镜像来源树：<thumbRoot>/<相对路径换 .jpg>，顺序与 files 一致。
func PlanThumbs(thumbRoot string, files []domain.MediaFile) []domain.ThumbTask {
	tasks := make([]domain.ThumbTask, 0, len(files))
	for _, f := range files {
		rel := ThumbTarget(f.RelPath)
		tasks = append(tasks, domain.ThumbTask{
			Src:    f,
			DstAbs: filepath.Join(thumbRoot, rel),
			DstRel: rel,
		})
	}
	return tasks
}

// PlanFill 基于目录记录生成补缺候选（目标是否已存在由执行层判定）。
// 记录的发布路径以 <影片根目录名>/ 开头；去掉该前缀即缩略图树内的相对路径。
func PlanFill(videoDir, thumbRoot string, recs []domain.VideoRecord) []domain.ThumbTask {
	base := filepath.Base(videoDir)
	parent := filepath.Dir(videoDir)

	tasks := make([]domain.ThumbTask, 0, len(recs))
	for _, r := range recs {
		rel := filepath.FromSlash(strings.TrimPrefix(r.Path, base+"/"))
		relThumb := ThumbTarget(rel)
		name := filepath.Base(rel)

		tasks = append(tasks, domain.ThumbTask{
			Src: domain.MediaFile{
				AbsPath: filepath.Join(parent, filepath.FromSlash(r.Path)),
				RelPath: rel,
				Name:    name,
				Base:    strings.TrimSuffix(name, filepath.Ext(name)),
			},
			DstAbs: filepath.Join(thumbRoot, relThumb),
			DstRel: relThumb,
		})
	}
	return tasks
}
