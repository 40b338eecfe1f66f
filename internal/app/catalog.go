package app

import (
	"path"
	"path/filepath"

	"github.com/John-Robertt/WaveGal/internal/derive"
	"github.com/John-Robertt/WaveGal/internal/domain"
	"github.com/John-Robertt/WaveGal/internal/scan"
)

// BuildCatalog 依分类表扫描影片根目录，派生出目录数据。
//
// 约束：
// - 分类按表序输出；单个分类目录缺失不是错误（计 0 条并在计数里标记 missing）
// - 记录的 Path 为发布路径：<影片根目录名>/<group>/<dir>/<文件名>，分隔符固定为 '/'
// - 同分类内按文件名字典序（扫描层保证）
func BuildCatalog(videoDir string, cats []domain.CategorySpec, keywords []string) (domain.Catalog, []domain.CategoryCount, error) {
	base := filepath.Base(videoDir)

	cat := domain.Catalog{
		Keys:    make([]string, 0, len(cats)),
		Records: make(map[string][]domain.VideoRecord, len(cats)),
	}
	counts := make([]domain.CategoryCount, 0, len(cats))

	for _, cs := range cats {
		dirAbs := filepath.Join(videoDir, cs.Group, cs.Dir)
		files, missing, err := scan.CategoryFiles(dirAbs)
		if err != nil {
			return domain.Catalog{}, nil, err
		}

		recs := make([]domain.VideoRecord, 0, len(files))
		for _, f := range files {
			recs = append(recs, domain.VideoRecord{
				Name:     f.Name,
				Title:    derive.Title(f.Name),
				Duration: derive.Duration(f.Size),
				// path.Join 会吞掉空的 group 段
				Path:     path.Join(base, cs.Group, cs.Dir, f.Name),
				Trending: derive.Trending(f.Name, keywords),
			})
		}

		cat.Keys = append(cat.Keys, cs.Key)
		cat.Records[cs.Key] = recs
		counts = append(counts, domain.CategoryCount{
			Key:     cs.Key,
			Dir:     displayDir(cs),
			Count:   len(recs),
			Missing: missing,
		})
	}
	return cat, counts, nil
}

func displayDir(cs domain.CategorySpec) string {
	if cs.Group != "" {
		return cs.Group + "/" + cs.Dir
	}
	return cs.Dir
}
