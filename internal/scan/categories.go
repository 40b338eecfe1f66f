package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/John-Robertt/WaveGal/internal/domain"
)

// CategoryFiles 扫描单个分类目录的直接子文件（不进入更深层级）。
//
// 返回值 missing 表示目录不存在；按契约这是空分类，不是错误。
// 结果按文件名升序（os.ReadDir 已排序），RelPath 即文件名本身。
func CategoryFiles(dir string) (files []domain.MediaFile, missing bool, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, true, nil
		}
		return nil, false, fmt.Errorf("读取分类目录失败 %q: %w", dir, err)
	}

	files = make([]domain.MediaFile, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}

		name := e.Name()
		if !IsMediaExt(filepath.Ext(name)) {
			continue
		}

		info, err := e.Info()
		if err != nil {
			return nil, false, fmt.Errorf("stat 失败 %q: %w", filepath.Join(dir, name), err)
		}

		files = append(files, domain.MediaFile{
			AbsPath: filepath.Join(dir, name),
			RelPath: name,
			Name:    name,
			Base:    strings.TrimSuffix(name, filepath.Ext(name)),
			Size:    info.Size(),
		})
	}

	return files, false, nil
}
