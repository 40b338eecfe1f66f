package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/John-Robertt/WaveGal/internal/domain"
)

// IsMediaExt 判断扩展名是否属于固定的媒体格式集合（大小写不敏感）。
func IsMediaExt(ext string) bool {
	switch strings.ToLower(ext) {
	case ".mp4", ".mov", ".avi", ".mkv", ".m4v":
		return true
	default:
		return false
	}
}

// WalkTree 深度优先遍历媒体树，返回全部媒体文件。
//
// 规则（硬约束）：
// - 每个目录先处理自己的文件，再进入子目录
// - 文件与子目录都按名字字典序访问（os.ReadDir 已排序），单次运行内完全确定
// - 只做 stat，不读文件内容
//
// 每层递归返回自己的累积切片，由调用方合并；不依赖任何包级状态。
func WalkTree(root string) ([]domain.MediaFile, error) {
	rootAbs, err := filepath.Abs(filepath.Clean(root))
	if err != nil {
		return nil, err
	}
	return walkDir(rootAbs, "")
}

func walkDir(absDir, relDir string) ([]domain.MediaFile, error) {
	entries, err := os.ReadDir(absDir)
	if err != nil {
		return nil, fmt.Errorf("读取目录失败 %q: %w", absDir, err)
	}

	var dirs []os.DirEntry
	out := make([]domain.MediaFile, 0, len(entries))

	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e)
			continue
		}

		name := e.Name()
		if !IsMediaExt(filepath.Ext(name)) {
			continue
		}

		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat 失败 %q: %w", filepath.Join(absDir, name), err)
		}

		out = append(out, domain.MediaFile{
			AbsPath: filepath.Join(absDir, name),
			RelPath: filepath.Join(relDir, name),
			Name:    name,
			Base:    strings.TrimSuffix(name, filepath.Ext(name)),
			Size:    info.Size(),
		})
	}

	for _, d := range dirs {
		sub, err := walkDir(filepath.Join(absDir, d.Name()), filepath.Join(relDir, d.Name()))
		if err != nil {
			return nil, err
		}
		out = append(out, sub...)
	}

	return out, nil
}
