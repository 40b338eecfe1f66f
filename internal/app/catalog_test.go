package app

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/John-Robertt/WaveGal/internal/domain"
)

func TestBuildCatalog_TableOrderAndPaths(t *testing.T) {
	root := t.TempDir()
	videoDir := filepath.Join(root, "v")

	touch(t, filepath.Join(videoDir, "cat1", "b.mp4"))
	touch(t, filepath.Join(videoDir, "cat1", "a.mp4"))
	touch(t, filepath.Join(videoDir, "g", "sub1", "c_極光.mp4"))
	// 干扰项：非媒体文件与更深层目录都不该进入分类。
	touch(t, filepath.Join(videoDir, "cat1", "note.txt"))
	touch(t, filepath.Join(videoDir, "cat1", "deeper", "d.mp4"))

	cats := []domain.CategorySpec{
		{Key: "one", Dir: "cat1"},
		{Key: "sky", Dir: "sub1", Group: "g"},
		{Key: "ghost", Dir: "nope"},
	}

	cat, counts, err := BuildCatalog(videoDir, cats, []string{"極光"})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}

	if want := []string{"one", "sky", "ghost"}; !reflect.DeepEqual(cat.Keys, want) {
		t.Fatalf("期望键序 %v，实际 %v", want, cat.Keys)
	}

	one := cat.At("one")
	if len(one) != 2 || one[0].Name != "a.mp4" || one[1].Name != "b.mp4" {
		t.Fatalf("期望 one 按文件名升序 [a.mp4 b.mp4]，实际 %+v", one)
	}
	// 发布路径以媒体根目录名开头，分隔符固定为 '/'。
	if one[0].Path != "v/cat1/a.mp4" {
		t.Fatalf("期望 path=v/cat1/a.mp4，实际 %q", one[0].Path)
	}

	sky := cat.At("sky")
	if len(sky) != 1 {
		t.Fatalf("期望 sky 有 1 条，实际 %d", len(sky))
	}
	// 嵌套组的发布路径包含组目录。
	if sky[0].Path != "v/g/sub1/c_極光.mp4" {
		t.Fatalf("期望 path=v/g/sub1/c_極光.mp4，实际 %q", sky[0].Path)
	}
	if sky[0].Title != "c - 極光" {
		t.Fatalf("期望 title=c - 極光，实际 %q", sky[0].Title)
	}
	if !sky[0].Trending {
		t.Fatalf("期望命中热门关键字")
	}
	if sky[0].Duration != "0:20" {
		t.Fatalf("1 字节文件应落在最小体积分段，实际 %q", sky[0].Duration)
	}

	wantCounts := []domain.CategoryCount{
		{Key: "one", Dir: "cat1", Count: 2},
		{Key: "sky", Dir: "g/sub1", Count: 1},
		{Key: "ghost", Dir: "nope", Count: 0, Missing: true},
	}
	if !reflect.DeepEqual(counts, wantCounts) {
		t.Fatalf("期望计数 %+v，实际 %+v", wantCounts, counts)
	}

	if cat.Total() != 3 {
		t.Fatalf("期望总数 3，实际 %d", cat.Total())
	}
}

func TestBuildCatalog_AllCategoriesMissing(t *testing.T) {
	videoDir := filepath.Join(t.TempDir(), "不存在的根")

	cats := []domain.CategorySpec{{Key: "one", Dir: "cat1"}}
	cat, counts, err := BuildCatalog(videoDir, cats, nil)
	if err != nil {
		t.Fatalf("分类目录缺失不应是错误：%v", err)
	}
	if len(cat.At("one")) != 0 {
		t.Fatalf("期望空分类")
	}
	if !counts[0].Missing {
		t.Fatalf("期望 missing=true")
	}
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}
}
