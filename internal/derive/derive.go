package derive

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Title 从文件名派生展示标题。
//
// 规则（固定，不做其他归一化）：
// 1) 去掉末尾扩展名，再去掉残留的 ".mp4"（容忍双重后缀的历史文件）
// 2) 下划线替换为 " - "
// 3) 修剪两端的空格与连字符
func Title(name string) string {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	stem = strings.ReplaceAll(stem, ".mp4", "")
	t := strings.ReplaceAll(stem, "_", " - ")
	return strings.Trim(t, " -")
}

// Duration 用文件体积粗估一个“看起来合理”的时长字符串。
//
// 这不是真实时长：四个体积分段各自套一条固定公式，结果只求展示上可信。
// 需要精确时长的调用方必须走真正的媒体探测工具，本包不做。
func Duration(size int64) string {
	mb := float64(size) / (1024 * 1024)
	switch {
	case mb < 3:
		return fmt.Sprintf("0:%02d", 20+int(mb*10))
	case mb < 10:
		return fmt.Sprintf("0:%02d", 40+int(mb*5))
	case mb < 30:
		return fmt.Sprintf("1:%02d", int(mb*2))
	default:
		return fmt.Sprintf("2:%02d", int(mb/10))
	}
}

// Trending 判断文件名是否命中热门关键字。
// 匹配是区分大小写的子串匹配；关键字表由配置给出（人工维护的业务规则）。
func Trending(name string, keywords []string) bool {
	for _, k := range keywords {
		if k != "" && strings.Contains(name, k) {
			return true
		}
	}
	return false
}
