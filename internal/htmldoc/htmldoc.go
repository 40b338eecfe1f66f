package htmldoc

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// MarkerError 表示在宿主文档里找不到完整的标记对。
// 调用方遇到该错误必须保持目标文件原样，不得写回任何内容。
type MarkerError struct {
	Open  string
	Close string
	// Which 标记缺失的是哪一侧："open" 或 "close"。
	Which string
}

func (e *MarkerError) Error() string {
	switch e.Which {
	case "open":
		return fmt.Sprintf("未找到区块开始标记 %q", e.Open)
	default:
		return fmt.Sprintf("找到开始标记 %q，但其后没有结束标记 %q", e.Open, e.Close)
	}
}

// IsMarkerNotFound 判断 err 是否为标记缺失错误。
func IsMarkerNotFound(err error) bool {
	var e *MarkerError
	return errors.As(err, &e)
}

// FindRegion 定位 open 之后最近的 close，返回区块内部的字节区间 [start, end)。
// 匹配规则固定：取 open 的首次出现、以及其后 close 的首次出现。
func FindRegion(doc, open, close string) (start, end int, err error) {
	i := strings.Index(doc, open)
	if i < 0 {
		return 0, 0, &MarkerError{Open: open, Close: close, Which: "open"}
	}
	start = i + len(open)

	j := strings.Index(doc[start:], close)
	if j < 0 {
		return 0, 0, &MarkerError{Open: open, Close: close, Which: "close"}
	}
	return start, start + j, nil
}

// ReplaceRegion 是纯文本替换：只替换标记对之间的内容。
//
// 约束：
// - 标记本身与区域外的全部字节逐字节保留（不改编码、不动空白、不重排版）
// - 找不到标记对 => 返回 MarkerError，文档原文不动
// 函数与宿主文档的具体结构无关，可独立测试。
func ReplaceRegion(doc, open, close, interior string) (string, error) {
	start, end, err := FindRegion(doc, open, close)
	if err != nil {
		return "", err
	}
	return doc[:start] + interior + doc[end:], nil
}

// CountMarkerScripts 解析 HTML 并统计包含 open 标记的 <script> 元素个数。
// 只用于 check 的只读校验；替换本身永远走 ReplaceRegion 的纯文本路径。
func CountMarkerScripts(doc, open string) (int, error) {
	d, err := goquery.NewDocumentFromReader(strings.NewReader(doc))
	if err != nil {
		return 0, err
	}

	n := 0
	d.Find("script").Each(func(_ int, s *goquery.Selection) {
		if strings.Contains(s.Text(), open) {
			n++
		}
	})
	return n, nil
}
