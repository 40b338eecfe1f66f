package videodata

import (
	"fmt"
	"strings"

	"github.com/John-Robertt/WaveGal/internal/domain"
)

// Encode 把 Catalog 渲染成 videoData 区块的内部文本（不含两侧标记）。
//
// 输出形态（固定，golden 测试锁定字节）：
// - 先为每个聚合分类输出空初始化行（key: [],），保证赋值语句执行前键已存在
// - 随后按 Keys 顺序输出每个一级分类；空分类输出 key: [],（聚合语句会引用
//   每个配置键，缺键会让宿主脚本在展开时出错）
// - 记录渲染为固定形态的对象字面量；trending 仅在为真时输出
// - 末尾追加聚合赋值语句块：聚合分类永远从一级分类现算
func Encode(c domain.Catalog, aggs []domain.AggregateSpec) string {
	lines := make([]string, 0, 16+c.Total())

	for _, a := range aggs {
		lines = append(lines, fmt.Sprintf("            %s: [],", a.Key))
	}

	for _, key := range c.Keys {
		recs := c.At(key)
		if len(recs) == 0 {
			lines = append(lines, fmt.Sprintf("            %s: [],", key))
			continue
		}

		lines = append(lines, fmt.Sprintf("            %s: [", key))
		for _, r := range recs {
			lines = append(lines, recordLine(r))
		}
		lines = append(lines, "            ],")
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString(aggregateTail(aggs))
	return b.String()
}

func recordLine(r domain.VideoRecord) string {
	trending := ""
	if r.Trending {
		trending = ", trending: true"
	}
	return fmt.Sprintf("                { name: %s, title: %s, duration: %s, path: %s%s },",
		quote(r.Name), quote(r.Title), quote(r.Duration), quote(r.Path), trending,
	)
}

// aggregateTail 渲染聚合赋值语句块。
// 缩进与注释行固定：语句 8 空格、展开项 12 空格；最后一个展开项不带逗号。
func aggregateTail(aggs []domain.AggregateSpec) string {
	var b strings.Builder
	for i, a := range aggs {
		if i == 0 {
			b.WriteString("\n        \n")
		} else {
			b.WriteString("\n\n")
		}
		if strings.TrimSpace(a.Comment) != "" {
			b.WriteString("        ")
			b.WriteString(a.Comment)
			b.WriteString("\n")
		}
		b.WriteString(fmt.Sprintf("        videoData.%s = [\n", a.Key))
		for j, from := range a.From {
			b.WriteString(fmt.Sprintf("            ...videoData.%s", from))
			if j < len(a.From)-1 {
				b.WriteString(",")
			}
			b.WriteString("\n")
		}
		b.WriteString("        ];")
	}
	return b.String()
}

// quote 输出单引号字符串字面量；只转义反斜杠与单引号，其余字节原样保留。
func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return "'" + s + "'"
}
