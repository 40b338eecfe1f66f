package domain

// CategorySpec 是“分类键 → 目录名”映射表的一条配置。
// Group 非空表示该分类位于二级分组目录之下（扫描路径为 <根>/<Group>/<Dir>）。
type CategorySpec struct {
	Key   string
	Dir   string
	Group string
}

// AggregateSpec 描述一个聚合分类：内容永远按 From 顺序从一级分类现算。
// Comment 是渲染聚合赋值语句时附带的注释行（含 // 前缀）。
type AggregateSpec struct {
	Key     string
	From    []string
	Comment string
}

// VideoRecord 是目录同步阶段由 MediaFile 派生出的展示记录。
// 每次运行全量重算，从不独立持久化。
type VideoRecord struct {
	Name     string // 原始文件名（含扩展名）
	Title    string
	Duration string // 由体积估算的时长（刻意不精确，见 derive）
	Path     string // 发布路径：以媒体根目录名开头，正斜杠分隔
	Trending bool
}

// Catalog 保存各一级分类的记录列表。
//
// 不变量：
// - Keys 给出稳定的渲染顺序（与配置表一致）
// - Records 只含一级分类；聚合分类（all/nature）永远现算，不落地存储
type Catalog struct {
	Keys    []string
	Records map[string][]VideoRecord
}

// At 返回 key 对应的记录列表；缺失分类返回 nil（空分类不是错误）。
func (c Catalog) At(key string) []VideoRecord {
	return c.Records[key]
}

// Aggregate 按 from 顺序拼接一级分类，现算聚合分类的内容。
func (c Catalog) Aggregate(from []string) []VideoRecord {
	out := make([]VideoRecord, 0, 16)
	for _, k := range from {
		out = append(out, c.Records[k]...)
	}
	return out
}

// Total 返回一级分类的记录总数。
func (c Catalog) Total() int {
	n := 0
	for _, k := range c.Keys {
		n += len(c.Records[k])
	}
	return n
}
