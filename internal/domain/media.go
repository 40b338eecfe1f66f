package domain

// MediaFile 描述一次扫描得到的媒体文件（只做 stat，不读内容）。
//
// 不变量（实现必须遵守）：
// - AbsPath 必须是 clean + absolute
// - RelPath 相对媒体根目录，使用宿主平台分隔符
// - 扫描阶段只做 stat，不读文件内容
type MediaFile struct {
	AbsPath string
	RelPath string
	Name    string // 文件名（含扩展名）
	Base    string // 文件名（去扩展名）
	Size    int64
}

// ThumbTask 是一条抽帧任务：一个媒体文件对应一个输出图片。
// 任务只在单次运行内存在，不做任何持久化。
type ThumbTask struct {
	Src    MediaFile
	DstAbs string
	DstRel string // 相对缩略图根目录（宿主平台分隔符）
}
