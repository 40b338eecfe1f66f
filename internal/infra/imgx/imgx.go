package imgx

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // 注册 JPEG 解码器
	_ "image/png"  // 注册 PNG 解码器（用于识别被误存成 PNG 的缩略图）
)

// VerifyThumb 校验缩略图字节：必须能按 JPEG 解码，且分辨率与期望一致。
//
// 只解码图片头（DecodeConfig），不做完整解码；用于 check 的只读巡检。
func VerifyThumb(b []byte, wantW, wantH int) error {
	if len(b) == 0 {
		return errors.New("文件为空")
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("无法解码：%w", err)
	}
	if format != "jpeg" {
		return fmt.Errorf("期望 JPEG，实际是 %s", format)
	}
	if cfg.Width != wantW || cfg.Height != wantH {
		return fmt.Errorf("分辨率不符：期望 %dx%d，实际 %dx%d", wantW, wantH, cfg.Width, cfg.Height)
	}
	return nil
}
