package imgx

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"
)

func TestVerifyThumb_OK(t *testing.T) {
	b := mustJPEG(t, 270, 480)

	if err := VerifyThumb(b, 270, 480); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
}

func TestVerifyThumb_WrongSize(t *testing.T) {
	b := mustJPEG(t, 100, 100)

	err := VerifyThumb(b, 270, 480)
	if err == nil {
		t.Fatalf("期望错误，实际 nil")
	}
	if !strings.Contains(err.Error(), "分辨率不符") {
		t.Fatalf("错误信息应说明分辨率不符：%v", err)
	}
}

func TestVerifyThumb_WrongFormat(t *testing.T) {
	// 误存成 PNG 的缩略图要能被识别出来，而不是报“无法解码”。
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 270, 480))); err != nil {
		t.Fatalf("encode png 失败：%v", err)
	}

	err := VerifyThumb(buf.Bytes(), 270, 480)
	if err == nil {
		t.Fatalf("期望错误，实际 nil")
	}
	if !strings.Contains(err.Error(), "png") {
		t.Fatalf("错误信息应报出实际格式：%v", err)
	}
}

func TestVerifyThumb_Garbage(t *testing.T) {
	if err := VerifyThumb(nil, 270, 480); err == nil {
		t.Fatalf("空输入应报错")
	}
	if err := VerifyThumb([]byte("这不是图片"), 270, 480); err == nil {
		t.Fatalf("非图片字节应报错")
	}
}

func mustJPEG(t *testing.T, w, h int) []byte {
	t.Helper()

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h)), &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encode jpeg 失败：%v", err)
	}
	return buf.Bytes()
}
