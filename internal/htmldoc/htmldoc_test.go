package htmldoc

import (
	"strings"
	"testing"
)

func TestReplaceRegion_InteriorOnly(t *testing.T) {
	doc := "PRE<<START>>old<<END>>POST"

	got, err := ReplaceRegion(doc, "<<START>>", "<<END>>", "X")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if want := "PRE<<START>>X<<END>>POST"; got != want {
		t.Fatalf("期望 %q，实际 %q", want, got)
	}
}

func TestReplaceRegion_EmptyInterior(t *testing.T) {
	got, err := ReplaceRegion("a[b]c", "[", "]", "")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if got != "a[]c" {
		t.Fatalf("期望 %q，实际 %q", "a[]c", got)
	}
}

func TestReplaceRegion_FirstOpenNearestClose(t *testing.T) {
	// 第二对标记必须原样保留：只处理首个 open 与其后最近的 close。
	doc := "x<o>1<c>y<o>2<c>z"

	got, err := ReplaceRegion(doc, "<o>", "<c>", "N")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if want := "x<o>N<c>y<o>2<c>z"; got != want {
		t.Fatalf("期望 %q，实际 %q", want, got)
	}
}

func TestReplaceRegion_MissingOpen(t *testing.T) {
	_, err := ReplaceRegion("no markers here", "<<START>>", "<<END>>", "X")
	if err == nil {
		t.Fatalf("期望错误，实际 nil")
	}
	if !IsMarkerNotFound(err) {
		t.Fatalf("期望 MarkerError，实际 %T：%v", err, err)
	}
	if !strings.Contains(err.Error(), "开始标记") {
		t.Fatalf("错误信息应指明缺开始标记：%v", err)
	}
}

func TestReplaceRegion_MissingClose(t *testing.T) {
	_, err := ReplaceRegion("a<<START>>b", "<<START>>", "<<END>>", "X")
	if err == nil {
		t.Fatalf("期望错误，实际 nil")
	}
	if !IsMarkerNotFound(err) {
		t.Fatalf("期望 MarkerError，实际 %T：%v", err, err)
	}
	if !strings.Contains(err.Error(), "结束标记") {
		t.Fatalf("错误信息应指明缺结束标记：%v", err)
	}
}

func TestReplaceRegion_CloseBeforeOpenDoesNotCount(t *testing.T) {
	// close 出现在 open 之前不构成区块。
	_, err := ReplaceRegion("<<END>>middle<<START>>tail", "<<START>>", "<<END>>", "X")
	if err == nil {
		t.Fatalf("期望错误，实际 nil")
	}
	if !IsMarkerNotFound(err) {
		t.Fatalf("期望 MarkerError，实际 %T：%v", err, err)
	}
}

func TestFindRegion_Indices(t *testing.T) {
	doc := "AB<o>CD<c>EF"

	start, end, err := FindRegion(doc, "<o>", "<c>")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if doc[start:end] != "CD" {
		t.Fatalf("期望区间内容 CD，实际 %q", doc[start:end])
	}
}

func TestCountMarkerScripts(t *testing.T) {
	const open = "const videoData = {"

	one := `<html><body>
<script>
        const videoData = {
            all: [],
        };
</script>
</body></html>`
	n, err := CountMarkerScripts(one, open)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if n != 1 {
		t.Fatalf("期望 1 个 script 命中，实际 %d", n)
	}

	// 标记出现在正文而不是 script 里：不计数。
	body := `<html><body><p>const videoData = {</p></body></html>`
	n, err = CountMarkerScripts(body, open)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if n != 0 {
		t.Fatalf("期望 0 个 script 命中，实际 %d", n)
	}

	two := `<html><body><script>const videoData = {};</script><script>const videoData = {};</script></body></html>`
	n, err = CountMarkerScripts(two, open)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if n != 2 {
		t.Fatalf("期望 2 个 script 命中，实际 %d", n)
	}
}
