package derive

import "testing"

func TestTitle(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"a_b_c.mp4", "a - b - c"},
		{"_leading_.mp4", "leading"},
		{"極光_台北夜景.mp4", "極光 - 台北夜景"},
		{"plain.mov", "plain"},
		// 历史文件里的双重后缀也要被清干净。
		{"clip.mp4.mp4", "clip"},
		{"already clean.mp4", "already clean"},
	}

	for _, c := range cases {
		if got := Title(c.name); got != c.want {
			t.Fatalf("Title(%q)：期望 %q，实际 %q", c.name, c.want, got)
		}
	}
}

func TestDuration_Bands(t *testing.T) {
	const mb = int64(1024 * 1024)

	cases := []struct {
		size int64
		want string
	}{
		// <3MB：0:(20+mb*10)
		{0, "0:20"},
		{mb * 3 / 2, "0:35"},
		{2 * mb, "0:40"},
		// [3,10)MB：0:(40+mb*5)
		{3 * mb, "0:55"},
		{7 * mb, "0:75"}, // 公式就是这么粗糙，秒数可以溢出 59
		// [10,30)MB：1:(mb*2)
		{10 * mb, "1:20"},
		{25 * mb, "1:50"},
		// >=30MB：2:(mb/10)
		{30 * mb, "2:03"},
		{500 * mb, "2:50"},
	}

	for _, c := range cases {
		if got := Duration(c.size); got != c.want {
			t.Fatalf("Duration(%d)：期望 %q，实际 %q", c.size, c.want, got)
		}
	}
}

func TestTrending_CaseSensitiveSubstring(t *testing.T) {
	keywords := []string{"極光", "80 年代", "日落"}

	if !Trending("2024_極光_夜拍.mp4", keywords) {
		t.Fatalf("期望命中 極光")
	}
	if !Trending("台北80 年代街景.mp4", keywords) {
		t.Fatalf("期望命中 80 年代")
	}
	// 少了空格就不是同一个关键字。
	if Trending("台北80年代街景.mp4", keywords) {
		t.Fatalf("不应命中：关键字匹配区分字面")
	}
	if Trending("aurora.mp4", keywords) {
		t.Fatalf("不应命中任何关键字")
	}
	if Trending("anything.mp4", nil) {
		t.Fatalf("空关键字表不应命中")
	}
	if Trending("anything.mp4", []string{""}) {
		t.Fatalf("空串关键字必须被忽略")
	}
}
