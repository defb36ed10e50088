package output

import "testing"

func TestFormatScore(t *testing.T) {
	cases := map[int]string{
		0:  "",
		1:  "½",
		2:  "★",
		7:  "★★★½",
		10: "★★★★★",
	}
	for score, want := range cases {
		if got := FormatScore(score); got != want {
			t.Errorf("FormatScore(%d): got %q, want %q", score, got, want)
		}
	}
}

func TestRenderMarkdownEmpty(t *testing.T) {
	got, err := RenderMarkdownWithWidth("   \n", 80)
	if err != nil {
		t.Fatalf("RenderMarkdownWithWidth failed: %v", err)
	}
	if got != "" {
		t.Errorf("blank input rendered to %q", got)
	}
}

func TestRenderMarkdown(t *testing.T) {
	got, err := RenderMarkdownWithWidth("# Visit\n\nFound the **pillar**.", 60)
	if err != nil {
		t.Fatalf("RenderMarkdownWithWidth failed: %v", err)
	}
	if got == "" {
		t.Error("markdown rendered to empty string")
	}
}
