package summary

import (
	"reflect"
	"strings"
	"testing"

	"github.com/eringen/pubtree/doctree"
	"github.com/eringen/pubtree/textdoc"
)

func words(n int) string {
	w := make([]string, n)
	for i := range w {
		w[i] = "ord"
	}
	return strings.Join(w, " ")
}

func TestReadingTimeEmpty(t *testing.T) {
	if got := ReadingTime(nil, 200); got != 0 {
		t.Errorf("ReadingTime(nil) = %d, want 0", got)
	}
	if got := ReadingTimeHTML("", 200); got != 0 {
		t.Errorf("ReadingTimeHTML(\"\") = %d, want 0", got)
	}
	if got := ReadingTimeHTML("<p></p>", 200); got != 0 {
		t.Errorf("ReadingTimeHTML(<p></p>) = %d, want 0", got)
	}
	if got := ReadingTime(doctree.Empty(), 200); got != 0 {
		t.Errorf("ReadingTime(Empty()) = %d, want 0", got)
	}
}

func TestReadingTimeHTML(t *testing.T) {
	tests := []struct {
		input    string
		wpm      int
		expected int
	}{
		{"one", 200, 1},
		{words(200), 200, 1},
		{words(201), 200, 2},
		{words(450), 200, 3},
		{"<p>" + words(100) + "</p><p>" + words(100) + "</p>", 100, 2},
		{"a<br>b", 1, 2},
		{words(10), 0, 1},
		{words(10), -5, 1},
	}
	for _, tt := range tests {
		if got := ReadingTimeHTML(tt.input, tt.wpm); got != tt.expected {
			t.Errorf("ReadingTimeHTML(%d words, %d) = %d, want %d", WordCount(StripTags(tt.input)), tt.wpm, got, tt.expected)
		}
	}
}

func TestReadingTimeTagsSeparateWords(t *testing.T) {
	if got := WordCount(StripTags("<h1>Rubrik</h1><p>Text</p>")); got != 2 {
		t.Errorf("word count = %d, want 2", got)
	}
}

func TestReadingTimeMonotonic(t *testing.T) {
	prev := 0
	for n := 0; n <= 1000; n += 37 {
		got := ReadingTime(textdoc.Parse(words(n)), 120)
		if got < prev {
			t.Fatalf("ReadingTime(%d words) = %d, less than %d for fewer words", n, got, prev)
		}
		if n > 0 && got < 1 {
			t.Fatalf("ReadingTime(%d words) = %d, want >= 1", n, got)
		}
		prev = got
	}
}

func TestReadingTimeTree(t *testing.T) {
	root := textdoc.Parse("# Title\nIntro line.\n\n## Section\nBody text that continues.")
	if got := ReadingTime(root, 200); got != 1 {
		t.Errorf("ReadingTime = %d, want 1", got)
	}
	if got := WordCount(PlainText(root)); got != 8 {
		t.Errorf("word count = %d, want 8", got)
	}
}

func TestReadingTimeAdjacentRunsSeparated(t *testing.T) {
	root := &doctree.Root{Children: []doctree.Block{
		&doctree.Paragraph{Children: []doctree.Inline{
			&doctree.TextRun{Text: "hel", Format: doctree.Bold},
			&doctree.TextRun{Text: "lo"},
		}},
	}}
	if got := WordCount(PlainText(root)); got != 2 {
		t.Errorf("word count = %d, want 2", got)
	}
}

func TestPlainText(t *testing.T) {
	root := &doctree.Root{Children: []doctree.Block{
		doctree.NewHeading(2, "Rubrik"),
		&doctree.Paragraph{Children: []doctree.Inline{
			doctree.NewText("Läs"),
			&doctree.Link{URL: "https://example.com", Children: []doctree.Inline{
				doctree.NewText("mer"),
				&doctree.Link{URL: "/inre", Children: []doctree.Inline{doctree.NewText("här")}},
			}},
			&doctree.LineBreak{},
			doctree.NewText("slut"),
		}},
	}}
	want := "Rubrik Läs mer här slut "
	if got := PlainText(root); got != want {
		t.Errorf("PlainText = %q, want %q", got, want)
	}
	if got := PlainText(nil); got != "" {
		t.Errorf("PlainText(nil) = %q, want empty", got)
	}
}

func TestPlainTextRoundTrip(t *testing.T) {
	source := "# Teknisk SEO\nTeknisk SEO är grunden för en väloptimerad webbplats.\nUtan en solid grund\n\n## Vad är det?\nDet handlar om infrastruktur."
	got := strings.Fields(PlainText(textdoc.Parse(source)))
	want := strings.Fields(strings.ReplaceAll(source, "#", ""))
	if !reflect.DeepEqual(got, want) {
		t.Errorf("PlainText words = %v, want %v", got, want)
	}
}

func TestExcerptEmpty(t *testing.T) {
	for _, input := range []string{"", "<p></p>", "  ", "<br/>"} {
		if got := Excerpt(input, 10); got != "" {
			t.Errorf("Excerpt(%q) = %q, want empty", input, got)
		}
	}
}

func TestExcerptShortContent(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Hello world", "<p>Hello world</p>"},
		{"<p>Första.</p><p>Andra.</p>", "<p>Första. Andra.</p>"},
		{"<P>Upper</P>\n<P>case</P>", "<p>Upper case</p>"},
		{"<h2>Rubrik</h2><p>Text</p>", "<p>RubrikText</p>"},
		{"<p>a <strong>bold</strong>   move</p>", "<p>a bold move</p>"},
	}
	for _, tt := range tests {
		if got := Excerpt(tt.input, 65); got != tt.expected {
			t.Errorf("Excerpt(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestExcerptPrefersSentence(t *testing.T) {
	got := Excerpt("Sentence one. Sentence two is longer than the limit here.", 3)
	if got != "<p>Sentence one.</p>" {
		t.Errorf("Excerpt = %q, want %q", got, "<p>Sentence one.</p>")
	}
}

func TestExcerptLastSentenceWithinLimit(t *testing.T) {
	input := "One. Two! Three? four five six seven"
	tests := []struct {
		limit    int
		expected string
	}{
		{1, "<p>One.</p>"},
		{2, "<p>One. Two!</p>"},
		{4, "<p>One. Two! Three?</p>"},
		{6, "<p>One. Two! Three?</p>"},
		{7, "<p>One. Two! Three? four five six seven</p>"},
	}
	for _, tt := range tests {
		if got := Excerpt(input, tt.limit); got != tt.expected {
			t.Errorf("Excerpt(limit %d) = %q, want %q", tt.limit, got, tt.expected)
		}
	}
}

func TestExcerptHardCut(t *testing.T) {
	got := Excerpt("no sentence ends anywhere in this text at all", 4)
	if got != "<p>no sentence ends anywhere</p>" {
		t.Errorf("Excerpt = %q", got)
	}
}

func TestExcerptAbbreviationEndsSentence(t *testing.T) {
	got := Excerpt("Made in the U.S. by hand and shipped worldwide", 6)
	if got != "<p>Made in the U.S.</p>" {
		t.Errorf("Excerpt = %q, want cut after %q", got, "U.S.")
	}
}

func TestExcerptBound(t *testing.T) {
	inputs := []string{
		words(10),
		words(100),
		"<p>" + words(40) + ".</p><p>" + words(40) + "</p>",
		"Kort. " + words(90),
	}
	for _, input := range inputs {
		for _, limit := range []int{1, 5, 40, 65, 200} {
			text := ExcerptText(input, limit)
			if n := WordCount(text); n > limit {
				t.Errorf("ExcerptText(%d words, %d) has %d words", WordCount(input), limit, n)
			}
			if WordCount(NormalizeHTML(input)) <= limit && text != NormalizeHTML(input) {
				t.Errorf("ExcerptText(%d words, %d) = %q, want full text", WordCount(input), limit, text)
			}
		}
	}
}

func TestExcerptDefaultLimit(t *testing.T) {
	got := ExcerptText(words(100), 0)
	if n := WordCount(got); n != DefaultExcerptWords {
		t.Errorf("default excerpt words = %d, want %d", n, DefaultExcerptWords)
	}
}

func TestExcerptNoBreakSpace(t *testing.T) {
	got := ExcerptText("ett\u00a0två\u00a0tre", 2)
	if got != "ett två" {
		t.Errorf("ExcerptText = %q, want %q", got, "ett två")
	}
}

func TestFormatReadingTime(t *testing.T) {
	if got := FormatReadingTime(5); got != "5 min" {
		t.Errorf("FormatReadingTime(5) = %q", got)
	}
}
