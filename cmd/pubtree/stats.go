package main

import (
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/eringen/pubtree/richtext"
	"github.com/eringen/pubtree/summary"
	"github.com/eringen/pubtree/textdoc"
)

var (
	statsHTML  bool
	statsWPM   int
	statsWords int
)

var statsCmd = &cobra.Command{
	Use:   "stats [file]",
	Short: "Show word count, reading time and excerpt",
	Long: `Reads plain text (or HTML with --html) from file or stdin and prints the
values the site derives from it: word count, reading time and the card
excerpt.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsHTML, "html", false, "Treat the input as HTML")
	statsCmd.Flags().IntVar(&statsWPM, "wpm", 0, "Reading speed in words per minute (default from config)")
	statsCmd.Flags().IntVar(&statsWords, "words", 0, "Excerpt word limit (default from config)")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	src, err := readInput(cmd, args)
	if err != nil {
		return err
	}
	wpm := statsWPM
	if wpm <= 0 {
		wpm = siteCfg.WordsPerMinute
	}
	limit := statsWords
	if limit <= 0 {
		limit = siteCfg.ExcerptWords
	}

	var html string
	var words, minutes int
	if statsHTML {
		html = src
		words = summary.WordCount(summary.StripTags(src))
		minutes = summary.ReadingTimeHTML(src, wpm)
	} else {
		root := textdoc.Parse(src)
		html = richtext.HTML(root)
		words = summary.WordCount(summary.PlainText(root))
		minutes = summary.ReadingTime(root, wpm)
	}

	cmd.Printf("Size:         %s\n", humanize.Bytes(uint64(len(src))))
	cmd.Printf("Words:        %s\n", humanize.Comma(int64(words)))
	cmd.Printf("Reading time: %s\n", summary.FormatReadingTime(minutes))
	if excerpt := summary.ExcerptText(html, limit); excerpt != "" {
		cmd.Printf("Excerpt:      %s\n", excerpt)
	}
	return nil
}
