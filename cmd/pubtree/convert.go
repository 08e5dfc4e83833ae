package main

import (
	"bytes"
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/eringen/pubtree/doctree"
	"github.com/eringen/pubtree/richtext"
	"github.com/eringen/pubtree/textdoc"
)

var (
	convertPretty bool
	convertHTML   bool
)

var convertCmd = &cobra.Command{
	Use:   "convert [file]",
	Short: "Convert plain text to a document tree",
	Long: `Parses plain text from file, or stdin when file is "-" or omitted, and
prints the document tree as Lexical JSON. With --html the tree is rendered
to HTML instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().BoolVarP(&convertPretty, "pretty", "p", false, "Indent the JSON output")
	convertCmd.Flags().BoolVar(&convertHTML, "html", false, "Render HTML instead of JSON")
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	src, err := readInput(cmd, args)
	if err != nil {
		return err
	}
	root := textdoc.Parse(src)
	if convertHTML {
		cmd.Println(richtext.HTML(root))
		return nil
	}

	out, err := doctree.Marshal(root)
	if err != nil {
		return err
	}
	if convertPretty {
		var buf bytes.Buffer
		if err := json.Indent(&buf, out, "", "  "); err != nil {
			return err
		}
		out = buf.Bytes()
	}
	cmd.Println(string(out))
	return nil
}
