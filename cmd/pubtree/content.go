package main

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/eringen/pubtree"
	"github.com/eringen/pubtree/textdoc"
)

var categoryCmd = &cobra.Command{
	Use:   "category",
	Short: "Manage categories",
}

var categoryAddCmd = &cobra.Command{
	Use:   "add [slug]",
	Short: "Create or replace a category",
	Long:  `Stores a category. The optional hero file is plain text shown above the category's post list.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runCategoryAdd,
}

var categoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List categories",
	Args:  cobra.NoArgs,
	RunE:  runCategoryList,
}

var pageCmd = &cobra.Command{
	Use:   "page",
	Short: "Manage standalone pages",
}

var pageAddCmd = &cobra.Command{
	Use:   "add [slug]",
	Short: "Create or replace a page",
	Long:  `Stores a standalone page. The body is read from --file, or stdin when --file is "-".`,
	Args:  cobra.ExactArgs(1),
	RunE:  runPageAdd,
}

var pageListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pages",
	Args:  cobra.NoArgs,
	RunE:  runPageList,
}

var (
	categoryTitle    string
	categoryHeroFile string

	pageTitle string
	pageFile  string
	pageMeta  string
)

func init() {
	categoryAddCmd.Flags().StringVarP(&categoryTitle, "title", "t", "", "Display title (default slug)")
	categoryAddCmd.Flags().StringVar(&categoryHeroFile, "hero-file", "", "Plain-text hero content")
	categoryCmd.AddCommand(categoryAddCmd)
	categoryCmd.AddCommand(categoryListCmd)
	rootCmd.AddCommand(categoryCmd)

	pageAddCmd.Flags().StringVarP(&pageTitle, "title", "t", "", "Page title")
	pageAddCmd.Flags().StringVarP(&pageFile, "file", "f", "-", "Body file, - for stdin")
	pageAddCmd.Flags().StringVar(&pageMeta, "meta", "", "Meta description")
	_ = pageAddCmd.MarkFlagRequired("title")
	pageCmd.AddCommand(pageAddCmd)
	pageCmd.AddCommand(pageListCmd)
	rootCmd.AddCommand(pageCmd)
}

func openStore() (*pubtree.Store, error) {
	return pubtree.NewStore(siteCfg.DatabasePath)
}

func runCategoryAdd(cmd *cobra.Command, args []string) error {
	slug := pubtree.Slugify(args[0])
	cat := pubtree.Category{Slug: slug, Title: categoryTitle}
	if cat.Title == "" {
		cat.Title = args[0]
	}
	if categoryHeroFile != "" {
		src, err := readInput(cmd, []string{categoryHeroFile})
		if err != nil {
			return err
		}
		cat.HeroContent = textdoc.Parse(src)
	}

	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()
	if err := s.SaveCategory(cat); err != nil {
		return err
	}
	cmd.Printf("Saved category %s (%s)\n", cat.Slug, cat.Title)
	return nil
}

func runCategoryList(cmd *cobra.Command, _ []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()
	cats, err := s.ListCategories()
	if err != nil {
		return err
	}
	for _, c := range cats {
		posts, err := s.ListPosts(c.Slug)
		if err != nil {
			return err
		}
		cmd.Printf("%-24s %-32s %d posts\n", c.Slug, c.Title, len(posts))
	}
	return nil
}

func runPageAdd(cmd *cobra.Command, args []string) error {
	var in []string
	if pageFile != "-" {
		in = []string{pageFile}
	}
	src, err := readInput(cmd, in)
	if err != nil {
		return err
	}
	page := pubtree.Page{
		Slug:            pubtree.Slugify(args[0]),
		Title:           pageTitle,
		Content:         textdoc.Parse(src),
		MetaDescription: pageMeta,
		UpdatedAt:       time.Now().UTC(),
	}

	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()
	if err := s.SavePage(page); err != nil {
		return err
	}
	cmd.Printf("Saved page %s (%s)\n", page.Slug, page.Title)
	return nil
}

func runPageList(cmd *cobra.Command, _ []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()
	pages, err := s.ListPages()
	if err != nil {
		return err
	}
	for _, p := range pages {
		cmd.Printf("%-24s %-32s updated %s\n", p.Slug, p.Title, humanize.Time(p.UpdatedAt))
	}
	return nil
}
