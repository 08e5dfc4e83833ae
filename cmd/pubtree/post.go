package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/eringen/pubtree"
)

const postTimeout = 60 * time.Second

var postOpts struct {
	url        string
	apiKey     string
	title      string
	file       string
	slug       string
	meta       string
	image      string
	imageAlt   string
	categories []string
}

var postCmd = &cobra.Command{
	Use:   "post",
	Short: "Create a post through the create-post API",
	Long: `Sends a plain-text post to a running pubtree server. The body is read from
--file, or stdin when --file is "-" or omitted. The server URL and API key
default to the site config (SITE_URL, API_KEY).`,
	Example: `  pubtree post --title "Bästa elbilen 2025" --file post.txt --category elbilar
  cat post.txt | pubtree post --title "Snabbt" --image https://example.se/bil.jpg`,
	Args: cobra.NoArgs,
	RunE: runPost,
}

func init() {
	f := postCmd.Flags()
	f.StringVar(&postOpts.url, "url", "", "Server base URL (default from config)")
	f.StringVar(&postOpts.apiKey, "api-key", "", "Bearer API key (default from config)")
	f.StringVarP(&postOpts.title, "title", "t", "", "Post title")
	f.StringVarP(&postOpts.file, "file", "f", "-", "Body file, - for stdin")
	f.StringVar(&postOpts.slug, "slug", "", "Explicit slug (default derived from title)")
	f.StringVar(&postOpts.meta, "meta", "", "Meta description")
	f.StringVar(&postOpts.image, "image", "", "Hero image URL")
	f.StringVar(&postOpts.imageAlt, "image-alt", "", "Hero image alt text (default title)")
	f.StringSliceVar(&postOpts.categories, "category", nil, "Category slug, repeatable")
	_ = postCmd.MarkFlagRequired("title")
	rootCmd.AddCommand(postCmd)
}

type postRequest struct {
	Title           string   `json:"title"`
	Body            string   `json:"body"`
	Slug            string   `json:"slug,omitempty"`
	MetaDescription string   `json:"metaDescription,omitempty"`
	Image           string   `json:"image,omitempty"`
	ImageAlt        string   `json:"imageAlt,omitempty"`
	Categories      []string `json:"categories,omitempty"`
}

type postResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
	Post    struct {
		ID     string `json:"id"`
		Title  string `json:"title"`
		Slug   string `json:"slug"`
		Status string `json:"status"`
	} `json:"post"`
}

func runPost(cmd *cobra.Command, _ []string) error {
	base := postOpts.url
	if base == "" {
		base = siteCfg.URL
	}
	key := postOpts.apiKey
	if key == "" {
		key = siteCfg.APIKey
	}
	if key == "" {
		return errors.New("no API key: set API_KEY or pass --api-key")
	}

	var args []string
	if postOpts.file != "-" {
		args = []string{postOpts.file}
	}
	body, err := readInput(cmd, args)
	if err != nil {
		return err
	}
	if strings.TrimSpace(body) == "" {
		return errors.New("post body is empty")
	}

	payload, err := json.Marshal(postRequest{
		Title:           postOpts.title,
		Body:            body,
		Slug:            postOpts.slug,
		MetaDescription: postOpts.meta,
		Image:           postOpts.image,
		ImageAlt:        postOpts.imageAlt,
		Categories:      postOpts.categories,
	})
	if err != nil {
		return err
	}

	endpoint := strings.TrimRight(base, "/") + "/api/create-post"
	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+key)

	log.Debug().Str("endpoint", endpoint).Int("bytes", len(payload)).Msg("sending post")
	client := &http.Client{Timeout: postTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	defer resp.Body.Close()

	var out postResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("create post: unexpected %s response: %w", resp.Status, err)
	}
	if resp.StatusCode != http.StatusCreated {
		msg := out.Error
		if out.Message != "" {
			msg += ": " + out.Message
		}
		return fmt.Errorf("create post: %s (%d)", msg, resp.StatusCode)
	}

	cmd.Printf("Created %q (%s)\n", out.Post.Title, out.Post.ID)
	cmd.Println(pubtree.BuildURL(base, out.Post.Slug))
	return nil
}
