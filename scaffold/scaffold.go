// Package scaffold embeds the site skeleton written by "pubtree new": a
// config file, an environment example, static assets and a sample post.
package scaffold

import "embed"

// Templates holds the skeleton under templates/. Files ending in .tmpl are
// executed with text/template; the suffix is dropped on output.
//
//go:embed all:templates
var Templates embed.FS
