package folio

import "embed"

// EmbeddedAssets contains static assets shipped with folio: the default
// stylesheet served at /public/style.css.
//
//go:embed embedded/*
var EmbeddedAssets embed.FS
