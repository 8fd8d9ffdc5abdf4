// Package web embeds the HTML templates and static assets served by the app.
package web

import "embed"

// Templates embeds HTML templates.
//
//go:embed templates/**/*.html
var Templates embed.FS

// Static embeds static assets (stylesheets, images).
//
//go:embed static/**/*
var Static embed.FS
