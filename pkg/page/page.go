// Package page writes the HTML document showing a view: the caption, the
// paired source/bytecode table and the CFG diagram.
package page

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/l3aro/cfgview/pkg/view"
)

//go:embed assets/page.html.tmpl assets/style.css assets/client.js
var assets embed.FS

var (
	pageTemplate = template.Must(template.New("page.html.tmpl").Funcs(template.FuncMap{
		// Source HTML comes from the highlighter or the escaper, instruction
		// fragments from the producer; both are emitted as markup.
		"trusted": func(s string) template.HTML { return template.HTML(s) },
	}).ParseFS(assets, "assets/page.html.tmpl"))

	style  = mustAsset("assets/style.css")
	script = mustAsset("assets/client.js")
)

func mustAsset(name string) string {
	data, err := assets.ReadFile(name)
	if err != nil {
		panic(err)
	}
	return string(data)
}

// Options controls the document.
type Options struct {
	// Live adds the client script that connects to Socket and streams
	// interaction events. Without it the page is a static snapshot.
	Live   bool
	Socket string
}

type data struct {
	Title  string
	Name   string
	File   string
	Rows   any
	SVG    template.HTML
	Style  template.CSS
	Script template.JS
	Socket string
	Live   bool
}

// Write renders the document for v.
func Write(w io.Writer, v *view.View, opts Options) error {
	d := data{
		Title:  v.Caption(),
		Name:   v.Function.Name,
		File:   v.Function.FileLocation,
		Rows:   v.Table.Rows,
		SVG:    template.HTML(v.Canvas.String()),
		Style:  template.CSS(style),
		Live:   opts.Live,
		Socket: opts.Socket,
	}
	if opts.Live {
		d.Script = template.JS(script)
		if d.Socket == "" {
			d.Socket = "/ws"
		}
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, d); err != nil {
		return fmt.Errorf("rendering page: %w", err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// Script returns the live client script.
func Script() string {
	return script
}
