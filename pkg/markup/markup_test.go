package markup

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"styledom/pkg/css"
	"styledom/pkg/dom"
	"styledom/pkg/images"
	"styledom/pkg/resource"
	"styledom/pkg/task"
)

func TestParse_Document(t *testing.T) {
	doc, err := Parse(context.Background(),
		`<!DOCTYPE html><html><head><title> Demo </title><style>div { width: 10px }</style></head>`+
			`<body class="page"><div id="a b" class="x y" style="width: 20px" data-key="k">Hi<br>there</div></body></html>`)
	require.NoError(t, err)

	assert.Equal(t, "Demo", doc.Title)
	assert.Equal(t, []string{"div { width: 10px }"}, doc.Styles)
	assert.Equal(t, dom.NodeBody, doc.Body.Node.Type)
	assert.Equal(t, []string{"page"}, doc.Body.Node.Classes)
	require.Len(t, doc.Body.Children, 1)

	div := doc.Body.Children[0]
	assert.Equal(t, dom.NodeDiv, div.Node.Type)
	assert.Equal(t, []string{"a", "b"}, div.Node.IDs)
	assert.Equal(t, []string{"x", "y"}, div.Node.Classes)
	assert.Equal(t, "k", div.Node.Key)
	require.Len(t, div.Node.InlineCSS, 1)
	assert.Equal(t, css.PropWidth, div.Node.InlineCSS[0].Property.Type)

	require.Len(t, div.Children, 3)
	assert.Equal(t, "Hi", div.Children[0].Node.Text)
	assert.Equal(t, dom.NodeBr, div.Children[1].Node.Type)
	assert.Equal(t, "there", div.Children[2].Node.Text)
}

func TestParse_UnknownElements(t *testing.T) {
	doc, err := ParseFragment(context.Background(), `<section><em>a</em><h2>b</h2></section><svg></svg>`)
	require.NoError(t, err)

	require.Len(t, doc.Body.Children, 1)
	section := doc.Body.Children[0]
	assert.Equal(t, dom.NodeDiv, section.Node.Type)
	require.Len(t, section.Children, 2)
	assert.Equal(t, dom.NodeSpan, section.Children[0].Node.Type)
	assert.Equal(t, dom.NodeH2, section.Children[1].Node.Type)
}

func TestParse_Stylesheet(t *testing.T) {
	doc, err := Parse(context.Background(),
		`<link rel="stylesheet" href="data:text/css,p%20%7B%20color%3A%20red%20%7D"><style>div { width: 1px }</style>`)
	require.NoError(t, err)
	require.Len(t, doc.Styles, 2)
	assert.Equal(t, "p { color: red }", doc.Styles[0])

	sheet, errs := doc.Stylesheet()
	assert.Empty(t, errs)
	assert.Len(t, sheet.Rules, 2)
}

func TestParse_MatchLinks(t *testing.T) {
	doc, err := Parse(context.Background(), `<link rel="match" href=" ref.html "><link rel="help" href="x"><p>x</p>`)
	require.NoError(t, err)
	assert.Equal(t, []string{"ref.html"}, doc.Matches)
	assert.Empty(t, doc.Styles)
}

func TestParse_BrokenLinkIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	doc, err := Parse(context.Background(), `<link rel="stylesheet" href="/does/not/exist.css"><p>x</p>`,
		WithLogger(zap.New(core)))
	require.NoError(t, err)
	assert.Empty(t, doc.Styles)
	assert.Equal(t, 1, logs.FilterMessage("stylesheet not loaded").Len())
	assert.Len(t, doc.Body.Children, 1)
}

func TestParse_Scripts(t *testing.T) {
	doc, err := Parse(context.Background(),
		`<script>var a = 1;</script><script src="data:text/javascript,var%20b%20%3D%202%3B"></script><script> </script>`)
	require.NoError(t, err)
	assert.Equal(t, []string{"var a = 1;", "var b = 2;"}, doc.Scripts)
}

func TestParse_EventAttributes(t *testing.T) {
	var seen []string
	handler := func(attr, code string) (dom.Callback, any, error) {
		seen = append(seen, attr+":"+code)
		if attr == "onblur" {
			return nil, nil, errors.New("nope")
		}
		return func(any, dom.CallbackInfo) task.Update { return task.DoNothing }, code, nil
	}
	core, logs := observer.New(zapcore.WarnLevel)
	doc, err := ParseFragment(context.Background(),
		`<button onclick="go()" onfocus="f()" onblur="b()" ondrag="d()">ok</button>`,
		WithHandler(handler), WithLogger(zap.New(core)))
	require.NoError(t, err)

	button := doc.Body.Children[0].Node
	assert.Equal(t, dom.NodeButton, button.Type)
	require.Len(t, button.Callbacks, 2)
	assert.Equal(t, dom.HoverFilter(dom.EventLeftMouseUp), button.Callbacks[0].Filter)
	assert.Equal(t, "go()", button.Callbacks[0].Data)
	assert.Equal(t, dom.FocusFilter(dom.EventFocusReceived), button.Callbacks[1].Filter)
	assert.Equal(t, []string{"onclick:go()", "onfocus:f()", "onblur:b()"}, seen)
	assert.Equal(t, 1, logs.FilterMessage("event attribute dropped").Len())
}

func TestParse_WithoutHandlerDropsEvents(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	doc, err := ParseFragment(context.Background(), `<div onclick="x()"></div>`, WithLogger(zap.New(core)))
	require.NoError(t, err)
	assert.Empty(t, doc.Body.Children[0].Node.Callbacks)
	entries := logs.FilterMessage("event attribute dropped").All()
	require.Len(t, entries, 1)
	assert.Equal(t, ErrNoHandler.Error(), entries[0].ContextMap()["error"])
}

func TestParse_Accessibility(t *testing.T) {
	doc, err := ParseFragment(context.Background(),
		`<div role="checkbox" aria-label="Agree" aria-checked="true" aria-disabled="false"></div><p></p>`)
	require.NoError(t, err)
	a := doc.Body.Children[0].Node.Accessibility
	require.NotNil(t, a)
	assert.Equal(t, dom.AccessibilityInfo{Role: "checkbox", Label: "Agree", States: []string{"checked"}}, *a)
	assert.Nil(t, doc.Body.Children[1].Node.Accessibility)
}

func TestParse_ImageSizes(t *testing.T) {
	store := images.NewStore(resource.NewFetcher(""), nil)
	store.Add("cat.png", image.NewRGBA(image.Rect(0, 0, 40, 20)))

	doc, err := ParseFragment(context.Background(),
		`<img src="cat.png"><img src="cat.png" width="20"><img src="cat.png" width="10px" height="30"><img src="missing.png" height="5">`,
		WithImages(store))
	require.NoError(t, err)
	require.Len(t, doc.Body.Children, 4)

	sizes := make([][2]float64, 0, 4)
	for _, c := range doc.Body.Children {
		require.Equal(t, dom.NodeImg, c.Node.Type)
		sizes = append(sizes, [2]float64{c.Node.Image.Width, c.Node.Image.Height})
	}
	assert.Equal(t, [][2]float64{{40, 20}, {20, 10}, {10, 30}, {0, 5}}, sizes)
}

func TestParseXML(t *testing.T) {
	doc, err := ParseXML(context.Background(),
		`<?xml version="1.0"?>`+
			`<html xmlns="http://www.w3.org/1999/xhtml"><head><title>X</title><style>p { width: 5px }</style></head>`+
			`<body><p class="c" xml:lang="en">a&nbsp;b<span>c</span></p></body></html>`)
	require.NoError(t, err)
	assert.Equal(t, "X", doc.Title)
	assert.Equal(t, []string{"p { width: 5px }"}, doc.Styles)

	require.Len(t, doc.Body.Children, 1)
	p := doc.Body.Children[0]
	assert.Equal(t, dom.NodeP, p.Node.Type)
	assert.Equal(t, []string{"c"}, p.Node.Classes)
	require.Len(t, p.Children, 2)
	assert.Equal(t, "a\u00a0b", p.Children[0].Node.Text)
	assert.Equal(t, dom.NodeSpan, p.Children[1].Node.Type)
}

func TestParseXML_BareRootIsWrapped(t *testing.T) {
	doc, err := ParseXML(context.Background(), `<div><p>x</p></div>`)
	require.NoError(t, err)
	assert.Equal(t, dom.NodeBody, doc.Body.Node.Type)
	require.Len(t, doc.Body.Children, 1)
	assert.Equal(t, dom.NodeDiv, doc.Body.Children[0].Node.Type)
}

func TestParseXML_Malformed(t *testing.T) {
	_, err := ParseXML(context.Background(), `<div><p></div>`)
	assert.Error(t, err)

	_, err = ParseXML(context.Background(), ``)
	assert.Error(t, err)
}
