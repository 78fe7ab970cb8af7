package style

import (
	"fmt"

	"styledom/pkg/css"
	"styledom/pkg/dom"
)

// uaSource is the user agent stylesheet, keyed by node type.
var uaSource = map[dom.NodeType]string{
	dom.NodeBody:     "display: block; margin: 8px",
	dom.NodeDiv:      "display: block",
	dom.NodeP:        "display: block; margin-top: 1em; margin-bottom: 1em",
	dom.NodeH1:       "display: block; font-size: 2em; font-weight: bold; margin-top: 0.67em; margin-bottom: 0.67em",
	dom.NodeH2:       "display: block; font-size: 1.5em; font-weight: bold; margin-top: 0.83em; margin-bottom: 0.83em",
	dom.NodeH3:       "display: block; font-size: 1.17em; font-weight: bold; margin-top: 1em; margin-bottom: 1em",
	dom.NodeH4:       "display: block; font-size: 1em; font-weight: bold; margin-top: 1.33em; margin-bottom: 1.33em",
	dom.NodeH5:       "display: block; font-size: 0.83em; font-weight: bold; margin-top: 1.67em; margin-bottom: 1.67em",
	dom.NodeH6:       "display: block; font-size: 0.67em; font-weight: bold; margin-top: 2.33em; margin-bottom: 2.33em",
	dom.NodeUl:       "display: block; margin-top: 1em; margin-bottom: 1em; padding-left: 40px",
	dom.NodeOl:       "display: block; margin-top: 1em; margin-bottom: 1em; padding-left: 40px",
	dom.NodeLi:       "display: block",
	dom.NodeSpan:     "display: inline",
	dom.NodeA:        "display: inline; color: #0645ad; text-decoration: underline",
	dom.NodeLabel:    "display: inline",
	dom.NodeButton:   "display: inline-block",
	dom.NodeInput:    "display: inline-block",
	dom.NodeTextArea: "display: inline-block",
	dom.NodeImg:      "display: inline-block",
	dom.NodeBr:       "display: inline",
	dom.NodeIFrame:   "display: block",
	dom.NodeGL:       "display: block",
}

// rootSource seeds the root node so that inherited properties always have
// a value to inherit.
const rootSource = "color: black; font-family: sans-serif"

var uaDeclarations = func() map[dom.NodeType][]css.Declaration {
	m := make(map[dom.NodeType][]css.Declaration, len(uaSource))
	for t, src := range uaSource {
		m[t] = mustParseInline(src)
	}
	return m
}()

var rootDeclarations = mustParseInline(rootSource)

func mustParseInline(src string) []css.Declaration {
	decls, errs := css.ParseInlineStyle(src)
	if len(errs) > 0 {
		panic(fmt.Sprintf("style: bad user agent css %q: %v", src, errs[0]))
	}
	return decls
}

// UserAgentDeclarations returns the built-in declarations for a node type.
func UserAgentDeclarations(t dom.NodeType) []css.Declaration {
	return uaDeclarations[t]
}
