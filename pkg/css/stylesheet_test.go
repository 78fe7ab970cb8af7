package css

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStylesheet_Basic(t *testing.T) {
	sheet, errs := ParseStylesheet(`
		div { width: 100px; color: red; }
		.a, #b { margin: 0; }
	`)
	require.Empty(t, errs)
	require.Len(t, sheet.Rules, 3)

	assert.Equal(t, "div", sheet.Rules[0].Path.String())
	assert.Len(t, sheet.Rules[0].Declarations, 2)
	assert.Equal(t, ".a", sheet.Rules[1].Path.String())
	assert.Equal(t, "#b", sheet.Rules[2].Path.String())
	assert.Len(t, sheet.Rules[2].Declarations, 4)
}

func TestParseStylesheet_Comments(t *testing.T) {
	sheet, errs := ParseStylesheet(`
		/* leading */
		p { color: blue; }
		/* trailing */
	`)
	require.Empty(t, errs)
	require.Len(t, sheet.Rules, 1)
}

func TestParseStylesheet_DropsInvalidSelector(t *testing.T) {
	sheet, errs := ParseStylesheet("body { color: red; }\ndiv..x { color: red; }\nh1 { font-size: 20px; }")
	require.Len(t, sheet.Rules, 2)
	assert.Equal(t, "body", sheet.Rules[0].Path.String())
	assert.Equal(t, "h1", sheet.Rules[1].Path.String())

	require.Len(t, errs, 1)
	assert.Equal(t, 2, errs[0].Line)
	assert.Equal(t, 1, errs[0].Column)
	assert.Equal(t, "div..x", errs[0].Rule)
}

func TestParseStylesheet_DropsInvalidDeclarationOnly(t *testing.T) {
	sheet, errs := ParseStylesheet(`p { colour: red; width: 10px; display: sideways; }`)
	require.Len(t, sheet.Rules, 1)
	require.Len(t, sheet.Rules[0].Declarations, 1)
	assert.Equal(t, PropWidth, sheet.Rules[0].Declarations[0].Property.Type)
	require.Len(t, errs, 2)
	assert.ErrorIs(t, errs[0], ErrUnknownProperty)
	assert.ErrorIs(t, errs[1], ErrInvalidValue)
}

func TestParseInlineStyle(t *testing.T) {
	decls, errs := ParseInlineStyle("font-size: 20px; padding: 1px 2px")
	require.Empty(t, errs)
	require.Len(t, decls, 5)
	assert.Equal(t, PropFontSize, decls[0].Property.Type)
	assert.Equal(t, PxLength(20), decls[0].Property.Value)
}

func TestStylesheet_Append(t *testing.T) {
	a := MustParseStylesheet("p { color: red }")
	b := MustParseStylesheet("div { color: blue }")
	a.Append(b)
	require.Len(t, a.Rules, 2)
	assert.Equal(t, "div", a.Rules[1].Path.String())
}
