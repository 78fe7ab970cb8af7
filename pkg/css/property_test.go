package css

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupProperty_RoundTripsNames(t *testing.T) {
	for _, p := range AllProperties() {
		got, ok := LookupProperty(p.String())
		require.True(t, ok, "lookup %s", p)
		assert.Equal(t, p, got)
	}
	_, ok := LookupProperty("no-such-property")
	assert.False(t, ok)
}

func TestRelayoutScope_Classification(t *testing.T) {
	tests := []struct {
		prop      PropertyType
		member    RelayoutScope
		nonMember RelayoutScope
	}{
		{PropTextColor, ScopeNone, ScopeNone},
		{PropBackgroundColor, ScopeNone, ScopeNone},
		{PropBorderTopColor, ScopeNone, ScopeNone},
		{PropOpacity, ScopeNone, ScopeNone},
		{PropTransform, ScopeNone, ScopeNone},
		{PropBoxShadow, ScopeNone, ScopeNone},
		{PropCursor, ScopeNone, ScopeNone},
		{PropFontSize, ScopeIfcOnly, ScopeNone},
		{PropFontFamily, ScopeIfcOnly, ScopeNone},
		{PropLineHeight, ScopeIfcOnly, ScopeNone},
		{PropLetterSpacing, ScopeIfcOnly, ScopeNone},
		{PropTextAlign, ScopeIfcOnly, ScopeNone},
		{PropWidth, ScopeSizingOnly, ScopeSizingOnly},
		{PropMaxHeight, ScopeSizingOnly, ScopeSizingOnly},
		{PropPaddingLeft, ScopeSizingOnly, ScopeSizingOnly},
		{PropBorderLeftWidth, ScopeSizingOnly, ScopeSizingOnly},
		{PropBoxSizing, ScopeSizingOnly, ScopeSizingOnly},
		{PropDisplay, ScopeFull, ScopeFull},
		{PropPosition, ScopeFull, ScopeFull},
		{PropFloat, ScopeFull, ScopeFull},
		{PropMarginTop, ScopeFull, ScopeFull},
		{PropFlexGrow, ScopeFull, ScopeFull},
		{PropJustifyContent, ScopeFull, ScopeFull},
		{PropOverflowX, ScopeFull, ScopeFull},
	}
	for _, tt := range tests {
		t.Run(tt.prop.String(), func(t *testing.T) {
			assert.Equal(t, tt.member, tt.prop.RelayoutScope(true))
			assert.Equal(t, tt.nonMember, tt.prop.RelayoutScope(false))
		})
	}
}

func TestRelayoutScope_AgreesWithCanTriggerRelayout(t *testing.T) {
	for _, p := range AllProperties() {
		assert.Equal(t, p.CanTriggerRelayout(), p.RelayoutScope(true) != ScopeNone, "property %s", p)
	}
}

func TestRelayoutScope_Ordering(t *testing.T) {
	assert.Less(t, ScopeNone, ScopeIfcOnly)
	assert.Less(t, ScopeIfcOnly, ScopeSizingOnly)
	assert.Less(t, ScopeSizingOnly, ScopeFull)
	assert.Equal(t, ScopeFull, MaxScope(ScopeIfcOnly, ScopeFull))
	assert.Equal(t, ScopeIfcOnly, MaxScope(ScopeIfcOnly, ScopeNone))
}

func TestInheritable(t *testing.T) {
	for _, p := range []PropertyType{PropFontSize, PropFontFamily, PropTextColor, PropTextAlign,
		PropLineHeight, PropWordSpacing, PropLetterSpacing, PropCursor, PropVisibility} {
		assert.True(t, p.Inheritable(), "%s should inherit", p)
	}
	for _, p := range []PropertyType{PropWidth, PropMarginTop, PropDisplay, PropBackgroundColor, PropBorderTopWidth} {
		assert.False(t, p.Inheritable(), "%s should not inherit", p)
	}
}
