package text

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FontFiles names the font files of one family by style. Empty paths are
// skipped.
type FontFiles struct {
	Family     string
	Regular    string
	Bold       string
	Italic     string
	BoldItalic string
}

// DirFontFiles looks for Family-Regular.ttf, Family-Bold.ttf,
// Family-Italic.ttf and Family-BoldItalic.ttf (or .otf) in dir.
func DirFontFiles(dir, family string) FontFiles {
	find := func(style string) string {
		for _, ext := range []string{".ttf", ".otf"} {
			p := filepath.Join(dir, family+"-"+style+ext)
			if _, err := os.Stat(p); err == nil {
				return p
			}
		}
		return ""
	}
	return FontFiles{
		Family:     family,
		Regular:    find("Regular"),
		Bold:       find("Bold"),
		Italic:     find("Italic"),
		BoldItalic: find("BoldItalic"),
	}
}

// Path returns the file for a style, falling back to the regular face.
func (fc FontFiles) Path(bold, italic bool) string {
	switch {
	case bold && italic && fc.BoldItalic != "":
		return fc.BoldItalic
	case bold && fc.Bold != "":
		return fc.Bold
	case italic && fc.Italic != "":
		return fc.Italic
	}
	return fc.Regular
}

// RegisterFiles parses every configured file and registers it on p under
// fc.Family. It returns the joined errors of the files that failed; the
// others stay registered.
func (p *GoFontProvider) RegisterFiles(fc FontFiles) error {
	var errs []error
	for _, style := range []struct {
		path         string
		bold, italic bool
	}{
		{fc.Regular, false, false},
		{fc.Bold, true, false},
		{fc.Italic, false, true},
		{fc.BoldItalic, true, true},
	} {
		if style.path == "" {
			continue
		}
		data, err := os.ReadFile(style.path)
		if err != nil {
			errs = append(errs, fmt.Errorf("read font: %w", err))
			continue
		}
		if err := p.Register(fc.Family, style.bold, style.italic, data); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
