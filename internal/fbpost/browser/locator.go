package browser

import (
	"fmt"
	"strings"
)

// Strategy selects how a Locator matches an element.
type Strategy int

const (
	// ByCSS matches a plain CSS selector.
	ByCSS Strategy = iota
	// ByLabel matches an exact aria-label.
	ByLabel
	// ByLabelContains matches an aria-label substring.
	ByLabelContains
	// ByText matches an element whose text contains Value.
	ByText
)

// Locator is an engine-neutral element reference. Playwright drivers consume
// Selector and Selenium drivers consume XPath (or CSS for ByCSS).
type Locator struct {
	By    Strategy
	Value string
	// Tag restricts the match to one element name. Empty means any element,
	// except for ByText where it defaults to span.
	Tag string
}

// CSS returns a ByCSS locator.
func CSS(selector string) Locator { return Locator{By: ByCSS, Value: selector} }

// Label returns a ByLabel locator.
func Label(tag, label string) Locator { return Locator{By: ByLabel, Value: label, Tag: tag} }

// LabelContains returns a ByLabelContains locator.
func LabelContains(tag, label string) Locator {
	return Locator{By: ByLabelContains, Value: label, Tag: tag}
}

// Text returns a ByText locator.
func Text(tag, text string) Locator { return Locator{By: ByText, Value: text, Tag: tag} }

// Selector renders the locator in Playwright selector syntax.
func (l Locator) Selector() string {
	switch l.By {
	case ByLabel:
		return fmt.Sprintf("%s[aria-label=%s]", l.Tag, cssString(l.Value))
	case ByLabelContains:
		return fmt.Sprintf("%s[aria-label*=%s]", l.Tag, cssString(l.Value))
	case ByText:
		return fmt.Sprintf("%s:has-text(%s)", l.textTag(), cssString(l.Value))
	default:
		return l.Value
	}
}

// XPath renders the locator as an XPath expression. ByCSS locators have no
// XPath form and return an empty string.
func (l Locator) XPath() string {
	tag := l.Tag
	if tag == "" {
		tag = "*"
	}
	switch l.By {
	case ByLabel:
		return fmt.Sprintf("//%s[@aria-label=%s]", tag, xpathString(l.Value))
	case ByLabelContains:
		return fmt.Sprintf("//%s[contains(@aria-label, %s)]", tag, xpathString(l.Value))
	case ByText:
		return fmt.Sprintf("//%s[contains(text(), %s)]", l.textTag(), xpathString(l.Value))
	default:
		return ""
	}
}

func (l Locator) String() string { return l.Selector() }

func (l Locator) textTag() string {
	if l.Tag == "" {
		return "span"
	}
	return l.Tag
}

func cssString(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

// xpathString quotes s as an XPath 1.0 string literal, which has no escape
// syntax.
func xpathString(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	quoted := make([]string, 0, len(parts)*2)
	for i, part := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		if part != "" {
			quoted = append(quoted, "'"+part+"'")
		}
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}
