package model

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Classification is the single source of truth for a clip's kind. Order:
// an image wins, then meaningful HTML (link when an anchor href or
// URL-shaped text is derivable), then URL-shaped plain text, then text.

var urlPattern = regexp.MustCompile(`^https?://\S+$`)

// IsHTTPURL reports whether a value is a strict http(s) URL.
func IsHTTPURL(s string) bool {
	return urlPattern.MatchString(strings.TrimSpace(s))
}

// InferKind classifies clipboard content into a clip kind.
func InferKind(content, richHTML string, hasImage bool) string {
	if hasImage {
		return KindImage
	}
	if richHTML != "" && MeaningfulHTML(richHTML, content) {
		if DeriveSourceURL(content, richHTML) != "" {
			return KindLink
		}
		return KindHTML
	}
	if IsHTTPURL(content) {
		return KindLink
	}
	return KindText
}

// DeriveSourceURL extracts the clip's URL: the plain text itself when it
// is URL-shaped, otherwise the first genuine anchor href in the HTML.
func DeriveSourceURL(content, richHTML string) string {
	if IsHTTPURL(content) {
		return strings.TrimSpace(content)
	}
	if richHTML != "" {
		if href := ExtractAnchorHref(richHTML); href != "" {
			return href
		}
	}
	return ""
}

// ExtractAnchorHref returns the first http(s) href carried by a real
// anchor tag. Other elements with href-like attributes (base, link, area
// or arbitrary markup) must not be mistaken for links.
func ExtractAnchorHref(richHTML string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(richHTML))
	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			return ""
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		token := tokenizer.Token()
		if token.DataAtom != atom.A {
			continue
		}
		for _, attr := range token.Attr {
			if attr.Key == "href" && IsHTTPURL(attr.Val) {
				return strings.TrimSpace(attr.Val)
			}
		}
	}
}

var structuralTags = map[atom.Atom]bool{
	atom.A: true, atom.Table: true, atom.Ul: true, atom.Ol: true,
	atom.Li: true, atom.Img: true, atom.H1: true, atom.H2: true,
	atom.H3: true, atom.Pre: true, atom.Code: true, atom.Blockquote: true,
	atom.Strong: true, atom.Em: true, atom.B: true, atom.I: true,
}

// MeaningfulHTML reports whether the HTML flavor carries information the
// plain text does not: structural markup, or stripped text that differs
// from the plain clipboard value.
func MeaningfulHTML(richHTML, plainText string) bool {
	tokenizer := html.NewTokenizer(strings.NewReader(richHTML))
	var text strings.Builder
	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			break
		}
		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			if structuralTags[tokenizer.Token().DataAtom] {
				return true
			}
		case html.TextToken:
			text.Write(tokenizer.Text())
		}
	}
	return normalizeSpace(text.String()) != normalizeSpace(plainText)
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

const summaryLimit = 120

// DeriveSummary builds the default short label: explicit summary wins,
// links use the URL, images get a literal label, text uses a prefix of
// the content.
func DeriveSummary(explicit, kind, content, sourceURL string) string {
	if s := strings.TrimSpace(explicit); s != "" {
		return s
	}
	switch kind {
	case KindImage:
		return "Image"
	case KindLink:
		if sourceURL != "" {
			return sourceURL
		}
	}
	s := strings.TrimSpace(content)
	runes := []rune(s)
	if len(runes) > summaryLimit {
		return string(runes[:summaryLimit])
	}
	return s
}
