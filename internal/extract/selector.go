package extract

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xpath"
	"golang.org/x/net/html"
)

// cssPrefix switches an HTML selector from XPath to CSS.
const cssPrefix = "css:"

// htmlSelector queries a parsed HTML document.
type htmlSelector interface {
	// links yields attribute and text matches as-is and element matches as their href, then src.
	links(doc *html.Node) []string
	// first returns the string value of the first match.
	first(doc *html.Node) (string, bool)
}

func compileHTMLSelector(raw string) (htmlSelector, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("%w: empty selector", ErrInvalidSelector)
	}

	if css, ok := strings.CutPrefix(raw, cssPrefix); ok {
		css = strings.TrimSpace(css)
		if _, err := cascadia.Compile(css); err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrInvalidSelector, raw, err)
		}
		return cssSelector(css), nil
	}

	expr, err := xpath.Compile(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidSelector, raw, err)
	}
	return xpathSelector{expr: expr}, nil
}

func parseHTML(body []byte) (*html.Node, error) {
	return htmlquery.Parse(bytes.NewReader(body))
}

type xpathSelector struct {
	expr *xpath.Expr
}

func (s xpathSelector) links(doc *html.Node) []string {
	var out []string
	s.each(doc, func(nav *htmlquery.NodeNavigator) bool {
		if v := linkValue(nav); v != "" {
			out = append(out, v)
		}
		return true
	}, func(scalar string) {
		out = append(out, scalar)
	})
	return out
}

func (s xpathSelector) first(doc *html.Node) (string, bool) {
	var (
		value string
		found bool
	)
	s.each(doc, func(nav *htmlquery.NodeNavigator) bool {
		value, found = nav.Value(), true
		return false
	}, func(scalar string) {
		value, found = scalar, true
	})
	return value, found
}

// each evaluates the expression and feeds node matches to onNode until it
// returns false. Scalar results go to onScalar.
func (s xpathSelector) each(doc *html.Node, onNode func(*htmlquery.NodeNavigator) bool, onScalar func(string)) {
	switch v := s.expr.Evaluate(htmlquery.CreateXPathNavigator(doc)).(type) {
	case *xpath.NodeIterator:
		for v.MoveNext() {
			nav, ok := v.Current().(*htmlquery.NodeNavigator)
			if !ok {
				continue
			}
			if !onNode(nav) {
				return
			}
		}
	case string:
		onScalar(v)
	case float64:
		onScalar(strconv.FormatFloat(v, 'f', -1, 64))
	case bool:
		onScalar(strconv.FormatBool(v))
	}
}

func linkValue(nav *htmlquery.NodeNavigator) string {
	if nav.NodeType() != xpath.ElementNode {
		return strings.TrimSpace(nav.Value())
	}

	node := nav.Current()
	if href := htmlquery.SelectAttr(node, "href"); href != "" {
		return strings.TrimSpace(href)
	}
	return strings.TrimSpace(htmlquery.SelectAttr(node, "src"))
}

type cssSelector string

func (s cssSelector) links(doc *html.Node) []string {
	var out []string
	goquery.NewDocumentFromNode(doc).Find(string(s)).Each(func(_ int, sel *goquery.Selection) {
		v, ok := sel.Attr("href")
		if !ok || strings.TrimSpace(v) == "" {
			v, _ = sel.Attr("src")
		}
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	})
	return out
}

func (s cssSelector) first(doc *html.Node) (string, bool) {
	sel := goquery.NewDocumentFromNode(doc).Find(string(s)).First()
	if sel.Length() == 0 {
		return "", false
	}
	return sel.Text(), true
}
