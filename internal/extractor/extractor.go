package extractor

import (
	"fmt"
	"math"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xpath"
	"github.com/rotisserie/eris"
	"golang.org/x/net/html"

	"courtscrape/internal/textutil"
)

// Kind selects how a query expression is evaluated.
type Kind string

const (
	KindXPath Kind = "xpath" // node-set query, one value per match
	KindCSS   Kind = "css"   // CSS selector, one value per match
	KindCount Kind = "count" // numeric query sizing a synthetic field
)

// Query is one field's declarative selector.
type Query struct {
	Kind Kind
	Expr string
	// Attr, for CSS queries, reads an attribute instead of the text.
	Attr string
}

// XPath declares a node-set XPath query.
func XPath(expr string) Query { return Query{Kind: KindXPath, Expr: expr} }

// CSS declares a CSS query reading each match's text.
func CSS(selector string) Query { return Query{Kind: KindCSS, Expr: selector} }

// CSSAttr declares a CSS query reading attr from each match.
func CSSAttr(selector, attr string) Query {
	return Query{Kind: KindCSS, Expr: selector, Attr: attr}
}

// Count declares a count-style query such as "count(//tr)".
func Count(expr string) Query { return Query{Kind: KindCount, Expr: expr} }

func (q Query) String() string {
	if q.Attr != "" {
		return fmt.Sprintf("%s:%s@%s", q.Kind, q.Expr, q.Attr)
	}
	return fmt.Sprintf("%s:%s", q.Kind, q.Expr)
}

// Extract evaluates q against doc and returns the matched values in
// document order. It never returns nil: no match, or a nil document,
// gives an empty slice.
func Extract(doc *html.Node, q Query) ([]string, error) {
	values := []string{}
	if doc == nil {
		return values, nil
	}

	switch q.Kind {
	case KindXPath:
		return extractByXPath(doc, q.Expr, values)
	case KindCSS:
		return extractByCSS(doc, q, values), nil
	case KindCount:
		return nil, eris.Errorf("extractor: count query %q has no values, use CountMatches", q.Expr)
	default:
		return nil, eris.Errorf("extractor: unsupported query kind: %q", q.Kind)
	}
}

// CountMatches evaluates q as a number of rows. Numeric XPath results
// (count(...)) are used directly; node-set and CSS queries count their matches.
func CountMatches(doc *html.Node, q Query) (int, error) {
	if doc == nil {
		return 0, nil
	}

	switch q.Kind {
	case KindCount, KindXPath:
		expr, err := xpath.Compile(q.Expr)
		if err != nil {
			return 0, eris.Wrapf(err, "extractor: compile %q", q.Expr)
		}
		switch v := expr.Evaluate(htmlquery.CreateXPathNavigator(doc)).(type) {
		case float64:
			if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
				return 0, eris.Errorf("extractor: %q evaluated to %v", q.Expr, v)
			}
			return int(v), nil
		case *xpath.NodeIterator:
			n := 0
			for v.MoveNext() {
				n++
			}
			return n, nil
		default:
			return 0, eris.Errorf("extractor: %q evaluated to %T, want a number or node-set", q.Expr, v)
		}
	case KindCSS:
		return goquery.NewDocumentFromNode(doc).Find(q.Expr).Length(), nil
	default:
		return 0, eris.Errorf("extractor: unsupported query kind: %q", q.Kind)
	}
}

// extractByXPath collects the string value of each selected node: inner
// text for elements, the value for attributes, the data for text nodes.
func extractByXPath(doc *html.Node, expr string, values []string) ([]string, error) {
	compiled, err := xpath.Compile(expr)
	if err != nil {
		return nil, eris.Wrapf(err, "extractor: compile %q", expr)
	}

	iter, ok := compiled.Evaluate(htmlquery.CreateXPathNavigator(doc)).(*xpath.NodeIterator)
	if !ok {
		return nil, eris.Errorf("extractor: %q does not select nodes", expr)
	}
	for iter.MoveNext() {
		nav := iter.Current()
		if nav.NodeType() == xpath.AttributeNode {
			values = append(values, strings.TrimSpace(nav.Value()))
			continue
		}
		values = append(values, textutil.CollapseSpace(nav.Value()))
	}
	return values, nil
}

func extractByCSS(doc *html.Node, q Query, values []string) []string {
	goquery.NewDocumentFromNode(doc).Find(q.Expr).Each(func(_ int, s *goquery.Selection) {
		if q.Attr != "" {
			values = append(values, strings.TrimSpace(s.AttrOr(q.Attr, "")))
			return
		}
		values = append(values, textutil.CollapseSpace(s.Text()))
	})
	return values
}
