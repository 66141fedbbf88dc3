package fetcher

import (
	"bytes"
	"mime"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/net/html"
)

// linkAttrs are rewritten absolute against the page URL.
var linkAttrs = map[string]bool{"href": true, "src": true, "action": true}

// newResult builds a Result, parsing the body unless it is JSON.
func newResult(status int, finalURL, contentType string, body []byte) (*Result, error) {
	res := &Result{
		StatusCode:  status,
		URL:         finalURL,
		ContentType: contentType,
		Body:        body,
	}
	if isJSON(contentType) {
		return res, nil
	}

	doc, err := html.Parse(strings.NewReader(sanitize(body)))
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: parse %s", finalURL)
	}
	if base, err := url.Parse(finalURL); err == nil && (base.Scheme == "http" || base.Scheme == "https") {
		rewriteLinks(doc, base)
	}
	res.Doc = doc
	return res, nil
}

func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}

// sanitize drops NUL bytes and invalid UTF-8, which several court sites emit
// and which break downstream parsers.
func sanitize(body []byte) string {
	body = bytes.ReplaceAll(body, []byte{0}, nil)
	return strings.ToValidUTF8(string(body), "")
}

func rewriteLinks(n *html.Node, base *url.URL) {
	if n.Type == html.ElementNode {
		for i, a := range n.Attr {
			if !linkAttrs[a.Key] || a.Namespace != "" {
				continue
			}
			v := strings.TrimSpace(a.Val)
			if v == "" {
				continue
			}
			ref, err := url.Parse(v)
			if err != nil {
				continue
			}
			n.Attr[i].Val = base.ResolveReference(ref).String()
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		rewriteLinks(c, base)
	}
}
