package extractor

import (
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

const listing = `<html><body>
<div id="ViewBody">
  <div class="row-entry">
    <div class="column-one"><a href="/recordings/a.mp3">  18-5004 </a></div>
    <div class="column-two"><div>Smith v.
      Jones</div><div>extra</div></div>
  </div>
  <div class="row-entry">
    <div class="column-one"><a href="/recordings/b.mp3">18-5005</a></div>
    <div class="column-two"><div>Doe v. Roe</div></div>
  </div>
</div>
<span id="gv_ctl02_lblCaseNo">1D17-1</span>
<span id="gv_ctl03_lblCaseNo">1D17-2</span>
</body></html>`

func parse(t *testing.T, src string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(src))
	require.NoError(t, err)
	return doc
}

func TestExtractXPathText(t *testing.T) {
	doc := parse(t, listing)

	got, err := Extract(doc, XPath(`//div[contains(concat(' ',@class,' '),' row-entry')]//div[contains(concat(' ',@class,' '),' column-two')]/div[1]/text()`))
	require.NoError(t, err)
	assert.Equal(t, []string{"Smith v. Jones", "Doe v. Roe"}, got)

	got, err = Extract(doc, XPath(`//div[contains(concat(' ',@class,' '),' row-entry')]//a`))
	require.NoError(t, err)
	assert.Equal(t, []string{"18-5004", "18-5005"}, got)
}

func TestExtractXPathAttribute(t *testing.T) {
	doc := parse(t, listing)

	got, err := Extract(doc, XPath(`//*[@id='ViewBody']//div[contains(concat(' ',@class,' '),' row-entry')]//@href`))
	require.NoError(t, err)
	assert.Equal(t, []string{"/recordings/a.mp3", "/recordings/b.mp3"}, got)
}

func TestExtractCSS(t *testing.T) {
	doc := parse(t, listing)

	got, err := Extract(doc, CSS("div.row-entry .column-one a"))
	require.NoError(t, err)
	assert.Equal(t, []string{"18-5004", "18-5005"}, got)

	got, err = Extract(doc, CSSAttr("div.row-entry a", "href"))
	require.NoError(t, err)
	assert.Equal(t, []string{"/recordings/a.mp3", "/recordings/b.mp3"}, got)
}

func TestExtractNoMatchIsEmptyNotNil(t *testing.T) {
	doc := parse(t, listing)

	got, err := Extract(doc, XPath("//table//tr"))
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	got, err = Extract(nil, CSS("a"))
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestExtractErrors(t *testing.T) {
	doc := parse(t, listing)

	_, err := Extract(doc, XPath("//div[@class="))
	assert.Error(t, err)
	assert.True(t, carriesStack(err))

	_, err = Extract(doc, XPath("count(//a)"))
	assert.Error(t, err, "numeric expressions do not select nodes")
	assert.True(t, carriesStack(err))

	_, err = Extract(doc, Count("count(//a)"))
	assert.Error(t, err)
	assert.True(t, carriesStack(err))

	_, err = Extract(doc, Query{Kind: "regex", Expr: "x"})
	assert.Error(t, err)
	assert.True(t, carriesStack(err))
}

// carriesStack reports whether err was built by eris, which records where it
// was created.
func carriesStack(err error) bool {
	u := eris.Unpack(err)
	return len(u.ErrRoot.Stack) > 0 || len(u.ErrChain) > 0
}

func TestCountMatches(t *testing.T) {
	doc := parse(t, listing)

	n, err := CountMatches(doc, Count(`count(//*[contains(concat(' ',@id,' '),'_lblCaseNo')])`))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = CountMatches(doc, XPath(`//div[contains(concat(' ',@class,' '),' row-entry')]`))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = CountMatches(doc, CSS("a"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = CountMatches(nil, Count("count(//a)"))
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, err = CountMatches(doc, Count("string(//a)"))
	assert.Error(t, err)
}

func TestQueryString(t *testing.T) {
	assert.Equal(t, "xpath://a", XPath("//a").String())
	assert.Equal(t, "css:a@href", CSSAttr("a", "href").String())
}
