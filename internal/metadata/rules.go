package metadata

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Rules are evaluated against a parsed page.
type (
	PageRule  = Rule[*goquery.Document]
	PageChain = Chain[*goquery.Document]
)

var (
	titleChain = PageChain{
		MetaProperty("og:title"),
		DocumentTitle(),
		MetaName("title"),
	}

	imageChain = PageChain{
		MetaProperty("og:image"),
		MetaNameOrProperty("twitter:image"),
	}

	publishedDateChain = PageChain{
		MetaProperty("article:published_time"),
		MetaProperty("og:published_time"),
		MetaName("publishedDate"),
		MetaName("date"),
	}
)

// MetaProperty matches <meta property="name" content="...">.
func MetaProperty(name string) PageRule {
	return metaContent(fmt.Sprintf(`meta[property=%q]`, name))
}

// MetaName matches <meta name="name" content="...">.
func MetaName(name string) PageRule {
	return metaContent(fmt.Sprintf(`meta[name=%q]`, name))
}

// MetaNameOrProperty matches either attribute, in document order. Sites
// disagree on which one twitter:* tags use.
func MetaNameOrProperty(name string) PageRule {
	return metaContent(fmt.Sprintf(`meta[name=%q], meta[property=%q]`, name, name))
}

// DocumentTitle matches the text of the first non-blank <title> element,
// with runs of whitespace collapsed.
func DocumentTitle() PageRule {
	return func(doc *goquery.Document) string {
		var found string
		doc.Find("title").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			found = strings.Join(strings.Fields(sel.Text()), " ")
			return found == ""
		})
		return found
	}
}

func metaContent(selector string) PageRule {
	return func(doc *goquery.Document) string {
		var found string
		doc.Find(selector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			found = strings.TrimSpace(sel.AttrOr("content", ""))
			return found == ""
		})
		return found
	}
}
