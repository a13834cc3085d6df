package lib

import (
	"context"
	"strings"

	"github.com/antchfx/htmlquery"
	"github.com/carlmjohnson/requests"
	"golang.org/x/net/html"
)

// PageMeta is what article enrichment pulls out of a fetched page.
type PageMeta struct {
	Title    string
	ImageURL string
}

func (svc *library) fetchPageMeta(ctx context.Context, url string) (*PageMeta, error) {
	var body string
	if err := requests.URL(url).
		Transport(svc.transport).
		ToString(&body).
		Fetch(ctx); err != nil {
		return nil, err
	}

	doc, err := htmlquery.Parse(strings.NewReader(body))
	if err != nil {
		return nil, err
	}

	return &PageMeta{
		Title:    selectText(doc, "/html/head/title"),
		ImageURL: extractImageURL(doc),
	}, nil
}

func extractImageURL(n *html.Node) string {
	if url := metaContent(n, "//meta[@property = 'og:image']"); url != "" {
		return url
	}
	return metaContent(n, "//meta[@name = 'twitter:image']")
}

func metaContent(n *html.Node, xpath string) string {
	elem := htmlquery.FindOne(n, xpath)
	if elem == nil {
		return ""
	}
	for _, attr := range elem.Attr {
		if attr.Key == "content" {
			return attr.Val
		}
	}
	return ""
}

func selectText(n *html.Node, xpath string) string {
	node := htmlquery.FindOne(n, xpath)
	if node == nil {
		return ""
	}
	var b strings.Builder
	collectText(node, &b)
	return strings.TrimSpace(strings.Join(strings.Fields(b.String()), " "))
}

func collectText(n *html.Node, b *strings.Builder) {
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
}
