package components

import (
	"strconv"

	"github.com/matthewriabinin/blog/pkg/vdom"
	"github.com/matthewriabinin/blog/pkg/vex/builder"
)

// FeedKeyLength is how much of a post's source keys it in the feed
const FeedKeyLength = 40

// FeedItem is one rendered markdown body in the feed
type FeedItem struct {
	Source string
	Body   *vdom.VNode
}

// FeedKey returns the first FeedKeyLength characters of source
func FeedKey(source string) string {
	runes := []rune(source)
	if len(runes) > FeedKeyLength {
		runes = runes[:FeedKeyLength]
	}
	return string(runes)
}

// Firehose renders the "From the firehose" column. Items keep their order
// and are keyed by FeedKey so re-renders reconcile by post.
func Firehose(items []FeedItem) *vdom.VNode {
	seen := make(map[string]int, len(items))
	bodies := make([]*vdom.VNode, 0, len(items))
	for _, it := range items {
		if it.Body == nil {
			continue
		}
		key := FeedKey(it.Source)
		if n := seen[key]; n > 0 {
			// Two posts opening with the same text still need distinct keys.
			key += "#" + strconv.Itoa(n)
		}
		seen[FeedKey(it.Source)]++
		bodies = append(bodies, it.Body.WithKey(key))
	}

	return builder.Section().Class("firehose").Children(
		builder.H6().Class("firehose-title").Text("From the firehose").Build(),
		builder.Hr().Build(),
		builder.Div().Class("firehose-posts").Children(bodies...).Build(),
	).Build()
}
