package parser

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestParser() *FeedParser {
	return NewFeedParser(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestFeedParser_Parse_RSS(t *testing.T) {
	xmlData := `<?xml version="1.0" encoding="UTF-8"?>
	<rss version="2.0">
	<channel>
	<title>Test Feed</title>
	<link>https://example.com</link>
	<description>Test Description</description>
	<item>
	<title>Item 1</title>
	<link>https://example.com/item1</link>
	<pubDate>Mon, 02 Jan 2006 15:04:05 GMT</pubDate>
	</item>
	<item>
	<title>Item 2</title>
	<link>https://example.com/item2</link>
	<pubDate>Tue, 03 Jan 2006 12:00:00 +0000</pubDate>
	</item>
	</channel>
	</rss>`

	feed, err := newTestParser().Parse(context.Background(), strings.NewReader(xmlData))

	require.NoError(t, err)
	require.NotNil(t, feed)
	assert.Equal(t, "Test Feed", feed.Title)
	assert.Equal(t, "https://example.com", feed.Link)
	require.Len(t, feed.Items, 2)

	assert.Equal(t, "Item 1", feed.Items[0].Title)
	assert.Equal(t, "https://example.com/item1", feed.Items[0].Link)
	require.NotNil(t, feed.Items[0].Published)
	assert.WithinDuration(t, time.Date(2006, 1, 2, 15, 4, 5, 0, time.UTC), *feed.Items[0].Published, time.Second)

	assert.Equal(t, "Item 2", feed.Items[1].Title)
	require.NotNil(t, feed.Items[1].Published)
	assert.WithinDuration(t, time.Date(2006, 1, 3, 12, 0, 0, 0, time.UTC), *feed.Items[1].Published, time.Second)
}

func TestFeedParser_Parse_Atom(t *testing.T) {
	xmlData := `<?xml version="1.0" encoding="utf-8"?>
	<feed xmlns="http://www.w3.org/2005/Atom">
	<title>Atom Feed</title>
	<entry>
	<title>Entry</title>
	<link href="https://example.com/entry"/>
	<id>urn:uuid:1</id>
	<updated>2024-01-02T03:04:05Z</updated>
	</entry>
	</feed>`

	feed, err := newTestParser().Parse(context.Background(), strings.NewReader(xmlData))

	require.NoError(t, err)
	assert.Equal(t, "Atom Feed", feed.Title)
	require.Len(t, feed.Items, 1)
	assert.Equal(t, "Entry", feed.Items[0].Title)
	assert.Equal(t, "https://example.com/entry", feed.Items[0].Link)
	require.NotNil(t, feed.Items[0].Published)
	assert.True(t, feed.Items[0].Published.Equal(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)))
}

func TestFeedParser_Parse_KeepsUndatedItems(t *testing.T) {
	xmlData := `<rss version="2.0"><channel><title>T</title>
	<item><title>No date</title><link>https://example.com/a</link></item>
	<item><title>Bad date</title><link>https://example.com/b</link><pubDate>not a date</pubDate></item>
	</channel></rss>`

	feed, err := newTestParser().Parse(context.Background(), strings.NewReader(xmlData))

	require.NoError(t, err)
	require.Len(t, feed.Items, 2)
	assert.Nil(t, feed.Items[0].Published)
	assert.Empty(t, feed.Items[0].RawDate)
	assert.Nil(t, feed.Items[1].Published)
	assert.Equal(t, "not a date", feed.Items[1].RawDate)
}

func TestFeedParser_Parse_NonStandardDate(t *testing.T) {
	xmlData := `<rss version="2.0"><channel><title>T</title>
	<item><title>A</title><link>https://example.com/a</link><pubDate>2024-01-05 10:00:00</pubDate></item>
	</channel></rss>`

	feed, err := newTestParser().Parse(context.Background(), strings.NewReader(xmlData))

	require.NoError(t, err)
	require.Len(t, feed.Items, 1)
	require.NotNil(t, feed.Items[0].Published)
	assert.True(t, feed.Items[0].Published.Equal(time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)))
}

func TestFeedParser_Parse_Invalid(t *testing.T) {
	feed, err := newTestParser().Parse(context.Background(), strings.NewReader("this is not a feed"))

	assert.Error(t, err)
	assert.Nil(t, feed)
	assert.Contains(t, err.Error(), "failed to decode feed")
}

func TestFeedParser_Parse_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	feed, err := newTestParser().Parse(ctx, strings.NewReader(`<rss><channel></channel></rss>`))

	assert.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Nil(t, feed)
}

func TestFeedParser_Parse_EmptyFeed(t *testing.T) {
	xmlData := `<rss version="2.0"><channel><title>Empty Feed</title><link>https://example.com</link></channel></rss>`

	feed, err := newTestParser().Parse(context.Background(), strings.NewReader(xmlData))

	require.NoError(t, err)
	assert.Equal(t, "Empty Feed", feed.Title)
	assert.Empty(t, feed.Items)
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("Fri, 05 Jan 2024 10:00:00 +0100")
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC)))

	_, err = ParseDate("")
	assert.Error(t, err)
}
