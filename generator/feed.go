package generator

import (
	"bytes"
	"context"

	"github.com/gorilla/feeds"
	"github.com/klingtnet/quire/generator/model"
	"github.com/klingtnet/quire/generator/renderer"
	"github.com/klingtnet/quire/internal/distribute"
)

// buildFeed collects the newest posts into an RSS feed.
// The feed is dated by its newest post, so unchanged content yields an identical feed.
func (g *Generator) buildFeed(ctx context.Context, posts []*model.Document) (*feeds.Feed, error) {
	if g.config.Feed.Limit > 0 && len(posts) > g.config.Feed.Limit {
		posts = posts[:g.config.Feed.Limit]
	}

	feed := &feeds.Feed{
		Title:       g.config.Title,
		Description: g.config.Description,
		Link:        &feeds.Link{Href: renderer.AbsLink(g.config.BaseURL, "/")},
		Author:      &feeds.Author{Name: g.config.Author},
		Items:       make([]*feeds.Item, len(posts)),
	}
	if len(posts) > 0 {
		feed.Created = posts[0].Date()
	}

	positions := make([]int, len(posts))
	for i := range positions {
		positions[i] = i
	}
	err := distribute.Each(ctx, positions, func(ctx context.Context, i int) error {
		post := posts[i]
		content, err := g.renderer.Content(post)
		if err != nil {
			return err
		}

		link := renderer.AbsLink(g.config.BaseURL, post.URL())
		feed.Items[i] = &feeds.Item{
			Id:          link,
			Title:       post.Title(),
			Description: post.Description(),
			Author:      &feeds.Author{Name: g.config.Author},
			Link:        &feeds.Link{Href: link},
			Created:     post.Date(),
			Content:     string(content),
		}

		return nil
	}, g.concurrency)
	if err != nil {
		return nil, err
	}

	return feed, nil
}

func (g *Generator) renderFeed(ctx context.Context, b *build) error {
	feed, err := g.buildFeed(ctx, b.index.Posts)
	if err != nil {
		return err
	}

	buf := bytes.NewBuffer(nil)
	err = feed.WriteRss(buf)
	if err != nil {
		return err
	}
	b.put(g.feedOutput(), buf.Bytes())

	return nil
}
