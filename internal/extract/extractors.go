// File: internal/extract/extractors.go
package extract

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/veiloak/rednote-cli/api/schemas"
)

// The selectors below are the site-coupled edge of the system. Swapping site
// markup means swapping these implementations; the orchestrator never sees a
// selector beyond the container each extractor declares.
const (
	selFeedsContainer = ".feeds-page .feeds-container"
	selNoteItem       = ".feeds-container section.note-item"
	selNoteItemCover  = "a.cover"
	selNoteContainer  = "#noteContainer"
	selNoteClose      = ".note-detail-mask .close-circle"
	selCommentsList   = ".note-container .comments-el"
)

// SearchExtractor drives the search-results page: counting result cards,
// opening one as a detail overlay and dismissing it again.
type SearchExtractor interface {
	ContainerSelector() string
	Count(ctx context.Context, pg schemas.Page) (int, error)
	OpenItem(ctx context.Context, pg schemas.Page, index int) error
	CloseItem(ctx context.Context, pg schemas.Page) error
}

// NoteExtractor reads the structured fields of a note detail view.
type NoteExtractor interface {
	ContainerSelector() string
	Extract(ctx context.Context, pg schemas.Page) (*schemas.Note, error)
}

// CommentExtractor reads visible comments of a note in document order.
type CommentExtractor interface {
	ContainerSelector() string
	Extract(ctx context.Context, pg schemas.Page) ([]schemas.Comment, error)
}

// -- Search results --

type searchResultExtractor struct{}

// NewSearchExtractor returns the extractor for the live search-results page.
func NewSearchExtractor() SearchExtractor { return searchResultExtractor{} }

func (searchResultExtractor) ContainerSelector() string { return selFeedsContainer }

func (searchResultExtractor) Count(ctx context.Context, pg schemas.Page) (int, error) {
	var count int
	expr := fmt.Sprintf(`document.querySelectorAll(%q).length`, selNoteItem)
	if err := pg.Evaluate(ctx, expr, &count); err != nil {
		return 0, fmt.Errorf("failed to count search results: %w", err)
	}
	return count, nil
}

func (searchResultExtractor) OpenItem(ctx context.Context, pg schemas.Page, index int) error {
	// nth-of-type is 1-based; result cards are sibling <section> elements.
	sel := fmt.Sprintf("%s:nth-of-type(%d) %s", selNoteItem, index+1, selNoteItemCover)
	return pg.Click(ctx, sel)
}

func (searchResultExtractor) CloseItem(ctx context.Context, pg schemas.Page) error {
	return pg.Click(ctx, selNoteClose)
}

// -- Note detail --

type noteDetailExtractor struct{}

// NewNoteExtractor returns the extractor for the note detail view.
func NewNoteExtractor() NoteExtractor { return noteDetailExtractor{} }

func (noteDetailExtractor) ContainerSelector() string { return selNoteContainer }

func (noteDetailExtractor) Extract(ctx context.Context, pg schemas.Page) (*schemas.Note, error) {
	html, err := pg.OuterHTML(ctx, selNoteContainer)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse note detail: %w", err)
	}

	note := &schemas.Note{
		Title:    cleanText(doc.Find(".note-content .title").First().Text()),
		Content:  cleanText(doc.Find(".note-content .desc").First().Text()),
		Author:   cleanText(doc.Find(".author-wrapper .username").First().Text()),
		Likes:    parseCount(doc.Find(".engage-bar .like-wrapper .count").First().Text()),
		Collects: parseCount(doc.Find(".engage-bar .collect-wrapper .count").First().Text()),
		Comments: parseCount(doc.Find(".engage-bar .chat-wrapper .count").First().Text()),
	}

	seen := make(map[string]struct{})
	doc.Find(".note-content .tag").Each(func(_ int, s *goquery.Selection) {
		tag := strings.TrimPrefix(cleanText(s.Text()), "#")
		if tag == "" {
			return
		}
		if _, dup := seen[tag]; dup {
			return
		}
		seen[tag] = struct{}{}
		note.Tags = append(note.Tags, tag)
	})

	if loc, err := pg.Location(ctx); err == nil {
		note.URL = loc
	}

	return note, nil
}

// -- Comment list --

type commentListExtractor struct{}

// NewCommentExtractor returns the extractor for the comment thread.
func NewCommentExtractor() CommentExtractor { return commentListExtractor{} }

func (commentListExtractor) ContainerSelector() string { return selCommentsList }

func (commentListExtractor) Extract(ctx context.Context, pg schemas.Page) ([]schemas.Comment, error) {
	html, err := pg.OuterHTML(ctx, selCommentsList)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse comment list: %w", err)
	}

	var comments []schemas.Comment
	doc.Find(".comment-item").Each(func(_ int, s *goquery.Selection) {
		comments = append(comments, schemas.Comment{
			Author:  cleanText(s.Find(".author .name").First().Text()),
			Content: cleanText(s.Find(".content .note-text").First().Text()),
			Likes:   parseCount(s.Find(".like .count").First().Text()),
			Time:    cleanText(s.Find(".info .date").First().Text()),
		})
	})

	return comments, nil
}

// -- Field helpers --

func cleanText(s string) string {
	return strings.TrimSpace(s)
}

// parseCount turns the site's engagement counters into integers. The site
// renders "1.2万" above ten thousand and plain digits below; placeholder
// labels ("点赞", "收藏") parse to zero.
func parseCount(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if wan := strings.TrimSuffix(s, "万"); wan != s {
		f, err := strconv.ParseFloat(wan, 64)
		if err != nil {
			return 0
		}
		return int(f * 10000)
	}
	s = strings.ReplaceAll(s, ",", "")
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
