// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"

	"github.com/olegiv/agrisite/internal/ai"
	"github.com/olegiv/agrisite/internal/model"
	"github.com/olegiv/agrisite/internal/render"
	"github.com/olegiv/agrisite/internal/util"
)

// ErrEmptyTopic is returned when no topic was given for a blog draft.
var ErrEmptyTopic = errors.New("topic is required")

// blogLanguages are the languages blog drafts can be written in. The first
// entry is the fallback.
var blogLanguages = []language.Tag{language.English, language.Hindi}

var blogLanguageNames = map[language.Tag]string{
	language.English: "English",
	language.Hindi:   "Hindi",
}

var languageMatcher = language.NewMatcher(blogLanguages)

// BlogInput is what an editor provides for an AI draft.
type BlogInput struct {
	Topic    string `json:"topic"`
	Keywords string `json:"keywords"`
	Audience string `json:"audience"`
	Language string `json:"language"` // BCP 47 tag or Accept-Language value
	Author   string `json:"-"`
}

// generatedPost is the JSON shape requested from the model.
type generatedPost struct {
	Title           string `json:"title"`
	Excerpt         string `json:"excerpt"`
	Content         string `json:"content"`
	Category        string `json:"category"`
	MetaTitle       string `json:"metaTitle"`
	MetaDescription string `json:"metaDescription"`
	Keywords        string `json:"keywords"`
	Slug            string `json:"slug"`
}

// blogSystemPrompt returns the system prompt for drafting in langName.
func blogSystemPrompt(langName string) string {
	return fmt.Sprintf(`You are an expert agricultural writer and SEO specialist for an organic
farming consultancy. You write practical articles for Indian farmers in %s.

Return a JSON object with exactly these fields:
{
  "title": "An engaging title",
  "excerpt": "One or two sentence summary",
  "content": "Full article in Markdown with ## and ### headings, lists and short paragraphs. 400-700 words.",
  "category": "One of: Soil Health, Organic Inputs, Pest Management, Water, Crops, Farm Business",
  "metaTitle": "SEO title under 60 characters",
  "metaDescription": "Meta description under 160 characters",
  "keywords": "5-8 comma separated keywords",
  "slug": "url-friendly-slug-in-english"
}

Rules:
- Write title, excerpt, content and meta fields in %s
- The slug must be in English (lowercase, hyphens, no special characters)
- Do not use a top level # heading
- Recommend organic methods only`, langName, langName)
}

// blogUserPrompt returns the user prompt for in.
func blogUserPrompt(in BlogInput) string {
	var sb strings.Builder
	sb.WriteString("Write an article about: " + in.Topic + "\n")
	if in.Audience != "" {
		sb.WriteString("Target audience: " + in.Audience + "\n")
	}
	if in.Keywords != "" {
		sb.WriteString("Keywords to include: " + in.Keywords + "\n")
	}
	return sb.String()
}

// MatchLanguage picks the supported blog language closest to pref, which
// may be a single tag or an Accept-Language header value.
func MatchLanguage(pref string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(pref)
	if err != nil || len(tags) == 0 {
		return blogLanguages[0]
	}
	_, idx, conf := languageMatcher.Match(tags...)
	if conf == language.No {
		return blogLanguages[0]
	}
	return blogLanguages[idx]
}

// GenerateBlogPost asks the model for an article and stores it as a draft.
func (a *Assistant) GenerateBlogPost(ctx context.Context, in BlogInput) (model.BlogPost, error) {
	in.Topic = strings.TrimSpace(in.Topic)
	if in.Topic == "" {
		return model.BlogPost{}, ErrEmptyTopic
	}

	lang := MatchLanguage(in.Language)
	var gen generatedPost
	err := ai.DecodeJSON(ctx, a.provider, ai.Request{
		System: blogSystemPrompt(blogLanguageNames[lang]),
		Prompt: blogUserPrompt(in),
	}, &gen)
	if err != nil {
		a.logger.Warn("blog post ai generation failed", "topic", in.Topic, "provider", a.provider.ID(), "error", err)
		return model.BlogPost{}, fmt.Errorf("generating blog post: %w", err)
	}

	post, err := draftFromGenerated(gen, in)
	if err != nil {
		return model.BlogPost{}, err
	}
	post.Slug = util.UniqueSlug(post.Slug, a.slugTaken)
	return a.store.CreatePost(ctx, post)
}

// slugTaken checks every post, drafts and trash included.
func (a *Assistant) slugTaken(slug string) bool {
	for _, p := range a.store.Posts() {
		if p.Slug == slug {
			return true
		}
	}
	return false
}

// draftFromGenerated turns the model output into a sanitized post.
func draftFromGenerated(gen generatedPost, in BlogInput) (model.BlogPost, error) {
	title := render.PlainText(gen.Title)
	if title == "" {
		title = in.Topic
	}
	if strings.TrimSpace(gen.Content) == "" {
		return model.BlogPost{}, fmt.Errorf("generating blog post: %w", ai.ErrEmptyResponse)
	}

	var content string
	if render.LooksLikeHTML(gen.Content) {
		content = render.SanitizeHTML(gen.Content)
	} else {
		var err error
		if content, err = render.Markdown(gen.Content); err != nil {
			return model.BlogPost{}, err
		}
	}

	slug := util.Slugify(gen.Slug)
	if slug == "" {
		slug = util.Slugify(title)
	}

	return model.BlogPost{
		Title:    title,
		Slug:     slug,
		Excerpt:  render.PlainText(gen.Excerpt),
		Content:  content,
		Author:   in.Author,
		Category: render.PlainText(gen.Category),
		SEO: model.BlogSEO{
			MetaTitle:       render.PlainText(gen.MetaTitle),
			MetaDescription: render.PlainText(gen.MetaDescription),
			Keywords:        render.PlainText(gen.Keywords),
		},
	}, nil
}
