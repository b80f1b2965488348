package handlers

import (
	"fmt"
	"html/template"
	"time"

	"github.com/SayaAndy/photobox/internal/photobox"
	"github.com/SayaAndy/photobox/internal/photoboxmd"
	"github.com/SayaAndy/photobox/internal/router"
	"github.com/gofiber/fiber/v2"
)

func init() {
	router.Routes = append(router.Routes, &BlogPageHandler{})
}

type BlogPageHandler struct {
	router.BasicHandler
}

func (r *BlogPageHandler) Filter() (method string, path string) {
	return "GET", "/blog/:title"
}

func (r *BlogPageHandler) IsTemplated() bool {
	return true
}

func (r *BlogPageHandler) TemplatesToInject() []string {
	return []string{"pages/blog-page.html"}
}

func (r *BlogPageHandler) ToCache() router.CacheSetting {
	return router.ByUrlOnly
}

func (r *BlogPageHandler) CacheDuration() time.Duration {
	return 15 * time.Minute
}

func (r *BlogPageHandler) ToBind() bool {
	return true
}

func (r *BlogPageHandler) RenderBody(c *fiber.Ctx, supplements *router.Supplements, params map[string]string, templateMap fiber.Map) (statusCode int, err error) {
	title := params["title"]
	if !photobox.ValidIdentifier(title) {
		return fiber.StatusNotFound, fmt.Errorf("failed to find '%s' post", title)
	}
	link := router.BlogPrefix + title

	metadata, markdown, err := supplements.Pages.ReadFrontmatter(c.UserContext(), link+".md")
	if err != nil {
		return fiber.StatusNotFound, fmt.Errorf("failed to find '%s' post: %w", title, err)
	}

	parsedMarkdown, tags, err := photoboxmd.Render(supplements.MarkdownRenderer, markdown, metadata.ID)
	if err != nil {
		return fiber.StatusInternalServerError, fmt.Errorf("failed to render '%s' post: %w", title, err)
	}

	templateMap["Title"] = metadata.Title
	templateMap["ShortDescription"] = metadata.ShortDescription
	templateMap["Tags"] = metadata.Tags
	templateMap["ParsedMarkdown"] = template.HTML(parsedMarkdown)
	if !metadata.PublishedTime.IsZero() {
		templateMap["PublishedDate"] = metadata.PublishedTime.Format("2006-01-02 15:04:05 -07:00")
	}
	templateMap[router.CacheTagsKey] = photobox.MergeCacheTags(tags, []string{"page:" + link})

	return fiber.StatusOK, nil
}
