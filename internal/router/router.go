package router

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/SayaAndy/photobox/config"
	"github.com/SayaAndy/photobox/internal/b2"
	"github.com/SayaAndy/photobox/internal/binder"
	"github.com/SayaAndy/photobox/internal/frontmatter"
	"github.com/SayaAndy/photobox/internal/pagecache"
	"github.com/SayaAndy/photobox/internal/pagetrigger"
	"github.com/SayaAndy/photobox/internal/photobox"
	"github.com/SayaAndy/photobox/internal/photoboxmd"
	"github.com/SayaAndy/photobox/internal/settingsstore"
	"github.com/SayaAndy/photobox/internal/templatemanager"
	"github.com/SayaAndy/photobox/views"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

type CacheSetting int

const (
	Disabled CacheSetting = iota
	ByUrlOnly
	ByUrlAndQuery
)

// Template map keys filled by handlers and read back by the router.
const (
	CacheTagsKey = "CacheTags"
	OutputKey    = "Output"
)

// BlogPrefix is the bucket folder holding the pages served under /blog.
const BlogPrefix = "blog/"

var (
	Routes = make([]Route, 0)
)

type Route interface {
	Filter() (method string, path string)
	IsTemplated() bool
	ToCache() CacheSetting
	CacheDuration() time.Duration
	// ToBind reports whether photobox galleries in the output are bound before
	// it is sent.
	ToBind() bool
	TemplatesToInject() []string
	Render(c *fiber.Ctx, supplements *Supplements, templateMap fiber.Map) (statusCode int, err error)
	RenderBody(c *fiber.Ctx, supplements *Supplements, params map[string]string, templateMap fiber.Map) (statusCode int, err error)
}

type PageSource interface {
	ReadFrontmatter(ctx context.Context, path string) (metadata *frontmatter.Metadata, markdown []byte, err error)
}

type SettingsStore interface {
	Load(ctx context.Context) (photobox.GallerySettings, error)
	Save(ctx context.Context, settings photobox.GallerySettings) error
}

type Supplements struct {
	Pages            PageSource
	Settings         SettingsStore
	PageCache        *pagecache.PageCache
	Registry         *photobox.Registry
	Binder           *binder.Binder
	MarkdownRenderer goldmark.Markdown
	TemplateManager  *templatemanager.TemplateManager
	PageTrigger      *pagetrigger.PageTriggerScheduler
}

type Router struct {
	supplements          *Supplements
	app                  *fiber.App
	templatedRoutes      map[string]map[string]Route
	templatedPathMatcher *PathMatcher
}

func NewMarkdownRenderer(registry *photobox.Registry) goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(
			photoboxmd.NewPhotoboxExtension(registry),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithAttribute(),
		),
		goldmark.WithRendererOptions(
			html.WithXHTML(),
		),
	)
}

// NewRegistry builds the formatter of every configured field plus the default
// one used for fields without their own settings.
func NewRegistry(cfg *config.PhotoboxConfig, urls photobox.URLBuilder) (*photobox.Registry, error) {
	styles := photobox.StyleCatalogue(cfg.ImageStyles)

	fallback, err := photobox.NewPhotoboxFormatter(cfg.Default.Settings(), styles, urls)
	if err != nil {
		return nil, fmt.Errorf("fail to initialize default formatter: %w", err)
	}

	registry := photobox.NewRegistry(fallback)
	for field, formatterCfg := range cfg.Formatters {
		formatter, err := photobox.NewPhotoboxFormatter(formatterCfg.Settings(), styles, urls)
		if err != nil {
			return nil, fmt.Errorf("fail to initialize formatter for '%s': %w", field, err)
		}
		if err = registry.Register(field, formatter); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

func NewRouter(ctx context.Context, cfg *config.Config) (*Router, error) {
	supplements := &Supplements{}

	var err error
	supplements.TemplateManager, err = templatemanager.NewTemplateManager(views.FS)
	if err != nil {
		return nil, fmt.Errorf("fail to initialize template manager: %w", err)
	}

	b2Client, err := b2.NewB2Client(ctx, &cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("fail to initialize b2 client: %w", err)
	}
	supplements.Pages = b2Client

	settings, err := settingsstore.Open(cfg.Db.Type, cfg.Db.Cfg.DSN, cfg.Photobox.Settings)
	if err != nil {
		return nil, fmt.Errorf("fail to initialize settings store: %w", err)
	}
	supplements.Settings = settings

	supplements.Registry, err = NewRegistry(&cfg.Photobox, b2Client)
	if err != nil {
		settings.Close()
		return nil, err
	}

	supplements.MarkdownRenderer = NewMarkdownRenderer(supplements.Registry)
	supplements.Binder = binder.New(binder.ScriptViewer{})

	supplements.PageCache, err = pagecache.New(cfg.PageCache.MaxCost, cfg.PageCache.TTL)
	if err != nil {
		settings.Close()
		return nil, err
	}

	supplements.PageTrigger, err = pagetrigger.NewPageTriggerScheduler(b2Client, BlogPrefix, cfg.Trigger.Rescan,
		func(links []string) error {
			for _, link := range links {
				dropped := supplements.PageCache.InvalidateTags("page:" + link)
				slog.Debug("invalidated page cache", slog.String("link", link), slog.Int("keys", dropped))
			}
			return nil
		})
	if err != nil {
		settings.Close()
		supplements.PageCache.Close()
		return nil, fmt.Errorf("fail to initialize page trigger: %w", err)
	}

	return NewRouterWithSupplements(supplements, cfg.LogLevel), nil
}

func NewRouterWithSupplements(supplements *Supplements, logLevel slog.Level) *Router {
	enablePrintRoutes := false
	if logLevel <= slog.LevelDebug {
		enablePrintRoutes = true
	}

	app := fiber.New(fiber.Config{
		EnablePrintRoutes:     enablePrintRoutes,
		DisableStartupMessage: !enablePrintRoutes,
		ProxyHeader:           "X-Forwarded-For",
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	templatedRoutes := make(map[string]map[string]Route)
	templatedPathMatcher := NewPathMatcher()

	return &Router{supplements, app, templatedRoutes, templatedPathMatcher}
}

func (r *Router) InitRoutes() (err error) {
	if err = r.supplements.TemplateManager.Add("general-page", "layouts/general-page.html"); err != nil {
		return fmt.Errorf("failed to add general page into template manager: %w", err)
	}

	for _, route := range Routes {
		method, match := route.Filter()

		if route.IsTemplated() {
			if _, ok := r.templatedRoutes[method]; !ok {
				r.templatedRoutes[method] = make(map[string]Route)
			}
			r.templatedRoutes[method][match] = route
			r.templatedPathMatcher.AddRoute(method, match)

			currentRoute := route
			r.app.Add(method, match, func(c *fiber.Ctx) error {
				return r.generalPage(c, currentRoute)
			})
			continue
		}

		if files := route.TemplatesToInject(); len(files) > 0 {
			if err = r.supplements.TemplateManager.Add(method+" "+match, files...); err != nil {
				return fmt.Errorf("failed to add '%s %s' route into template manager: %w", method, match, err)
			}
		}

		currentRoute := route
		r.app.Add(method, match, func(c *fiber.Ctx) error {
			return r.fullPage(c, currentRoute)
		})
	}

	segments := []string{"body"}

	r.app.Get("/api/v1/general-page/:part", func(c *fiber.Ctx) error {
		part := c.Params("part")
		if !slices.Contains(segments, part) {
			c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
			return c.Status(fiber.ErrBadRequest.Code).SendString(fmt.Sprintf("unknown segment '%s'", part))
		}
		return r.generalPageSegment(c, part)
	})

	for _, segment := range segments {
		if err = r.supplements.TemplateManager.Add("general-page-"+segment, "partials/general-page-"+segment+".html"); err != nil {
			return fmt.Errorf("failed to add '%s' segment into template manager: %w", segment, err)
		}
	}

	r.app.Static("/static", "./static")

	return nil
}

func (r *Router) Listen(endpoint string) error {
	if err := r.app.Listen(endpoint); err != nil {
		return fmt.Errorf("error while running fiber server: %w", err)
	}
	return nil
}

// Test exposes the fiber app to handler tests.
func (r *Router) Test(req *http.Request, msTimeout ...int) (*http.Response, error) {
	return r.app.Test(req, msTimeout...)
}

func (r *Router) Close() (err error) {
	allErrors := make([]error, 0)
	if r.supplements.PageTrigger != nil {
		if err = r.supplements.PageTrigger.Close(); err != nil {
			allErrors = append(allErrors, fmt.Errorf("fail to shutdown page trigger scheduler: %w", err))
		}
	}
	if err = r.app.Shutdown(); err != nil {
		allErrors = append(allErrors, fmt.Errorf("fail to shutdown fiber server: %w", err))
	}
	if closer, ok := r.supplements.Settings.(io.Closer); ok {
		if err = closer.Close(); err != nil {
			allErrors = append(allErrors, fmt.Errorf("fail to close settings store: %w", err))
		}
	}
	if r.supplements.PageCache != nil {
		r.supplements.PageCache.Close()
	}
	return errors.Join(allErrors...)
}

func cacheKey(route Route, method, part, path, queryString string) string {
	trimmedPath := strings.Trim(path, "/")
	switch route.ToCache() {
	case ByUrlOnly:
		return fmt.Sprintf("%s.%s.%s", method, part, trimmedPath)
	case ByUrlAndQuery:
		return fmt.Sprintf("%s.%s.%s.%s", method, part, trimmedPath, queryString)
	}
	return ""
}

func defaultMap(path, queryString string) fiber.Map {
	return fiber.Map{
		"Path":        strings.Trim(path, "/"),
		"QueryString": queryString,
	}
}

type attachFunc func(r io.Reader, settings photobox.GallerySettings) ([]byte, []binder.Instance, error)

// bind runs the binder over rendered output of routes that want it. Galleries
// that fail to bind are logged and left unbound; only a document that can't be
// parsed fails the request.
func (r *Router) bind(ctx context.Context, route Route, content []byte, attach attachFunc) ([]byte, error) {
	if !route.ToBind() {
		return content, nil
	}

	settings, err := r.supplements.Settings.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("fail to load photobox settings: %w", err)
	}

	bound, instances, err := attach(bytes.NewReader(content), settings)
	if bound == nil {
		return nil, err
	}
	if err != nil {
		slog.Warn("some galleries were left unbound", slog.String("error", err.Error()))
	}
	slog.Debug("bound photobox galleries", slog.Int("galleries", len(instances)))
	return bound, nil
}

func cacheTags(route Route, templateMap fiber.Map) []string {
	tags, _ := templateMap[CacheTagsKey].([]string)
	if route.ToBind() {
		tags = photobox.MergeCacheTags(tags, []string{photobox.SettingsCacheTag})
	}
	return tags
}

func (r *Router) sendError(c *fiber.Ctx, statusCode int, msg string, attrs ...any) error {
	slog.Error(msg, attrs...)
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.Status(statusCode).SendString(msg)
}

func (r *Router) fullPage(c *fiber.Ctx, route Route) error {
	method := c.Method()
	path := c.Path()
	_, match := route.Filter()
	queryString := string(c.Request().URI().QueryString())

	key := cacheKey(route, method, "full-page", path, queryString)
	if route.ToCache() != Disabled {
		if val, ok := r.supplements.PageCache.Get(key); ok {
			c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
			return c.Status(fiber.StatusOK).Type("html").Send(val)
		}
	}

	templateMap := defaultMap(path, queryString)
	statusCode, err := route.Render(c, r.supplements, templateMap)
	if err != nil {
		slog.Error("failed to finish rendering a page",
			slog.Int("status_code", statusCode),
			slog.String("method", method),
			slog.String("path", path),
			slog.String("match", match),
			slog.String("error", err.Error()),
		)
		c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
		return c.Status(statusCode).SendString(err.Error())
	}

	var content []byte
	if len(route.TemplatesToInject()) > 0 {
		content, err = r.supplements.TemplateManager.Render(method+" "+match, templateMap)
		if err != nil {
			return r.sendError(c, fiber.StatusInternalServerError, "failed to generate page",
				slog.String("method", method), slog.String("path", path), slog.String("error", err.Error()))
		}
	} else if val, ok := templateMap[OutputKey].([]byte); ok {
		content = val
	}

	if content, err = r.bind(c.UserContext(), route, content, r.supplements.Binder.AttachDocument); err != nil {
		return r.sendError(c, fiber.StatusInternalServerError, "failed to bind galleries",
			slog.String("path", path), slog.String("error", err.Error()))
	}

	if statusCode >= 200 && statusCode < 300 && route.ToCache() != Disabled {
		r.supplements.PageCache.Set(key, content, cacheTags(route, templateMap), route.CacheDuration())
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Status(statusCode).Type("html").Send(content)
}

func (r *Router) generalPage(c *fiber.Ctx, route Route) error {
	method := c.Method()
	path := c.Path()
	queryString := string(c.Request().URI().QueryString())

	key := cacheKey(route, method, "general-page", path, queryString)
	if route.ToCache() != Disabled {
		if val, ok := r.supplements.PageCache.Get(key); ok {
			c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
			return c.Status(fiber.StatusOK).Type("html").Send(val)
		}
	}

	templateMap := defaultMap(path, queryString)
	statusCode, err := route.RenderBody(c, r.supplements, c.AllParams(), templateMap)
	if err != nil {
		return r.sendError(c, statusCode, err.Error(),
			slog.String("method", method), slog.String("path", path), slog.String("error", err.Error()))
	}

	content, err := r.supplements.TemplateManager.Render("general-page", templateMap, route.TemplatesToInject()...)
	if err != nil {
		return r.sendError(c, fiber.StatusInternalServerError, "failed to generate page",
			slog.String("path", path), slog.String("error", err.Error()))
	}

	if content, err = r.bind(c.UserContext(), route, content, r.supplements.Binder.AttachDocument); err != nil {
		return r.sendError(c, fiber.StatusInternalServerError, "failed to bind galleries",
			slog.String("path", path), slog.String("error", err.Error()))
	}

	if statusCode >= 200 && statusCode < 300 && route.ToCache() != Disabled {
		r.supplements.PageCache.Set(key, content, cacheTags(route, templateMap), route.CacheDuration())
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Status(statusCode).Type("html").Send(content)
}

// generalPageSegment renders one part of the templated page named by the
// Referer header, so a page can reload it without a full navigation.
func (r *Router) generalPageSegment(c *fiber.Ctx, part string) error {
	method := c.Method()

	path, queryString, err := GetPathFromReferer(c)
	if err != nil {
		c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
		return c.Status(fiber.StatusBadRequest).SendString(err.Error())
	}

	pattern, params, matched := r.templatedPathMatcher.MatchPath(method, path)
	if !matched {
		c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
		return c.Status(fiber.StatusNotFound).SendString(fmt.Sprintf("fail to get templated page for '%s %s': not found", method, path))
	}
	route := r.templatedRoutes[method][pattern]

	key := cacheKey(route, method, part, path, queryString)
	if route.ToCache() != Disabled {
		if val, ok := r.supplements.PageCache.Get(key); ok {
			c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
			return c.Status(fiber.StatusOK).Type("html").Send(val)
		}
	}

	templateMap := defaultMap(path, queryString)
	statusCode, err := route.RenderBody(c, r.supplements, params, templateMap)
	if err != nil {
		return r.sendError(c, statusCode, err.Error(),
			slog.String("method", method),
			slog.String("path", path),
			slog.String("segment", part),
			slog.String("error", err.Error()),
		)
	}

	content, err := r.supplements.TemplateManager.Render("general-page-"+part, templateMap, route.TemplatesToInject()...)
	if err != nil {
		return r.sendError(c, fiber.StatusInternalServerError, "failed to generate div",
			slog.String("path", path), slog.String("segment", part), slog.String("error", err.Error()))
	}

	if content, err = r.bind(c.UserContext(), route, content, r.supplements.Binder.AttachFragment); err != nil {
		return r.sendError(c, fiber.StatusInternalServerError, "failed to bind galleries",
			slog.String("path", path), slog.String("segment", part), slog.String("error", err.Error()))
	}

	if statusCode >= 200 && statusCode < 300 && route.ToCache() != Disabled {
		r.supplements.PageCache.Set(key, content, cacheTags(route, templateMap), route.CacheDuration())
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Status(statusCode).Type("html").Send(content)
}

func GetPathFromReferer(c *fiber.Ctx) (path string, queryString string, err error) {
	referer := c.Get("Referer")
	if referer == "" {
		return "", "", errors.New("'Referer' header is empty")
	}
	urlStruct, err := url.ParseRequestURI(referer)
	if err != nil {
		return "", "", fmt.Errorf("'Referer' header is invalid: %w", err)
	}

	return urlStruct.EscapedPath(), urlStruct.RawQuery, nil
}
