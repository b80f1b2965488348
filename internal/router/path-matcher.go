package router

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

// PathMatcher resolves a path against the templated routes without serving it,
// e.g. the page named by the Referer of a segment request.
type PathMatcher struct {
	app *fiber.App
}

const (
	patternKey = "pattern"
	paramsKey  = "params"
)

func NewPathMatcher() *PathMatcher {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	return &PathMatcher{app: app}
}

func (pm *PathMatcher) AddRoute(method, pattern string) {
	pm.app.Add(method, pattern, func(c *fiber.Ctx) error {
		params := make(map[string]string)
		for name, value := range c.AllParams() {
			params[name] = strings.Clone(value)
		}
		c.Locals(patternKey, pattern)
		c.Locals(paramsKey, params)
		return nil
	})
}

func (pm *PathMatcher) MatchPath(method, path string) (pattern string, params map[string]string, matched bool) {
	fctx := &fasthttp.RequestCtx{}
	fctx.Request.Header.SetMethod(method)
	fctx.Request.SetRequestURI(path)

	pm.app.Handler()(fctx)

	pattern, matched = fctx.UserValue(patternKey).(string)
	if !matched {
		return "", nil, false
	}
	params, _ = fctx.UserValue(paramsKey).(map[string]string)

	return pattern, params, true
}
