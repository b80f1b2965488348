package handlers

import (
	"fmt"

	"github.com/SayaAndy/photobox/internal/photobox"
	"github.com/SayaAndy/photobox/internal/router"
	"github.com/gofiber/fiber/v2"
)

func init() {
	router.Routes = append(router.Routes, &PhotoboxSettingsHandler{}, &PhotoboxSettingsSaveHandler{})
}

const settingsTitle = "Photobox settings"

type PhotoboxSettingsHandler struct {
	router.BasicHandler
}

func (r *PhotoboxSettingsHandler) Filter() (method string, path string) {
	return "GET", "/admin/photobox"
}

func (r *PhotoboxSettingsHandler) IsTemplated() bool {
	return true
}

func (r *PhotoboxSettingsHandler) TemplatesToInject() []string {
	return []string{"pages/photobox-settings.html"}
}

func (r *PhotoboxSettingsHandler) RenderBody(c *fiber.Ctx, supplements *router.Supplements, params map[string]string, templateMap fiber.Map) (statusCode int, err error) {
	settings, err := supplements.Settings.Load(c.UserContext())
	if err != nil {
		return fiber.StatusInternalServerError, fmt.Errorf("failed to load photobox settings: %w", err)
	}

	templateMap["Title"] = settingsTitle
	templateMap["Fields"] = settings.Fields()
	return fiber.StatusOK, nil
}

// PhotoboxSettingsSaveHandler stores the submitted form and shows it again.
// Unchecked boxes are not submitted, so a missing field means false.
type PhotoboxSettingsSaveHandler struct {
	router.BasicHandler
}

func (r *PhotoboxSettingsSaveHandler) Filter() (method string, path string) {
	return "POST", "/admin/photobox"
}

func (r *PhotoboxSettingsSaveHandler) TemplatesToInject() []string {
	return []string{"layouts/general-page.html", "pages/photobox-settings.html"}
}

func (r *PhotoboxSettingsSaveHandler) Render(c *fiber.Ctx, supplements *router.Supplements, templateMap fiber.Map) (statusCode int, err error) {
	settings := photobox.GallerySettings{
		History:  c.FormValue("history") != "",
		Loop:     c.FormValue("loop") != "",
		Thumbs:   c.FormValue("thumbs") != "",
		Zoomable: c.FormValue("zoomable") != "",
	}

	if err := supplements.Settings.Save(c.UserContext(), settings); err != nil {
		return fiber.StatusInternalServerError, fmt.Errorf("failed to save photobox settings: %w", err)
	}
	supplements.PageCache.InvalidateTags(photobox.SettingsCacheTag)

	templateMap["Title"] = settingsTitle
	templateMap["Fields"] = settings.Fields()
	templateMap["Saved"] = true
	return fiber.StatusOK, nil
}
