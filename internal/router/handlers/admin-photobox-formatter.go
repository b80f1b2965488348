package handlers

import (
	"fmt"

	"github.com/SayaAndy/photobox/internal/photobox"
	"github.com/SayaAndy/photobox/internal/router"
	"github.com/gofiber/fiber/v2"
)

func init() {
	router.Routes = append(router.Routes, &PhotoboxFormatterHandler{})
}

// PhotoboxFormatterHandler shows the settings form and summary of the
// formatter that renders a field.
type PhotoboxFormatterHandler struct {
	router.BasicHandler
}

func (r *PhotoboxFormatterHandler) Filter() (method string, path string) {
	return "GET", "/admin/photobox/formatters/:field"
}

func (r *PhotoboxFormatterHandler) IsTemplated() bool {
	return true
}

func (r *PhotoboxFormatterHandler) TemplatesToInject() []string {
	return []string{"pages/photobox-formatter.html"}
}

func (r *PhotoboxFormatterHandler) RenderBody(c *fiber.Ctx, supplements *router.Supplements, params map[string]string, templateMap fiber.Map) (statusCode int, err error) {
	field := params["field"]
	if !photobox.ValidIdentifier(field) {
		return fiber.StatusBadRequest, fmt.Errorf("field name '%s' is invalid", field)
	}

	formatter, err := supplements.Registry.Formatter(field)
	if err != nil {
		return fiber.StatusNotFound, err
	}

	templateMap["Title"] = fmt.Sprintf("Photobox formatter of %s", field)
	templateMap["Summary"] = formatter.SettingsSummary()
	templateMap["Form"] = formatter.SettingsForm()
	templateMap["Dependencies"] = formatter.CalculateDependencies()
	return fiber.StatusOK, nil
}
