package web

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"smartwaste/internal/config"
)

const powerBIReport = "https://app.powerbi.com/view?r=eyJrIjoiODk3NjVmNTAtYTEyOC00MmY5LTgzZjAtZTZhOWIyYzgyNWZlIiwidCI6IjhhZWJkZGI2LTM0MTgtNDNhMS1hMjU1LWI5NjQxODZlY2M2NCIsImMiOjl9"

const defaultHome = `¡Hola a todos! Somos el equipo detrás de SmartWaste, un proyecto diseñado para mejorar la gestión de residuos en nuestra ciudad. Nuestro objetivo es hacer que la recolección de basura sea más eficiente, sostenible y adaptada a las necesidades de cada barrio.

Para ello, hemos analizado datos sobre la cantidad de residuos recogidos en distintos momentos del año y en diferentes zonas. Esto nos ha permitido descubrir patrones, entender qué distritos tienen un mejor desempeño y detectar oportunidades para optimizar el servicio.

Con SmartWaste, queremos contribuir a un entorno más limpio y ordenado, ayudando a que los recursos se utilicen de la mejor manera posible. ¡Porque una ciudad más sostenible es tarea de todos!

\#SmartWaste \#CuidemosNuestroEntorno \#InnovaciónParaUnFuturoLimpio
`

const defaultAbout = `Con SmartWaste, hemos demostrado cómo el análisis de datos puede ayudar a mejorar la gestión de residuos en nuestra ciudad. Al identificar patrones y evaluar la eficiencia en distintos distritos, nuestro proyecto busca contribuir a un sistema de recolección más inteligente y sostenible.

Este ha sido un trabajo en equipo, y queremos agradecer a todos los que hicieron posible este proyecto. ¡Gracias por acompañarnos en este recorrido! Sigamos trabajando juntos por una ciudad más limpia y eficiente. 🌍♻️
`

const defaultFooter = "Desarrollado como parte del proyecto SmartWaste"

var defaultDashboards = []config.Dashboard{
	{Tab: "Resumen General", Description: "Este es resúmen de la recolección de residuos en Madrid los últimos tres años", URL: powerBIReport},
	{Tab: "Mapa de Distritos", URL: powerBIReport + "&pageName=46d13c11d01b639264b7"},
	{Tab: "Residuos por Categoria", URL: powerBIReport + "&pageName=0e4aae2400ec306d5025"},
	{Tab: "Servicios de Limpieza", URL: powerBIReport + "&pageName=766999b24eaa1c546637"},
}

var defaultTeam = []config.Member{
	{Name: "Inés Camerlynck", Avatar: "https://avatars.githubusercontent.com/u/109431439?v=4", GitHub: "https://github.com/ICG216"},
	{Name: "Jaqueline Di Croce", Avatar: "https://avatars.githubusercontent.com/u/183011202?v=4", GitHub: "https://github.com/jaquidicroce"},
	{Name: "Borja Cortés", Avatar: "https://avatars.githubusercontent.com/u/183004832?v=4", GitHub: "https://github.com/borcdc"},
}

// content is the rendered, static part of every page.
type content struct {
	Title      string
	Home       template.HTML
	About      template.HTML
	Footer     string
	Dashboards []config.Dashboard
	Team       []config.Member
}

func newContent(site config.SiteConfig) (*content, error) {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(html.WithHardWraps()),
	)

	c := &content{
		Title:      site.Title,
		Footer:     orDefault(site.Footer, defaultFooter),
		Dashboards: site.Dashboards,
		Team:       site.Team,
	}
	if len(c.Dashboards) == 0 {
		c.Dashboards = defaultDashboards
	}
	if len(c.Team) == 0 {
		c.Team = defaultTeam
	}

	var err error
	if c.Home, err = renderMarkdown(md, orDefault(site.Home, defaultHome)); err != nil {
		return nil, fmt.Errorf("failed to render home text: %w", err)
	}
	if c.About, err = renderMarkdown(md, orDefault(site.About, defaultAbout)); err != nil {
		return nil, fmt.Errorf("failed to render about text: %w", err)
	}
	return c, nil
}

// renderMarkdown converts trusted, operator-supplied markdown to HTML.
func renderMarkdown(md goldmark.Markdown, src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
