package form

import (
	"html/template"
	"io"

	"github.com/mbolis/hvac-survey/model"
	"github.com/mbolis/hvac-survey/schema"
)

// Page is the survey entry page of a template.
type Page struct {
	Template   *schema.Template
	Equipment  []model.Equipment
	Survey     model.Survey
	Violations []schema.Violation
	Message    string
	// Action is the URL the form posts to.
	Action string
}

func (p Page) Render(w io.Writer) error {
	r := NewHTMLRenderer(p.Violations)
	controls := schema.Render[template.HTML](r, p.Template.Fields(), p.Survey.SurveyData)
	if err := r.Err(); err != nil {
		return err
	}
	return tpl.ExecuteTemplate(w, "page.html", struct {
		Page
		Controls []template.HTML
	}{p, controls})
}

// LoginPage asks for credentials, then sends the browser to Goto.
type LoginPage struct {
	Goto    string
	Message string
}

func (p LoginPage) Render(w io.Writer) error {
	return tpl.ExecuteTemplate(w, "login.html", p)
}

// IndexPage links the entry page of every template.
type IndexPage struct {
	Templates []*schema.Template
}

func (p IndexPage) Render(w io.Writer) error {
	return tpl.ExecuteTemplate(w, "index.html", p)
}
