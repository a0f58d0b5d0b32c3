// Package brief renders a promotion plan as a short prose briefing for a
// store manager, either from a local template or via Claude.
package brief

import (
	"context"
	"strings"
	"text/template"

	"github.com/rotisserie/eris"

	"github.com/northcart/promoplan/internal/promo"
)

// Renderer turns an optimization result into a textual brief. Renderers
// must accept any well-formed plan; their prose carries no correctness
// contract.
type Renderer interface {
	Render(ctx context.Context, plan *promo.Plan) (string, error)
}

const briefTemplate = `# Weekly Promotion Plan

{{ if .Result.PromotedProducts -}}
Promote {{ len .Result.PromotedProducts }} of {{ len .Summary }} candidate products this week: {{ join .Result.PromotedProducts ", " }}.
This plan yields an expected weekly revenue of ${{ printf "%.2f" .Result.ExpectedRevenue }} while spending ${{ printf "%.2f" .Result.DiscountCost }} of the ${{ printf "%.2f" .Budget }} discount budget.
{{- else -}}
No promotions this week: no candidate's discount fits the ${{ printf "%.2f" .Budget }} budget with a revenue gain. Expected weekly revenue at regular prices is ${{ printf "%.2f" .Result.ExpectedRevenue }}.
{{- end }}

Next steps:
{{ range .Result.PromotedProducts -}}
- Apply the discounted price to product {{ . }} and verify shelf labeling.
{{ end -}}
- Review sell-through mid-week and confirm demand tracks the promoted forecast.
- Re-run the plan after the period closes to recalibrate demand estimates.
`

// TemplateRenderer produces a deterministic offline brief. It is the
// default renderer and the fallback when the Claude renderer fails.
type TemplateRenderer struct {
	tmpl *template.Template
}

// NewTemplateRenderer compiles the built-in brief template.
func NewTemplateRenderer() *TemplateRenderer {
	tmpl := template.Must(template.New("brief").
		Funcs(template.FuncMap{"join": strings.Join}).
		Parse(briefTemplate))
	return &TemplateRenderer{tmpl: tmpl}
}

func (r *TemplateRenderer) Render(_ context.Context, plan *promo.Plan) (string, error) {
	if plan == nil || plan.Result == nil {
		return "", eris.New("brief: nil plan or result")
	}
	var b strings.Builder
	if err := r.tmpl.Execute(&b, plan); err != nil {
		return "", eris.Wrap(err, "brief: execute template")
	}
	return b.String(), nil
}
