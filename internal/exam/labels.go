package exam

import (
	"context"

	"github.com/pavelanni/examgen/internal/i18n"
	"github.com/pavelanni/examgen/internal/render"
)

// LocalizedLabels returns the rendered literals for lang. i18n.Init must
// have been called.
func LocalizedLabels(lang string) render.Labels {
	ctx := i18n.WithLocalizer(context.Background(), i18n.NewLocalizer(lang))
	return render.Labels{
		NoneOfAbove: i18n.T(ctx, "NoneOfTheAbove"),
		KeyHeading:  i18n.T(ctx, "AnswerKey"),
	}
}
