package templates

import (
	"strings"

	"github.com/oksasatya/foodgram/config"
)

// Option pattern
type Option func(*EmailData)

func WithRecipe(id, name string) Option {
	return func(d *EmailData) {
		d.RecipeName = name
		d.RecipeURL = strings.TrimRight(d.SiteURL, "/") + "/recipes/" + id
	}
}

func WithAuthor(name string) Option { return func(d *EmailData) { d.AuthorName = name } }

// NewBaseEmailData fills the common fields from config, then applies opts.
func NewBaseEmailData(cfg *config.Config, typ, name, email string, opts ...Option) EmailData {
	d := EmailData{
		Name:           name,
		Email:          email,
		RecipientEmail: email,
		Type:           typ,
		AppName:        cfg.AppName,
		SiteURL:        cfg.SiteURL,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func NewRecipeData(cfg *config.Config, name, email, author, recipeID, recipeName string) map[string]any {
	d := NewBaseEmailData(cfg, NewRecipe, name, email, WithAuthor(author), WithRecipe(recipeID, recipeName))
	return ToMap(d)
}

func NewWelcomeData(cfg *config.Config, name, email string) map[string]any {
	return ToMap(NewBaseEmailData(cfg, Welcome, name, email))
}
