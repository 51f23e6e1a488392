package entity

import "time"

// Recipe is owned by its author and carries its tag and ingredient associations.
type Recipe struct {
	ID          string
	AuthorID    string
	Name        string
	Text        string
	Image       string
	CookingTime int
	PubDate     time.Time

	Tags        []Tag
	Ingredients []RecipeIngredient
}

// RecipeIngredient is one (ingredient, amount) row of a recipe.
type RecipeIngredient struct {
	IngredientID    string
	Name            string
	MeasurementUnit string
	Amount          int
}

// RecipeView is a recipe as seen by one viewer, with the viewer-relative flags resolved.
type RecipeView struct {
	Recipe
	Author           UserView
	IsFavorited      bool
	IsInShoppingCart bool
}

// UserView is a user as seen by one viewer.
type UserView struct {
	User
	IsSubscribed bool
}

// Subscription is an author the viewer follows, with a capped preview of their recipes.
type Subscription struct {
	Author       User
	RecipesCount int
	Recipes      []Recipe
}

// CartLine is one raw recipe-ingredient row of a user's cart, before aggregation.
type CartLine struct {
	Name            string
	MeasurementUnit string
	Amount          int
}
