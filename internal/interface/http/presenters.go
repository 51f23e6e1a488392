package handlers

import (
	"time"

	"github.com/oksasatya/foodgram/internal/domain/entity"
)

type userDTO struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	IsSubscribed bool   `json:"is_subscribed"`
}

type tagDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Slug  string `json:"slug"`
}

type ingredientDTO struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

type recipeIngredientDTO struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

type recipeDTO struct {
	ID               string                `json:"id"`
	Author           userDTO               `json:"author"`
	Name             string                `json:"name"`
	Image            string                `json:"image"`
	Text             string                `json:"text"`
	CookingTime      int                   `json:"cooking_time"`
	PubDate          time.Time             `json:"pub_date"`
	Tags             []tagDTO              `json:"tags"`
	Ingredients      []recipeIngredientDTO `json:"ingredients"`
	IsFavorited      bool                  `json:"is_favorited"`
	IsInShoppingCart bool                  `json:"is_in_shopping_cart"`
}

type shortRecipeDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

// subscriptionDTO is an author card: the user fields plus a recipe preview.
type subscriptionDTO struct {
	userDTO
	Recipes      []shortRecipeDTO `json:"recipes"`
	RecipesCount int              `json:"recipes_count"`
}

type tokenDTO struct {
	AuthToken        string    `json:"auth_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

func toUser(u entity.User, subscribed bool) userDTO {
	return userDTO{
		ID:           u.ID,
		Email:        u.Email,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: subscribed,
	}
}

func toUsers(views []entity.UserView) []userDTO {
	out := make([]userDTO, 0, len(views))
	for _, v := range views {
		out = append(out, toUser(v.User, v.IsSubscribed))
	}
	return out
}

func toTag(t entity.Tag) tagDTO {
	return tagDTO{ID: t.ID, Name: t.Name, Color: t.Color, Slug: t.Slug}
}

func toTags(tags []entity.Tag) []tagDTO {
	out := make([]tagDTO, 0, len(tags))
	for _, t := range tags {
		out = append(out, toTag(t))
	}
	return out
}

func toIngredient(in entity.Ingredient) ingredientDTO {
	return ingredientDTO{ID: in.ID, Name: in.Name, MeasurementUnit: in.MeasurementUnit}
}

func toIngredients(list []entity.Ingredient) []ingredientDTO {
	out := make([]ingredientDTO, 0, len(list))
	for _, in := range list {
		out = append(out, toIngredient(in))
	}
	return out
}

func toRecipe(v entity.RecipeView) recipeDTO {
	ingredients := make([]recipeIngredientDTO, 0, len(v.Ingredients))
	for _, ri := range v.Ingredients {
		ingredients = append(ingredients, recipeIngredientDTO{
			ID:              ri.IngredientID,
			Name:            ri.Name,
			MeasurementUnit: ri.MeasurementUnit,
			Amount:          ri.Amount,
		})
	}
	return recipeDTO{
		ID:               v.ID,
		Author:           toUser(v.Author.User, v.Author.IsSubscribed),
		Name:             v.Name,
		Image:            v.Image,
		Text:             v.Text,
		CookingTime:      v.CookingTime,
		PubDate:          v.PubDate,
		Tags:             toTags(v.Tags),
		Ingredients:      ingredients,
		IsFavorited:      v.IsFavorited,
		IsInShoppingCart: v.IsInShoppingCart,
	}
}

func toRecipes(views []entity.RecipeView) []recipeDTO {
	out := make([]recipeDTO, 0, len(views))
	for _, v := range views {
		out = append(out, toRecipe(v))
	}
	return out
}

func toShortRecipe(r entity.Recipe) shortRecipeDTO {
	return shortRecipeDTO{ID: r.ID, Name: r.Name, Image: r.Image, CookingTime: r.CookingTime}
}

// toSubscription renders a followed author; the viewer follows them by construction.
func toSubscription(s entity.Subscription) subscriptionDTO {
	recipes := make([]shortRecipeDTO, 0, len(s.Recipes))
	for _, r := range s.Recipes {
		recipes = append(recipes, toShortRecipe(r))
	}
	return subscriptionDTO{
		userDTO:      toUser(s.Author, true),
		Recipes:      recipes,
		RecipesCount: s.RecipesCount,
	}
}
