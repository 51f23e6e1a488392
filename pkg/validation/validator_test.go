package validation

import (
	"encoding/json"
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
)

type ingredientIn struct {
	ID     string `json:"id" binding:"required"`
	Amount int    `json:"amount" binding:"min=1"`
}

type sample struct {
	Name        string         `json:"name" binding:"required,max=10,recipename"`
	Username    string         `json:"username" binding:"required,username"`
	Slug        string         `json:"slug" binding:"required,slug"`
	Color       string         `json:"color" binding:"required,hexcolor"`
	Ingredients []ingredientIn `json:"ingredients" binding:"required,min=1,dive"`
}

func validate(v any) error {
	Init()
	return binding.Validator.ValidateStruct(v)
}

func TestValidSample(t *testing.T) {
	err := validate(&sample{
		Name:        "Pancakes",
		Username:    "ann.b+1@x",
		Slug:        "breakfast_1",
		Color:       "#E26C2D",
		Ingredients: []ingredientIn{{ID: "x", Amount: 1}},
	})
	assert.NoError(t, err)
}

func TestToDetailsCustomTags(t *testing.T) {
	err := validate(&sample{
		Name:        "12345",
		Username:    "bad name",
		Slug:        "no spaces",
		Color:       "red",
		Ingredients: []ingredientIn{{ID: "x", Amount: 0}},
	})

	details := ToDetails(err)
	assert.Equal(t, "must contain at least one letter", details["name"])
	assert.Contains(t, details["username"], "letters, digits")
	assert.Contains(t, details["slug"], "latin letters")
	assert.Equal(t, "must be a valid hexadecimal color", details["color"])
	assert.Equal(t, "must be at least 1", details["ingredients[0].amount"])
}

func TestToDetailsEmptySlice(t *testing.T) {
	err := validate(&sample{Name: "Soup", Username: "ann", Slug: "s", Color: "#fff", Ingredients: []ingredientIn{}})
	assert.Equal(t, map[string]string{"ingredients": "must contain at least 1 item(s)"}, ToDetails(err))
}

func TestToDetailsJSONErrors(t *testing.T) {
	var dst sample
	err := json.Unmarshal([]byte(`{"name":`), &dst)
	assert.Equal(t, map[string]string{"payload": "invalid json"}, ToDetails(err))

	err = json.Unmarshal([]byte(`{"name": 5}`), &dst)
	assert.Equal(t, "must be of type string", ToDetails(err)["name"])

	assert.Nil(t, ToDetails(nil))
}
