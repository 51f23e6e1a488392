package entity

// Ingredient is read-mostly reference data, unique by (Name, MeasurementUnit).
type Ingredient struct {
	ID              string
	Name            string
	MeasurementUnit string
}

// Tag is unique by Slug.
type Tag struct {
	ID    string
	Name  string
	Color string
	Slug  string
}
