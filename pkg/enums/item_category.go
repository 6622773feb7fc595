package enums

import "fmt"

// ItemCategory is the closed set of shop departments an item can list under.
type ItemCategory string

const (
	ItemCategoryClothing    ItemCategory = "clothing"
	ItemCategoryShoes       ItemCategory = "shoes"
	ItemCategoryAccessories ItemCategory = "accessories"
	ItemCategoryJewelry     ItemCategory = "jewelry"
	ItemCategoryHome        ItemCategory = "home"
	ItemCategoryBooks       ItemCategory = "books"
	ItemCategoryToys        ItemCategory = "toys"
	ItemCategoryOther       ItemCategory = "other"
)

var validItemCategories = []ItemCategory{
	ItemCategoryClothing,
	ItemCategoryShoes,
	ItemCategoryAccessories,
	ItemCategoryJewelry,
	ItemCategoryHome,
	ItemCategoryBooks,
	ItemCategoryToys,
	ItemCategoryOther,
}

func (c ItemCategory) String() string {
	return string(c)
}

func (c ItemCategory) IsValid() bool {
	for _, candidate := range validItemCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

func ParseItemCategory(value string) (ItemCategory, error) {
	for _, candidate := range validItemCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid item category %q", value)
}
