package models

func placeholder(label string) *string {
	return &label
}

// DefaultProducts returns the built-in catalog used to seed an empty store.
// A fresh slice is returned on every call so callers may modify it.
func DefaultProducts() []Product {
	return []Product{
		{
			ID:               "dress-1",
			Name:             "Classic White Wedding Dress",
			Category:         CategoryWeddingDresses,
			Description:      "A beautiful traditional white wedding dress with lace details.",
			Price:            "$1,999",
			ImagePlaceholder: placeholder("Wedding Dress"),
		},
		{
			ID:               "dress-2",
			Name:             "Flower Girl Pink Dress",
			Category:         CategoryFlowerGirlDresses,
			Description:      "Adorable pink dress perfect for flower girls.",
			Price:            "$299",
			ImagePlaceholder: placeholder("Flower Girl Dress"),
		},
		{
			ID:               "belt-1",
			Name:             "Crystal Embellished Belt",
			Category:         CategoryBelts,
			Description:      "Stunning crystal belt to accentuate your wedding dress.",
			Price:            "$199",
			ImagePlaceholder: placeholder("Belt"),
		},
		{
			ID:               "dress-3",
			Name:             "Mermaid Silhouette",
			Category:         CategoryWeddingDresses,
			Description:      "Stunning mermaid dress that hugs your curves and flares at the knee with beautiful train details.",
			Price:            "$1,150",
			ImagePlaceholder: placeholder("Wedding Dress"),
		},
		{
			ID:               "flower-1",
			Name:             "Princess Flower Girl",
			Category:         CategoryFlowerGirlDresses,
			Description:      "Adorable tea-length dress with a full tulle skirt and ribbon sash. Perfect for ages 4-8.",
			Price:            "$199",
			ImagePlaceholder: placeholder("Flower Girl Dress"),
		},
		{
			ID:               "flower-2",
			Name:             "Lace Overlay Dress",
			Category:         CategoryFlowerGirlDresses,
			Description:      "Sweet flower girl dress with lace overlay and satin ribbon. Available in multiple colors.",
			Price:            "$225",
			ImagePlaceholder: placeholder("Flower Girl Dress"),
		},
		{
			ID:               "veil-1",
			Name:             "Cathedral Length Veil",
			Category:         CategoryVeils,
			Description:      "Stunning cathedral-length veil with delicate lace edging. Adds a dramatic touch to any dress.",
			Price:            "$299",
			ImagePlaceholder: placeholder("Veil"),
		},
		{
			ID:               "veil-2",
			Name:             "Fingertip Length Veil",
			Category:         CategoryVeils,
			Description:      "Classic fingertip length veil with simple edge. Perfect for most dress styles.",
			Price:            "$179",
			ImagePlaceholder: placeholder("Veil"),
		},
		{
			ID:               "jewelry-1",
			Name:             "Pearl Necklace Set",
			Category:         CategoryJewelry,
			Description:      "Elegant pearl necklace and earring set that complements any wedding dress style.",
			Price:            "$149",
			ImagePlaceholder: placeholder("Jewelry"),
		},
		{
			ID:               "hair-1",
			Name:             "Crystal Hair Comb",
			Category:         CategoryHairPieces,
			Description:      "Beautiful crystal hair comb that adds the perfect amount of sparkle to your bridal look.",
			Price:            "$125",
			ImagePlaceholder: placeholder("Hair Piece"),
		},
	}
}
