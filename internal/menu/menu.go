package menu

// Item is a dish on the static menu. The catalog is compiled in; the
// restaurant updates it with a deploy, not a CMS.
type Item struct {
	Name        string
	Description string
	Price       string
	Slug        string
}

var items = []Item{
	{
		Name:        "Spaghetti Bolognese",
		Description: "Classic Italian pasta with rich meat sauce, served with parmesan.",
		Price:       "$15.99",
		Slug:        "spaghetti-bolognese",
	},
	{
		Name:        "Grilled Salmon",
		Description: "Fresh salmon grilled to perfection, served with seasonal vegetables.",
		Price:       "$19.99",
		Slug:        "grilled-salmon",
	},
	{
		Name:        "Margherita Pizza",
		Description: "Wood-fired pizza with fresh mozzarella, basil, and a tomato sauce base.",
		Price:       "$12.99",
		Slug:        "margherita-pizza",
	},
	{
		Name:        "Caesar Salad",
		Description: "Crisp romaine lettuce with homemade Caesar dressing, croutons, and parmesan.",
		Price:       "$9.99",
		Slug:        "caesar-salad",
	},
	{
		Name:        "Tiramisu",
		Description: "Classic Italian dessert with coffee-soaked ladyfingers and mascarpone cream.",
		Price:       "$7.99",
		Slug:        "tiramisu",
	},
}

func Items() []Item {
	out := make([]Item, len(items))
	copy(out, items)
	return out
}

func BySlug(slug string) (Item, bool) {
	for _, it := range items {
		if it.Slug == slug {
			return it, true
		}
	}
	return Item{}, false
}
