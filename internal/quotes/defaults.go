package quotes

import "github.com/marcus/quotes/internal/models"

// Defaults returns the seed collection used when no local snapshot exists
func Defaults() models.Collection {
	return models.Collection{
		{Text: "The only way to do great work is to love what you do.", Category: "Work"},
		{Text: "Strive not to be a success, but rather to be of value.", Category: "Life"},
		{Text: "That which does not kill us makes us stronger.", Category: "Inspiration"},
		{Text: "Coding is not just code, that is why it is not easy.", Category: "Programming"},
	}
}
