// internal/domain/game/entity.go
package game

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// Category distinguishes physical card decks from browser-played titles.
type Category string

const (
	CategoryCard   Category = "card"
	CategoryOnline Category = "online"
)

var (
	ErrInvalidID       = errors.New("game: invalid id")
	ErrInvalidSlug     = errors.New("game: invalid slug")
	ErrInvalidTitle    = errors.New("game: invalid title")
	ErrInvalidPrice    = errors.New("game: invalid price")
	ErrInvalidCategory = errors.New("game: invalid category")
)

// SlugRe accepts lowercase URL-safe slugs ("crypto-charades").
var SlugRe = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Game is a catalog entry. Price is in minor currency units.
type Game struct {
	ID          int       `json:"id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       int64     `json:"price"`
	Category    Category  `json:"category"`
	Image       string    `json:"image"`
	Images      []string  `json:"images"`
	IsOnline    bool      `json:"isOnline"`
	HowToPlay   string    `json:"howToPlay,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// New normalizes and validates a catalog entry.
func New(
	id int,
	slug, title, description string,
	price int64,
	category Category,
	image string,
	images []string,
	isOnline bool,
	howToPlay string,
	createdAt time.Time,
) (Game, error) {
	g := Game{
		ID:          id,
		Slug:        strings.TrimSpace(slug),
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		Price:       price,
		Category:    Category(strings.TrimSpace(string(category))),
		Image:       strings.TrimSpace(image),
		Images:      normalizeImages(images),
		IsOnline:    isOnline,
		HowToPlay:   strings.TrimSpace(howToPlay),
		CreatedAt:   createdAt.UTC(),
	}
	if err := g.validate(); err != nil {
		return Game{}, err
	}
	return g, nil
}

func (g Game) validate() error {
	if g.ID <= 0 {
		return ErrInvalidID
	}
	if g.Slug == "" || !SlugRe.MatchString(g.Slug) {
		return ErrInvalidSlug
	}
	if g.Title == "" {
		return ErrInvalidTitle
	}
	if g.Price < 0 {
		return ErrInvalidPrice
	}
	switch g.Category {
	case CategoryCard, CategoryOnline:
	default:
		return ErrInvalidCategory
	}
	return nil
}

// Clone returns a copy that shares no slices with g.
func (g Game) Clone() Game {
	out := g
	if g.Images != nil {
		out.Images = append([]string(nil), g.Images...)
	}
	return out
}

func normalizeImages(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}
