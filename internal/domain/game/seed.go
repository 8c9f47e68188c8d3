// internal/domain/game/seed.go
package game

import "time"

// DefaultPrice is the list price of every seeded title (minor units).
const DefaultPrice int64 = 1200

// DefaultCatalog returns the titles the storefront ships with, ids 1..n in order.
func DefaultCatalog(now time.Time) []Game {
	seeds := []struct {
		slug, title, description, image string
		images                          []string
		category                        Category
		howToPlay                       string
	}{
		{
			slug:        "crypto-charades",
			title:       "Crypto Charades",
			description: "How well do you REALLY know crypto lingo? Act out Bitcoin, DeFi, NFTs and more in this hilarious party game that'll have everyone guessing and laughing!",
			image:       "/images/crypto-charade-main.png",
			images:      []string{"/images/crypto-charade-2.jpg", "/images/crypto-charade-3.png"},
			category:    CategoryCard,
			howToPlay: "Two teams take turns. Each team's actor draws from a shuffled deck and acts out the card without speaking " +
				"while teammates guess before time runs out. Play continues until the deck is exhausted.",
		},
		{
			slug:        "blocks-and-hashes",
			title:       "Blocks and Hashes",
			description: "Master the fundamentals of blockchain technology with this strategic card game that teaches you about cryptographic hashing, mining, and consensus mechanisms.",
			image:       "/images/card3.png",
			images:      []string{"/images/card3.png"},
			category:    CategoryCard,
			howToPlay: "Guess the word on each card from its missing letters and block images. In the guessing game each player has " +
				"10 seconds per card; in the challenger's game opponents pick cards from your pile. Highest score wins.",
		},
		{
			slug:        "into-the-cryptoverse",
			title:       "Into the Cryptoverse",
			description: "Journey through the multiverse of cryptocurrency in this immersive card game experience that spans Bitcoin, Ethereum, and beyond.",
			image:       "/images/card4.png",
			images:      []string{"/images/card4.png"},
			category:    CategoryCard,
			howToPlay: "Collect cards representing cryptocurrencies and blockchain technologies, then trade and invest on market " +
				"events drawn from the event deck. The highest portfolio value at the end wins.",
		},
		{
			slug:        "web3-trivia-online",
			title:       "Web3 Trivia Online",
			description: "Play the ultimate Web3 trivia game online with friends from around the world. Test your knowledge and climb the leaderboards!",
			image:       "/images/card5.png",
			images:      []string{"/images/card5.png"},
			category:    CategoryOnline,
			howToPlay: "Join an online match and answer multiple-choice questions on blockchain, NFTs and DeFi within the time " +
				"limit to score points and climb the global ranks.",
		},
	}

	out := make([]Game, 0, len(seeds))
	for i, s := range seeds {
		g, err := New(
			i+1,
			s.slug, s.title, s.description,
			DefaultPrice,
			s.category,
			s.image, s.images,
			s.category == CategoryOnline,
			s.howToPlay,
			now,
		)
		if err != nil {
			// seed data is static; a failure here is a programming error
			panic(err)
		}
		out = append(out, g)
	}
	return out
}
