/*
Copyright © 2025 Seednode <seednode@seedno.de>
*/

package main

import (
	"math/rand"
)

// Static card catalogs. Attribute values are drawn with replacement
// across players (two survivors may share a profession); the bunker
// deck is shuffled once per room and never reshuffled.

var professionCatalog = []string{
	"Surgeon",
	"Electrician",
	"Farmer",
	"Teacher",
	"Soldier",
	"Chemist",
	"Carpenter",
	"Nurse",
	"Mechanic",
	"Chef",
	"Firefighter",
	"Botanist",
	"Programmer",
	"Psychologist",
	"Plumber",
	"Veterinarian",
	"Librarian",
	"Fisherman",
	"Tailor",
	"Geologist",
	"Radio operator",
	"Beekeeper",
	"Locksmith",
	"Paramedic",
}

var biologyCatalog = []string{
	"Male, 18 years old",
	"Male, 25 years old",
	"Male, 34 years old",
	"Male, 42 years old",
	"Male, 57 years old",
	"Male, 68 years old",
	"Female, 19 years old",
	"Female, 23 years old",
	"Female, 31 years old",
	"Female, 45 years old",
	"Female, 59 years old",
	"Female, 72 years old",
	"Nonbinary, 27 years old",
	"Nonbinary, 38 years old",
}

var healthCatalog = []string{
	"Perfectly healthy",
	"Asthma",
	"Nearsighted",
	"Diabetes",
	"Heart condition",
	"Broken arm, healing",
	"Chronic migraines",
	"Color blindness",
	"Hearing loss in one ear",
	"Severe pollen allergy",
	"Insomnia",
	"High blood pressure",
	"Fully vaccinated, excellent immunity",
	"Old knee injury",
}

var hobbyCatalog = []string{
	"Gardening",
	"Amateur radio",
	"Chess",
	"Hunting",
	"Knitting",
	"Rock climbing",
	"Home brewing",
	"First aid courses",
	"Origami",
	"Marathon running",
	"Astronomy",
	"Woodworking",
	"Foraging",
	"Board game design",
	"Lock picking",
	"Pottery",
}

var baggageCatalog = []string{
	"Box of canned food",
	"Toolbox",
	"Medical kit",
	"Hunting rifle, no ammo",
	"Water filter",
	"Seed bank",
	"Guitar",
	"Crate of vodka",
	"Solar charger",
	"Encyclopedia set",
	"Gas masks, two",
	"Sewing machine",
	"Bag of fertilizer",
	"Shortwave radio",
	"Cat in a carrier",
	"Chessboard, one rook missing",
}

var factCatalog = []string{
	"Speaks four languages",
	"Former scout leader",
	"Afraid of the dark",
	"Won a survival show",
	"Sleepwalks",
	"Can identify edible mushrooms",
	"Never learned to swim",
	"Donated a kidney",
	"Grew up on a farm",
	"Has a photographic memory",
	"Vegetarian",
	"Snores loudly",
	"Ex-convict, petty theft",
	"Certified scuba diver",
	"Claustrophobic",
	"Keeps a detailed diary",
}

var bunkerCatalog = []string{
	"The bunker has a working greenhouse",
	"Half the food stores are spoiled",
	"The water purifier needs weekly repairs",
	"There is a locked room nobody has opened",
	"The generator runs on diesel, 200 liters left",
	"The air filtration fails above 8 occupants",
	"A medical bay with basic surgical tools",
	"The radio picks up a looping distress signal",
	"Rats have been seen in the grain store",
	"The armory holds one flare gun",
	"A library of practical manuals",
	"The exit hatch is rusted shut",
	"Two bunks are waterlogged and unusable",
	"A mushroom farm in the lower level",
	"The previous occupants left in a hurry",
}

// attributeKinds lists the six per-player categories in deal order.
var attributeKinds = [...]CardKind{
	CardProfession,
	CardBiology,
	CardHealth,
	CardHobby,
	CardBaggage,
	CardFact,
}

func catalogFor(kind CardKind) []string {
	switch kind {
	case CardProfession:
		return professionCatalog
	case CardBiology:
		return biologyCatalog
	case CardHealth:
		return healthCatalog
	case CardHobby:
		return hobbyCatalog
	case CardBaggage:
		return baggageCatalog
	case CardFact:
		return factCatalog
	case CardBunker:
		return bunkerCatalog
	}
	return nil
}

// dealAll assigns one card per attribute category to every player,
// drawn uniformly at random with replacement across players. Runs
// exactly once per game, at start.
func dealAll(players []*Player, rng *rand.Rand) {
	for _, p := range players {
		cards := make([]Card, 0, len(attributeKinds))
		for _, kind := range attributeKinds {
			catalog := catalogFor(kind)
			cards = append(cards, Card{
				Kind:  kind,
				Value: catalog[rng.Intn(len(catalog))],
			})
		}
		p.Cards = cards
	}
}

// newBunkerDeck returns a freshly shuffled copy of the bunker
// requirement catalog. Reveal order is this order for the life of the
// room.
func newBunkerDeck(rng *rand.Rand) []string {
	deck := make([]string, len(bunkerCatalog))
	copy(deck, bunkerCatalog)

	for i := len(deck) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		deck[i], deck[j] = deck[j], deck[i]
	}

	return deck
}
