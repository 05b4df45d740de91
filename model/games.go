package model

import "fmt"

var gameSpecs = map[GameType]*GameSpec{
	MegaSena: {
		GameType:         MegaSena,
		DisplayName:      "Mega-Sena",
		MaxNumber:        60,
		OfficialDrawSize: 6,
		DefaultPicks:     10,
		DrawCount:        3,
	},
	Lotofacil: {
		GameType:         Lotofacil,
		DisplayName:      "Lotofácil",
		MaxNumber:        25,
		OfficialDrawSize: 15,
		DefaultPicks:     18,
		DrawCount:        3,
	},
}

// GameSpecFor returns the official rules for a game type.
func GameSpecFor(gt GameType) (*GameSpec, error) {
	if spec, ok := gameSpecs[gt]; ok {
		return spec, nil
	}
	return nil, fmt.Errorf("unknown game type %q", gt)
}

// GameTypes lists the supported games in a stable order.
func GameTypes() []GameType {
	return []GameType{MegaSena, Lotofacil}
}
