package pool

import (
	"sort"

	"github.com/bolao-jogos/bolao/ick"
)

// SuggestPicks deals a random ticket of count distinct numbers in [1, max],
// sorted.  The client's "surpresinha" button.
func SuggestPicks(count, max int) []int {
	all := make([]int, max)
	for i := range all {
		all[i] = i + 1
	}
	picks := ick.NShuffle(all)[:count]
	sort.Ints(picks)
	return picks
}
