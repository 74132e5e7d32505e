package bingo

import (
	"fmt"
	"math/rand"
	"strings"

	"musicbingo/models"
)

// GenerateCard deals a 5x5 card from playlist: 24 distinct tracks drawn
// without replacement in random order, laid out row by row around the
// pre-marked free center. A nil rnd uses a time-seeded generator.
func GenerateCard(playlist []string, rnd *rand.Rand) (models.Card, error) {
	tracks, err := distinctTracks(playlist)
	if err != nil {
		return nil, err
	}
	if rnd == nil {
		rnd = createLocalRandGenerator()
	}

	// Fisher-Yates
	for i := len(tracks) - 1; i > 0; i-- {
		j := rnd.Intn(i + 1)
		tracks[i], tracks[j] = tracks[j], tracks[i]
	}

	card := make(models.Card, models.GridSize)
	next := 0
	for i := 0; i < models.GridSize; i++ {
		card[i] = make([]models.Cell, models.GridSize)
		for j := 0; j < models.GridSize; j++ {
			if i == models.CenterRow && j == models.CenterCol {
				card[i][j] = models.Cell{Track: models.FreeTrack, Marked: true}
				continue
			}
			card[i][j] = models.Cell{Track: tracks[next]}
			next++
		}
	}
	return card, nil
}

// ValidatePlaylist checks that a card can be dealt from playlist.
func ValidatePlaylist(playlist []string) error {
	_, err := distinctTracks(playlist)
	return err
}

// distinctTracks returns a fresh slice of the usable tracks of playlist in
// their original order. Blank entries and the free marker are skipped.
func distinctTracks(playlist []string) ([]string, error) {
	seen := make(map[string]bool, len(playlist))
	tracks := make([]string, 0, len(playlist))
	for _, track := range playlist {
		if strings.TrimSpace(track) == "" || track == models.FreeTrack || seen[track] {
			continue
		}
		seen[track] = true
		tracks = append(tracks, track)
	}
	if len(tracks) < models.CardTracks {
		return nil, fmt.Errorf("%w: got %d", ErrPlaylistTooShort, len(tracks))
	}
	return tracks, nil
}
