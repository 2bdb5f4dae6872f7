package search

import (
	"strings"

	"github.com/viper373/videostation/internal/models"
)

// BestFileMatch locates the crawled video entry that most plausibly backs
// a catalog title. Matching degrades in three steps: normalized
// containment either way, then most keywords hit, then the first video in
// the list. Returns nil when the list has no video files.
func BestFileMatch(entries []models.Entry, title string) *models.Entry {
	var videos []models.Entry
	for _, e := range entries {
		if !e.IsDirectory && e.FileType == models.FileTypeVideo {
			videos = append(videos, e)
		}
	}
	if len(videos) == 0 || title == "" {
		return nil
	}

	want := normalizeTitle(title)

	for i := range videos {
		have := normalizeTitle(videos[i].Name)
		if have == "" {
			continue
		}
		if strings.Contains(have, want) || strings.Contains(want, have) {
			return &videos[i]
		}
	}

	// Keywords are title words longer than two runes.
	var keywords []string
	for _, w := range strings.Fields(want) {
		if len([]rune(w)) > 2 {
			keywords = append(keywords, w)
		}
	}
	if len(keywords) > 0 {
		bestCount := 0
		var best *models.Entry
		for i := range videos {
			have := normalizeTitle(videos[i].Name)
			count := 0
			for _, kw := range keywords {
				if strings.Contains(have, kw) {
					count++
				}
			}
			if count > bestCount {
				bestCount = count
				best = &videos[i]
			}
		}
		if best != nil {
			return best
		}
	}

	return &videos[0]
}

var titlePunctuation = strings.NewReplacer(
	".", "", ",", "", "/", "", "#", "", "!", "", "$", "", "%", "",
	"^", "", "&", "", "*", "", ";", "", ":", "", "{", "", "}", "",
	"=", "", "-", "", "_", "", "`", "", "~", "", "(", "", ")", "",
)

// normalizeTitle lowercases, strips punctuation, and collapses whitespace
// so filenames and catalog titles compare loosely.
func normalizeTitle(s string) string {
	s = titlePunctuation.Replace(strings.ToLower(s))
	return strings.Join(strings.Fields(s), " ")
}
