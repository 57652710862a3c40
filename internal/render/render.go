// Package render projects an analysis record onto the content of the
// results page. Render is pure: the same record always yields an equal View,
// whether it was just produced or replayed from history.
package render

import (
	"net/url"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/hpungsan/drape/internal/analysis"
)

// EmptyShoppingMessage is shown instead of an empty link list.
const EmptyShoppingMessage = "No shopping suggestions for this profile."

// DefaultSearchURL is used when Options.SearchURL is empty.
const DefaultSearchURL = "https://www.amazon.com/s"

// Options control link construction.
type Options struct {
	// SearchURL is the search-engine base; the term goes in the "k" parameter.
	SearchURL string

	// Genders are the configured selector values. They are stripped from
	// link labels along with the built-in vocabulary.
	Genders []string
}

// Chip is one colour to avoid.
type Chip struct {
	Label string `json:"label"`
}

// Swatch is one colour to wear. Tooltip carries the raw token.
type Swatch struct {
	Color   string `json:"color"`
	Tooltip string `json:"tooltip"`
}

// Link is one shopping search. Href searches for the full term; Label has
// the gender words stripped.
type Link struct {
	Href  string `json:"href"`
	Label string `json:"label"`
	Term  string `json:"term"`
}

// View is everything visible on the results page.
type View struct {
	RecordID      string   `json:"record_id"`
	SkinTone      string   `json:"skin_tone"`
	Gender        string   `json:"gender"`
	Date          string   `json:"date"`
	OutfitCasual  string   `json:"outfit_casual"`
	OutfitFormal  string   `json:"outfit_formal"`
	Avoid         []Chip   `json:"avoid"`
	Swatches      []Swatch `json:"swatches"`
	Links         []Link   `json:"links"`
	EmptyShopping string   `json:"empty_shopping,omitempty"`
	Preview       string   `json:"preview,omitempty"`
}

// Render builds the View for r. Lists are always non-nil so that a fresh
// render and a replay compare equal.
func Render(r analysis.Result, opts Options) View {
	v := View{
		RecordID:     r.ID,
		SkinTone:     r.SkinTone,
		Gender:       r.Gender,
		Date:         r.Date,
		OutfitCasual: r.Advice.OutfitCasual,
		OutfitFormal: r.Advice.OutfitFormal,
		Avoid:        make([]Chip, 0, len(r.Advice.ColorsToAvoid)),
		Swatches:     make([]Swatch, 0, len(r.Advice.ColorsToWear)),
		Links:        make([]Link, 0, len(r.Advice.ShoppingList)),
		Preview:      r.Preview,
	}

	for _, label := range r.Advice.ColorsToAvoid {
		v.Avoid = append(v.Avoid, Chip{Label: label})
	}
	for _, token := range r.Advice.ColorsToWear {
		v.Swatches = append(v.Swatches, Swatch{Color: token, Tooltip: token})
	}
	for _, term := range r.Advice.ShoppingList {
		if strings.TrimSpace(term) == "" {
			continue
		}
		v.Links = append(v.Links, ShoppingLink(term, opts))
	}
	if len(v.Links) == 0 {
		v.EmptyShopping = EmptyShoppingMessage
	}

	return v
}

// baseGenderWords is the attribute vocabulary stripped from every label.
var baseGenderWords = []string{"male", "female", "men", "women", "man", "woman"}

var genderPatterns sync.Map // key: joined word list → *regexp.Regexp

// genderPattern matches the base vocabulary and genders as whole words,
// case-insensitive, with an optional plural or possessive ("Mens", "Men's").
func genderPattern(genders []string) *regexp.Regexp {
	seen := make(map[string]bool)
	words := make([]string, 0, len(baseGenderWords)+len(genders))
	for _, w := range append(append([]string(nil), baseGenderWords...), genders...) {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" || seen[w] {
			continue
		}
		seen[w] = true
		words = append(words, regexp.QuoteMeta(w))
	}
	// Longest first so "women" wins over "men"
	sort.SliceStable(words, func(i, j int) bool { return len(words[i]) > len(words[j]) })
	key := strings.Join(words, "|")

	if re, ok := genderPatterns.Load(key); ok {
		return re.(*regexp.Regexp)
	}
	re := regexp.MustCompile(`(?i)\b(?:` + key + `)(?:'?s)?\b`)
	genderPatterns.Store(key, re)
	return re
}

var spaces = regexp.MustCompile(`\s+`)

// ShoppingLink builds the search link for term. The query keeps the whole
// term; the label drops gender words.
func ShoppingLink(term string, opts Options) Link {
	searchURL := opts.SearchURL
	if searchURL == "" {
		searchURL = DefaultSearchURL
	}
	sep := "?"
	if strings.Contains(searchURL, "?") {
		sep = "&"
	}
	return Link{
		Href:  searchURL + sep + "k=" + url.QueryEscape(term),
		Label: DisplayLabel(term, opts.Genders...),
		Term:  term,
	}
}

// DisplayLabel strips gender words (the built-in vocabulary plus genders)
// from a search term, collapses the remaining whitespace and trims it. If
// nothing is left, the trimmed term is returned unchanged.
func DisplayLabel(term string, genders ...string) string {
	label := genderPattern(genders).ReplaceAllString(term, " ")
	label = strings.TrimSpace(spaces.ReplaceAllString(label, " "))
	if label == "" {
		return strings.TrimSpace(term)
	}
	return label
}
