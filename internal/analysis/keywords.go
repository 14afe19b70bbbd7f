package analysis

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode"
)

const (
	DefaultKeywordCount = 10
	DefaultMaxNGram     = 3
)

var (
	sentenceSplitter = regexp.MustCompile(`[.!?;\n]+`)
	tokenPattern     = regexp.MustCompile(`[\p{L}\p{N}][\p{L}\p{N}'’-]*`)
)

var stopwords = toSet(`a about above after again against all am an and any are as at be because been
before being below between both but by can could did do does doing down during each few for from
further had has have having he her here hers herself him himself his how i if in into is it its
itself just me more most my myself no nor not now of off on once only or other our ours ourselves
out over own same she should so some such than that the their theirs them themselves then there
these they this those through to too under until up very was we were what when where which while
who whom why will with would you your yours yourself yourselves also may might must shall upon`)

func toSet(words string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(words) {
		set[w] = struct{}{}
	}
	return set
}

// StatisticalExtractor scores candidate phrases from in-document features:
// casing, position, frequency, context spread and sentence spread.
// Lower scores are better.
type StatisticalExtractor struct {
	top      int
	maxNGram int
}

// NewKeywordExtractor returns an extractor keeping the top phrases of up to
// maxNGram words. Non-positive values select the defaults.
func NewKeywordExtractor(top, maxNGram int) *StatisticalExtractor {
	if top <= 0 {
		top = DefaultKeywordCount
	}
	if maxNGram <= 0 {
		maxNGram = DefaultMaxNGram
	}
	return &StatisticalExtractor{top: top, maxNGram: maxNGram}
}

type token struct {
	surface string
	key     string
}

type termStats struct {
	tf        float64
	tfUpper   float64
	tfAcronym float64
	sentences []int
	left      map[string]int
	right     map[string]int
	stopword  bool
}

func isStopword(key string) bool {
	if _, ok := stopwords[key]; ok {
		return true
	}
	if len([]rune(key)) < 2 {
		return true
	}
	for _, r := range key {
		if !unicode.IsDigit(r) && r != '-' {
			return false
		}
	}
	return true
}

func tokenize(text string) [][]token {
	var sentences [][]token
	for _, s := range sentenceSplitter.Split(text, -1) {
		var toks []token
		for _, w := range tokenPattern.FindAllString(s, -1) {
			toks = append(toks, token{surface: w, key: strings.ToLower(w)})
		}
		if len(toks) > 0 {
			sentences = append(sentences, toks)
		}
	}
	return sentences
}

func isAcronym(w string) bool {
	letters := 0
	for _, r := range w {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			letters++
		}
	}
	return letters > 1
}

func collectTerms(sentences [][]token) map[string]*termStats {
	terms := make(map[string]*termStats)
	for si, toks := range sentences {
		for i, t := range toks {
			ts, ok := terms[t.key]
			if !ok {
				ts = &termStats{left: map[string]int{}, right: map[string]int{}, stopword: isStopword(t.key)}
				terms[t.key] = ts
			}
			ts.tf++
			if isAcronym(t.surface) {
				ts.tfAcronym++
			} else if i > 0 && unicode.IsUpper([]rune(t.surface)[0]) {
				ts.tfUpper++
			}
			if n := len(ts.sentences); n == 0 || ts.sentences[n-1] != si {
				ts.sentences = append(ts.sentences, si)
			}
			if i > 0 {
				ts.left[toks[i-1].key]++
			}
			if i+1 < len(toks) {
				ts.right[toks[i+1].key]++
			}
		}
	}
	return terms
}

func spread(neighbors map[string]int) float64 {
	total := 0
	for _, n := range neighbors {
		total += n
	}
	if total == 0 {
		return 0
	}
	return float64(len(neighbors)) / float64(total)
}

func median(values []int) float64 {
	n := len(values)
	if n%2 == 1 {
		return float64(values[n/2])
	}
	return float64(values[n/2-1]+values[n/2]) / 2
}

// scoreTerms computes the single word weights.
func scoreTerms(terms map[string]*termStats, sentenceCount int) map[string]float64 {
	var tfs []float64
	maxTF := 0.0
	for _, ts := range terms {
		if ts.stopword {
			continue
		}
		tfs = append(tfs, ts.tf)
		maxTF = math.Max(maxTF, ts.tf)
	}
	if len(tfs) == 0 {
		return nil
	}
	mean := 0.0
	for _, v := range tfs {
		mean += v
	}
	mean /= float64(len(tfs))
	variance := 0.0
	for _, v := range tfs {
		variance += (v - mean) * (v - mean)
	}
	std := math.Sqrt(variance / float64(len(tfs)))

	weights := make(map[string]float64, len(terms))
	for key, ts := range terms {
		if ts.stopword {
			continue
		}
		casing := math.Max(ts.tfUpper, ts.tfAcronym) / (1 + math.Log(ts.tf))
		position := math.Log(math.Log(3 + median(ts.sentences)))
		frequency := ts.tf / (mean + std)
		relatedness := 1 + (spread(ts.left)+spread(ts.right))*ts.tf/maxTF
		different := float64(len(ts.sentences)) / float64(sentenceCount)
		weights[key] = relatedness * position / (casing + frequency/relatedness + different/relatedness)
	}
	return weights
}

type candidate struct {
	surface string
	keys    []string
	tf      float64
}

// ExtractKeywords returns the top key phrases ordered by ascending score,
// each score rounded to three decimals.
func (e *StatisticalExtractor) ExtractKeywords(ctx context.Context, text string) ([]Keyword, error) {
	if err := requireText(text, "Please enter some text to analyze."); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sentences := tokenize(text)
	terms := collectTerms(sentences)
	weights := scoreTerms(terms, len(sentences))
	if len(weights) == 0 {
		return []Keyword{}, nil
	}

	candidates := make(map[string]*candidate)
	var order []string
	for _, toks := range sentences {
		for i := range toks {
			for n := 1; n <= e.maxNGram && i+n <= len(toks); n++ {
				gram := toks[i : i+n]
				if terms[gram[0].key].stopword || terms[gram[n-1].key].stopword {
					continue
				}
				keys := make([]string, n)
				surfaces := make([]string, n)
				for j, t := range gram {
					keys[j] = t.key
					surfaces[j] = t.surface
				}
				id := strings.Join(keys, " ")
				c, ok := candidates[id]
				if !ok {
					c = &candidate{surface: strings.Join(surfaces, " "), keys: keys}
					candidates[id] = c
					order = append(order, id)
				}
				c.tf++
			}
		}
	}

	keywords := make([]Keyword, 0, len(order))
	for _, id := range order {
		c := candidates[id]
		product, sum := 1.0, 0.0
		for _, k := range c.keys {
			w, ok := weights[k]
			if !ok {
				continue
			}
			product *= w
			sum += w
		}
		keywords = append(keywords, Keyword{
			Phrase: c.surface,
			Score:  product / (c.tf * (1 + sum)),
		})
	}

	sort.SliceStable(keywords, func(i, j int) bool { return keywords[i].Score < keywords[j].Score })
	if len(keywords) > e.top {
		keywords = keywords[:e.top]
	}
	for i := range keywords {
		keywords[i].Score = math.Round(keywords[i].Score*1000) / 1000
	}
	return keywords, nil
}
