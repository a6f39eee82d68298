package service

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/astwrks/assetwork-ai-web-sub001/pkg/models"
)

// knownEntity is one row of the built-in lexicon. Aliases are matched
// case-insensitively as whole words.
type knownEntity struct {
	Name    string
	Type    string
	Ticker  string
	Aliases []string
}

var entityLexicon = []knownEntity{
	{Name: "Apple", Type: models.EntityTypeCompany, Ticker: "AAPL", Aliases: []string{"Apple", "AAPL"}},
	{Name: "Microsoft", Type: models.EntityTypeCompany, Ticker: "MSFT", Aliases: []string{"Microsoft", "MSFT"}},
	{Name: "Alphabet", Type: models.EntityTypeCompany, Ticker: "GOOGL", Aliases: []string{"Alphabet", "Google", "GOOGL", "GOOG"}},
	{Name: "Amazon", Type: models.EntityTypeCompany, Ticker: "AMZN", Aliases: []string{"Amazon", "AMZN"}},
	{Name: "Meta", Type: models.EntityTypeCompany, Ticker: "META", Aliases: []string{"Meta", "Facebook", "META"}},
	{Name: "Nvidia", Type: models.EntityTypeCompany, Ticker: "NVDA", Aliases: []string{"Nvidia", "NVIDIA", "NVDA"}},
	{Name: "Tesla", Type: models.EntityTypeCompany, Ticker: "TSLA", Aliases: []string{"Tesla", "TSLA"}},
	{Name: "Netflix", Type: models.EntityTypeCompany, Ticker: "NFLX", Aliases: []string{"Netflix", "NFLX"}},
	{Name: "JPMorgan", Type: models.EntityTypeCompany, Ticker: "JPM", Aliases: []string{"JPMorgan", "JP Morgan", "JPM"}},
	{Name: "Goldman Sachs", Type: models.EntityTypeCompany, Ticker: "GS", Aliases: []string{"Goldman Sachs", "Goldman"}},
	{Name: "Berkshire Hathaway", Type: models.EntityTypeCompany, Ticker: "BRK.B", Aliases: []string{"Berkshire Hathaway", "Berkshire"}},
	{Name: "Bitcoin", Type: models.EntityTypeCrypto, Ticker: "BTC", Aliases: []string{"Bitcoin", "BTC"}},
	{Name: "Ethereum", Type: models.EntityTypeCrypto, Ticker: "ETH", Aliases: []string{"Ethereum", "ETH"}},
	{Name: "Solana", Type: models.EntityTypeCrypto, Ticker: "SOL", Aliases: []string{"Solana"}},
	{Name: "Gold", Type: models.EntityTypeCommodity, Ticker: "XAU", Aliases: []string{"Gold"}},
	{Name: "Silver", Type: models.EntityTypeCommodity, Ticker: "XAG", Aliases: []string{"Silver"}},
	{Name: "Crude Oil", Type: models.EntityTypeCommodity, Ticker: "WTI", Aliases: []string{"Crude Oil", "WTI", "Brent"}},
	{Name: "S&P 500", Type: models.EntityTypeIndex, Ticker: "SPX", Aliases: []string{"S&P 500", "S&P500", "SPX"}},
	{Name: "Nasdaq", Type: models.EntityTypeIndex, Ticker: "IXIC", Aliases: []string{"Nasdaq"}},
	{Name: "Dow Jones", Type: models.EntityTypeIndex, Ticker: "DJI", Aliases: []string{"Dow Jones", "Dow"}},
}

// $TSLA style cashtags. Matched tickers outside the lexicon become
// company entities named after the ticker.
var cashtagPattern = regexp.MustCompile(`\$([A-Z]{1,5})\b`)

var positiveWords = []string{
	"gain", "gains", "growth", "surge", "surged", "rally", "record",
	"beat", "beats", "strong", "bullish", "upgrade", "upgraded",
	"outperform", "profit", "profitable", "upside", "momentum",
}

var negativeWords = []string{
	"loss", "losses", "decline", "declined", "drop", "dropped", "fall",
	"fell", "weak", "bearish", "downgrade", "downgraded", "miss",
	"missed", "risk", "risks", "underperform", "selloff", "headwind",
}

// Polarity words match as whole words only, so "gain" does not count
// inside "against" and "fell" does not count inside "fellow".
var (
	positivePattern = wordListPattern(positiveWords)
	negativePattern = wordListPattern(negativeWords)
)

func wordListPattern(words []string) *regexp.Regexp {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

// ExtractedMention is one entity found in report content, before it is
// persisted.
type ExtractedMention struct {
	Entity    models.Entity
	Count     int
	Sentiment float64
	Relevance float64
}

// EntityService extracts financial entity mentions from report content
// and persists them alongside the report.
type EntityService struct {
	aliasPatterns map[string]*regexp.Regexp // canonical name -> whole-word alias pattern
}

func NewEntityService() *EntityService {
	patterns := make(map[string]*regexp.Regexp, len(entityLexicon))
	for _, e := range entityLexicon {
		quoted := make([]string, len(e.Aliases))
		for i, a := range e.Aliases {
			quoted[i] = regexp.QuoteMeta(a)
		}
		patterns[e.Name] = regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
	}
	return &EntityService{aliasPatterns: patterns}
}

// Extract scans content for known entities and cashtags, scoring each
// mention's sentiment from surrounding sentences and relevance by its
// share of total mentions.
func (s *EntityService) Extract(content string) []ExtractedMention {
	if strings.TrimSpace(content) == "" {
		return nil
	}

	counts := map[string]int{}
	found := map[string]models.Entity{}

	for _, e := range entityLexicon {
		n := len(s.aliasPatterns[e.Name].FindAllStringIndex(content, -1))
		if n == 0 {
			continue
		}
		counts[e.Name] = n
		found[e.Name] = models.Entity{Name: e.Name, Type: e.Type, Ticker: e.Ticker}
	}

	for _, m := range cashtagPattern.FindAllStringSubmatch(content, -1) {
		ticker := m[1]
		if name, ok := lexiconNameByTicker(ticker); ok {
			if _, seen := counts[name]; seen {
				continue // already counted via alias match
			}
			counts[name]++
			e := lexiconByName(name)
			found[name] = models.Entity{Name: e.Name, Type: e.Type, Ticker: e.Ticker}
			continue
		}
		counts[ticker]++
		found[ticker] = models.Entity{Name: ticker, Type: models.EntityTypeCompany, Ticker: ticker}
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	if total == 0 {
		return nil
	}

	sentences := splitSentences(content)

	var mentions []ExtractedMention
	for name, entity := range found {
		mentions = append(mentions, ExtractedMention{
			Entity:    entity,
			Count:     counts[name],
			Sentiment: s.sentimentFor(entity, sentences),
			Relevance: float64(counts[name]) / float64(total),
		})
	}
	return mentions
}

// Persist writes mentions for a report inside the caller's transaction.
// Entities are deduplicated globally on (name, type).
func (s *EntityService) Persist(tx *gorm.DB, reportID string, mentions []ExtractedMention) error {
	for _, m := range mentions {
		entity := models.Entity{
			ID:     uuid.New().String(),
			Name:   m.Entity.Name,
			Type:   m.Entity.Type,
			Ticker: m.Entity.Ticker,
		}
		err := tx.Where("name = ? AND type = ?", entity.Name, entity.Type).
			FirstOrCreate(&entity).Error
		if err != nil {
			return errors.Wrapf(err, "failed to upsert entity %s", entity.Name)
		}

		mention := models.EntityMention{
			ID:        uuid.New().String(),
			ReportID:  reportID,
			EntityID:  entity.ID,
			Sentiment: m.Sentiment,
			Relevance: m.Relevance,
			Count:     m.Count,
		}
		if err := tx.Create(&mention).Error; err != nil {
			return errors.Wrapf(err, "failed to create mention for %s", entity.Name)
		}
	}
	return nil
}

// sentimentFor averages keyword polarity over the sentences that
// mention the entity. No polarity words means neutral.
func (s *EntityService) sentimentFor(entity models.Entity, sentences []string) float64 {
	pattern, ok := s.aliasPatterns[entity.Name]
	if !ok {
		pattern = regexp.MustCompile(`\b` + regexp.QuoteMeta(entity.Ticker) + `\b`)
	}

	var score float64
	var hits int
	for _, sentence := range sentences {
		if !pattern.MatchString(sentence) {
			continue
		}
		pos := len(positivePattern.FindAllStringIndex(sentence, -1))
		neg := len(negativePattern.FindAllStringIndex(sentence, -1))
		if pos+neg == 0 {
			continue
		}
		score += float64(pos-neg) / float64(pos+neg)
		hits++
	}
	if hits == 0 {
		return 0
	}
	return score / float64(hits)
}

func splitSentences(content string) []string {
	return strings.FieldsFunc(content, func(r rune) bool {
		return r == '.' || r == '!' || r == '?' || r == '\n'
	})
}

func lexiconNameByTicker(ticker string) (string, bool) {
	for _, e := range entityLexicon {
		if e.Ticker == ticker {
			return e.Name, true
		}
	}
	return "", false
}

func lexiconByName(name string) knownEntity {
	for _, e := range entityLexicon {
		if e.Name == name {
			return e
		}
	}
	return knownEntity{}
}
