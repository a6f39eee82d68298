package service

import (
	"testing"

	"github.com/astwrks/assetwork-ai-web-sub001/pkg/models"
)

func mentionByName(mentions []ExtractedMention, name string) *ExtractedMention {
	for i := range mentions {
		if mentions[i].Entity.Name == name {
			return &mentions[i]
		}
	}
	return nil
}

func TestExtractKnownEntities(t *testing.T) {
	content := "Apple reported record gains this quarter. Bitcoin fell sharply " +
		"while Gold held steady. The S&P 500 closed flat."

	svc := NewEntityService()
	mentions := svc.Extract(content)

	wantTypes := map[string]string{
		"Apple":   models.EntityTypeCompany,
		"Bitcoin": models.EntityTypeCrypto,
		"Gold":    models.EntityTypeCommodity,
		"S&P 500": models.EntityTypeIndex,
	}
	for name, wantType := range wantTypes {
		m := mentionByName(mentions, name)
		if m == nil {
			t.Fatalf("entity %q not extracted", name)
		}
		if m.Entity.Type != wantType {
			t.Errorf("%s type = %q, want %q", name, m.Entity.Type, wantType)
		}
		if m.Relevance <= 0 || m.Relevance > 1 {
			t.Errorf("%s relevance = %f, want (0, 1]", name, m.Relevance)
		}
	}
}

func TestExtractCashtags(t *testing.T) {
	svc := NewEntityService()
	mentions := svc.Extract("Traders piled into $TSLA and the unknown small cap $XYZW today.")

	if m := mentionByName(mentions, "Tesla"); m == nil {
		t.Fatal("$TSLA did not resolve to Tesla")
	}
	m := mentionByName(mentions, "XYZW")
	if m == nil {
		t.Fatal("unknown cashtag not extracted")
	}
	if m.Entity.Ticker != "XYZW" || m.Entity.Type != models.EntityTypeCompany {
		t.Fatalf("unexpected cashtag entity: %+v", m.Entity)
	}
}

func TestExtractSentiment(t *testing.T) {
	svc := NewEntityService()

	positive := svc.Extract("Apple posted strong growth and record gains this quarter.")
	if m := mentionByName(positive, "Apple"); m == nil || m.Sentiment <= 0 {
		t.Fatalf("expected positive sentiment, got %+v", m)
	}

	negative := svc.Extract("Tesla shares dropped after a weak quarter and an analyst downgrade.")
	if m := mentionByName(negative, "Tesla"); m == nil || m.Sentiment >= 0 {
		t.Fatalf("expected negative sentiment, got %+v", m)
	}

	neutral := svc.Extract("Microsoft held its annual developer conference.")
	if m := mentionByName(neutral, "Microsoft"); m == nil || m.Sentiment != 0 {
		t.Fatalf("expected neutral sentiment, got %+v", m)
	}
}

func TestExtractSentimentMatchesWholeWordsOnly(t *testing.T) {
	svc := NewEntityService()

	// "against" embeds "gain" and "fellow" embeds "fell"; neither is a
	// polarity hit on its own.
	neutral := svc.Extract("Apple went against expectations.")
	if m := mentionByName(neutral, "Apple"); m == nil || m.Sentiment != 0 {
		t.Fatalf("expected neutral sentiment for embedded substring, got %+v", m)
	}
	neutral = svc.Extract("Microsoft promoted a fellow researcher.")
	if m := mentionByName(neutral, "Microsoft"); m == nil || m.Sentiment != 0 {
		t.Fatalf("expected neutral sentiment for embedded substring, got %+v", m)
	}

	// The bare words themselves still score.
	negative := svc.Extract("Tesla fell hard today.")
	if m := mentionByName(negative, "Tesla"); m == nil || m.Sentiment >= 0 {
		t.Fatalf("expected negative sentiment, got %+v", m)
	}
}

func TestExtractEmptyAndPlainContent(t *testing.T) {
	svc := NewEntityService()

	if got := svc.Extract(""); got != nil {
		t.Fatalf("Extract(\"\") = %v, want nil", got)
	}
	if got := svc.Extract("Nothing financial to see in this sentence."); got != nil {
		t.Fatalf("Extract(plain) = %v, want nil", got)
	}
}

func TestExtractRelevanceShares(t *testing.T) {
	svc := NewEntityService()
	mentions := svc.Extract("Apple Apple Apple. Tesla.")

	apple := mentionByName(mentions, "Apple")
	tesla := mentionByName(mentions, "Tesla")
	if apple == nil || tesla == nil {
		t.Fatal("expected both entities")
	}
	if apple.Count != 3 || tesla.Count != 1 {
		t.Fatalf("counts = %d, %d, want 3, 1", apple.Count, tesla.Count)
	}
	if apple.Relevance <= tesla.Relevance {
		t.Fatalf("apple relevance %f not above tesla %f", apple.Relevance, tesla.Relevance)
	}

	var sum float64
	for _, m := range mentions {
		sum += m.Relevance
	}
	if sum < 0.999 || sum > 1.001 {
		t.Fatalf("relevance sum = %f, want 1", sum)
	}
}
