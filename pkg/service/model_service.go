package service

import (
	"context"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/deepseek"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/pkg/errors"

	"github.com/astwrks/assetwork-ai-web-sub001/pkg/config"
	"github.com/astwrks/assetwork-ai-web-sub001/pkg/models"
)

const defaultMaxTokens = 8192

// ModelService resolves allow-listed model IDs to chat model instances.
type ModelService struct {
	cfg *config.AppConfig
}

func NewModelService(cfg *config.AppConfig) *ModelService {
	return &ModelService{cfg: cfg}
}

// Allowed reports whether modelID appears in any configured provider's
// model list. Unknown models are rejected before a generation starts.
func (s *ModelService) Allowed(modelID string) bool {
	for _, p := range s.cfg.Providers {
		for _, m := range p.Models {
			if m == modelID {
				return true
			}
		}
	}
	return false
}

// List returns every allow-listed model with its provider name.
func (s *ModelService) List() []models.ModelInfo {
	var out []models.ModelInfo
	for _, p := range s.cfg.Providers {
		for _, m := range p.Models {
			out = append(out, models.ModelInfo{ID: m, Provider: p.Name})
		}
	}
	return out
}

// ChatModel creates a chat model instance for the given model ID.
func (s *ModelService) ChatModel(ctx context.Context, modelID string) (model.BaseChatModel, error) {
	provider := s.providerFor(modelID)
	if provider == nil {
		return nil, errors.Errorf("model not allowed: %s", modelID)
	}

	switch strings.ToLower(provider.Name) {
	case "openai", "custom":
		return openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL: provider.BaseURL,
			APIKey:  provider.APIKey,
			Model:   modelID,
		})
	case "anthropic", "claude":
		cfg := &claude.Config{
			APIKey:    provider.APIKey,
			Model:     modelID,
			MaxTokens: defaultMaxTokens,
		}
		if provider.BaseURL != "" {
			baseURL := provider.BaseURL
			cfg.BaseURL = &baseURL
		}
		return claude.NewChatModel(ctx, cfg)
	case "deepseek":
		return deepseek.NewChatModel(ctx, &deepseek.ChatModelConfig{
			APIKey:  provider.APIKey,
			Model:   modelID,
			BaseURL: provider.BaseURL,
		})
	default:
		return nil, errors.Errorf("unsupported provider: %s", provider.Name)
	}
}

func (s *ModelService) providerFor(modelID string) *config.ProviderConfig {
	for i := range s.cfg.Providers {
		for _, m := range s.cfg.Providers[i].Models {
			if m == modelID {
				return &s.cfg.Providers[i]
			}
		}
	}
	return nil
}
