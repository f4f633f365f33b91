// Package openaicompat implements llm.Provider over the OpenAI Chat
// Completions protocol, so any compatible endpoint (OpenAI, DeepSeek, vLLM,
// Ollama, ...) can back compose, streaming and workflow.
//
// Usage:
//
//	p := openaicompat.New(openaicompat.Config{
//	    ProviderName:      "openai",
//	    APIKey:            cfg.APIKey,
//	    BaseURL:           "https://api.openai.com",
//	    DefaultModel:      "gpt-4o-mini",
//	    RequestsPerSecond: 2,
//	}, logger)
package openaicompat
