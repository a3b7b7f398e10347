// Copyright 2025 Corvusec
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package ai provides abstractions for the AI services used in Threatbase.
//
// The package defines interfaces for text embeddings and indicator
// classification. The core domain and the ingestion pipeline depend on these
// abstractions rather than on concrete implementations.
//
// # Implementation Packages
//
// Three implementation sub-packages are included:
//
//   - ai/openai: production implementation using OpenAI-compatible APIs
//   - ai/heuristic: rule-based classifier requiring no external service
//   - ai/mock: test doubles for unit testing without external dependencies
//
// Public constructors (openai.NewProvider, openai.NewEmbedder, etc.) return
// interface types to enforce abstraction. Test utility constructors
// (mock.NewMockEmbedder, mock.NewMockClassifier) return concrete types so
// tests can inject behavior and assert call counts.
//
// # Usage Example
//
//	config := ai.NewConfig(ai.WithHost("http://localhost:11434"))
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vector, err := provider.Embedder().EmbedText(ctx, "evil-bank.tk phishing high")
//	verdict, err := provider.Classifier().Classify(ctx, "evil-bank.tk", nil)
package ai
