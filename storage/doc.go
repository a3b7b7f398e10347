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


// Package storage provides the storage abstraction layer for threatbase.
//
// This package defines repository interfaces that decouple storage
// implementation from business logic, one per persisted entity:
//
//   - IndicatorRepository: indicator records (natural-key upsert, similarity
//     scan, substring fallback, aggregate statistics)
//   - TechniqueRepository: append-only technique mappings
//   - AnalysisRepository: append-only analysis history
//   - PatternRepository: derived knowledge patterns
//   - FeedRepository: feed descriptor persistence
//
// Public constructors in implementation packages (storage/badger) return
// these interfaces to enforce abstraction and keep alternative backends
// swappable.
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support concurrent
// access from multiple goroutines. The indicator repository additionally
// guarantees that concurrent upserts of the same natural key serialize, so
// a TimesSeen increment is never lost.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation and
// timeout support.
package storage
