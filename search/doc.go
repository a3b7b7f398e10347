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


// Package search provides similarity search over the indicator store.
//
// The Searcher ranks indicators by cosine similarity between the query
// embedding and stored embeddings. When no embedding service is configured,
// or embedding the query fails, it degrades to a case-insensitive substring
// scan over indicator values, categories and risk levels. Either way callers
// get ranked matches with a populated similarity field.
package search
