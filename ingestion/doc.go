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


// Package ingestion coordinates the classify-and-store path between the feed
// pollers and the repositories.
//
// For every candidate the coordinator first consults the indicator store:
// when a stored indicator is nearly identical (similarity above 0.9) its
// classification is reused, otherwise the classifier is called with the
// neighbors as context. The verdict is upserted, phishing and malware
// indicators gain an ATT&CK technique mapping, and every batch leaves a
// feed_processing analysis record behind.
package ingestion
