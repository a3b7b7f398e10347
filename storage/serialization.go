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


package storage

import (
	"github.com/corvusec/threatbase/core"
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, core.IDMUS.Size(id))
	core.IDMUS.Marshal(id, buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	id, _, err := core.IDMUS.Unmarshal(data)
	return id, err
}

// MarshalIndicatorRecord serializes an IndicatorRecord to bytes.
func MarshalIndicatorRecord(record *core.IndicatorRecord) []byte {
	buf := make([]byte, core.IndicatorRecordMUS.Size(*record))
	core.IndicatorRecordMUS.Marshal(*record, buf)
	return buf
}

// UnmarshalIndicatorRecord deserializes an IndicatorRecord from bytes.
func UnmarshalIndicatorRecord(data []byte) (*core.IndicatorRecord, error) {
	record, _, err := core.IndicatorRecordMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// MarshalTechniqueMapping serializes a TechniqueMapping to bytes.
func MarshalTechniqueMapping(mapping *core.TechniqueMapping) []byte {
	buf := make([]byte, core.TechniqueMappingMUS.Size(*mapping))
	core.TechniqueMappingMUS.Marshal(*mapping, buf)
	return buf
}

// UnmarshalTechniqueMapping deserializes a TechniqueMapping from bytes.
func UnmarshalTechniqueMapping(data []byte) (*core.TechniqueMapping, error) {
	mapping, _, err := core.TechniqueMappingMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &mapping, nil
}

// MarshalAnalysisRecord serializes an AnalysisRecord to bytes.
func MarshalAnalysisRecord(record *core.AnalysisRecord) []byte {
	buf := make([]byte, core.AnalysisRecordMUS.Size(*record))
	core.AnalysisRecordMUS.Marshal(*record, buf)
	return buf
}

// UnmarshalAnalysisRecord deserializes an AnalysisRecord from bytes.
func UnmarshalAnalysisRecord(data []byte) (*core.AnalysisRecord, error) {
	record, _, err := core.AnalysisRecordMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// MarshalKnowledgePattern serializes a KnowledgePattern to bytes.
func MarshalKnowledgePattern(pattern *core.KnowledgePattern) []byte {
	buf := make([]byte, core.KnowledgePatternMUS.Size(*pattern))
	core.KnowledgePatternMUS.Marshal(*pattern, buf)
	return buf
}

// UnmarshalKnowledgePattern deserializes a KnowledgePattern from bytes.
func UnmarshalKnowledgePattern(data []byte) (*core.KnowledgePattern, error) {
	pattern, _, err := core.KnowledgePatternMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &pattern, nil
}

// MarshalFeedDescriptor serializes a FeedDescriptor to bytes.
func MarshalFeedDescriptor(feed *core.FeedDescriptor) []byte {
	buf := make([]byte, core.FeedDescriptorMUS.Size(*feed))
	core.FeedDescriptorMUS.Marshal(*feed, buf)
	return buf
}

// UnmarshalFeedDescriptor deserializes a FeedDescriptor from bytes.
func UnmarshalFeedDescriptor(data []byte) (*core.FeedDescriptor, error) {
	feed, _, err := core.FeedDescriptorMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &feed, nil
}
