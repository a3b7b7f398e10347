package core

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// Hand-written MUS serializers for the persisted entities. Timestamps are
// stored as Unix microseconds; vectors and maps carry a varint length prefix.

// IDMUS serializes core.ID values.
var IDMUS = idMUS{}

type idMUS struct{}

func (s idMUS) Marshal(v ID, bs []byte) int {
	return varint.Uint64.Marshal(uint64(v), bs)
}

func (s idMUS) Unmarshal(bs []byte) (ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (s idMUS) Size(v ID) int {
	return varint.Uint64.Size(uint64(v))
}

// timeMUS serializes timestamps as Unix microseconds. The zero time maps to
// a sentinel so it round-trips exactly (FeedDescriptor.LastUpdated is zero
// until the first successful cycle).
const zeroTimeSentinel int64 = -1 << 62

type timeMUS struct{}

func (s timeMUS) Marshal(v time.Time, bs []byte) int {
	return varint.Int64.Marshal(s.micros(v), bs)
}

func (s timeMUS) Unmarshal(bs []byte) (time.Time, int, error) {
	micros, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return time.Time{}, n, err
	}
	if micros == zeroTimeSentinel {
		return time.Time{}, n, nil
	}
	return time.UnixMicro(micros).UTC(), n, nil
}

func (s timeMUS) Size(v time.Time) int {
	return varint.Int64.Size(s.micros(v))
}

func (s timeMUS) micros(v time.Time) int64 {
	if v.IsZero() {
		return zeroTimeSentinel
	}
	return v.UnixMicro()
}

var timeSer = timeMUS{}

// vectorMUS serializes embedding vectors.
type vectorMUS struct{}

func (s vectorMUS) Marshal(v []float32, bs []byte) (n int) {
	n = varint.PositiveInt.Marshal(len(v), bs)
	for _, f := range v {
		n += raw.Float32.Marshal(f, bs[n:])
	}
	return n
}

func (s vectorMUS) Unmarshal(bs []byte) (v []float32, n int, err error) {
	length, n, err := varint.PositiveInt.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	if length == 0 {
		return nil, n, nil
	}
	v = make([]float32, length)
	for i := 0; i < length; i++ {
		var n1 int
		v[i], n1, err = raw.Float32.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
	}
	return v, n, nil
}

func (s vectorMUS) Size(v []float32) (size int) {
	size = varint.PositiveInt.Size(len(v))
	for _, f := range v {
		size += raw.Float32.Size(f)
	}
	return size
}

var vectorSer = vectorMUS{}

// stringMapMUS serializes string-keyed metadata maps.
type stringMapMUS struct{}

func (s stringMapMUS) Marshal(v map[string]string, bs []byte) (n int) {
	n = varint.PositiveInt.Marshal(len(v), bs)
	for k, val := range v {
		n += ord.String.Marshal(k, bs[n:])
		n += ord.String.Marshal(val, bs[n:])
	}
	return n
}

func (s stringMapMUS) Unmarshal(bs []byte) (v map[string]string, n int, err error) {
	length, n, err := varint.PositiveInt.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	if length == 0 {
		return nil, n, nil
	}
	v = make(map[string]string, length)
	for i := 0; i < length; i++ {
		var (
			k, val string
			n1     int
		)
		k, n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
		val, n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
		v[k] = val
	}
	return v, n, nil
}

func (s stringMapMUS) Size(v map[string]string) (size int) {
	size = varint.PositiveInt.Size(len(v))
	for k, val := range v {
		size += ord.String.Size(k)
		size += ord.String.Size(val)
	}
	return size
}

var stringMapSer = stringMapMUS{}

// IndicatorRecordMUS serializes IndicatorRecord values.
var IndicatorRecordMUS = indicatorRecordMUS{}

type indicatorRecordMUS struct{}

func (s indicatorRecordMUS) Marshal(v IndicatorRecord, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += ord.String.Marshal(v.Indicator, bs[n:])
	n += varint.Int.Marshal(int(v.IndicatorType), bs[n:])
	n += varint.Int.Marshal(int(v.RiskLevel), bs[n:])
	n += ord.String.Marshal(v.Category, bs[n:])
	n += raw.Float64.Marshal(v.Confidence, bs[n:])
	n += ord.String.Marshal(v.Source, bs[n:])
	n += timeSer.Marshal(v.FirstSeen, bs[n:])
	n += timeSer.Marshal(v.LastSeen, bs[n:])
	n += varint.Int64.Marshal(v.TimesSeen, bs[n:])
	n += stringMapSer.Marshal(v.Metadata, bs[n:])
	n += vectorSer.Marshal(v.Embedding, bs[n:])
	return n
}

func (s indicatorRecordMUS) Unmarshal(bs []byte) (v IndicatorRecord, n int, err error) {
	var n1 int
	if v.Id, n1, err = IDMUS.Unmarshal(bs); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Indicator, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	var it int
	if it, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	v.IndicatorType = IndicatorType(it)
	n += n1
	var rl int
	if rl, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	v.RiskLevel = RiskLevel(rl)
	n += n1
	if v.Category, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Confidence, n1, err = raw.Float64.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Source, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.FirstSeen, n1, err = timeSer.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.LastSeen, n1, err = timeSer.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.TimesSeen, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Metadata, n1, err = stringMapSer.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Embedding, n1, err = vectorSer.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	return v, n, nil
}

func (s indicatorRecordMUS) Size(v IndicatorRecord) (size int) {
	size = IDMUS.Size(v.Id)
	size += ord.String.Size(v.Indicator)
	size += varint.Int.Size(int(v.IndicatorType))
	size += varint.Int.Size(int(v.RiskLevel))
	size += ord.String.Size(v.Category)
	size += raw.Float64.Size(v.Confidence)
	size += ord.String.Size(v.Source)
	size += timeSer.Size(v.FirstSeen)
	size += timeSer.Size(v.LastSeen)
	size += varint.Int64.Size(v.TimesSeen)
	size += stringMapSer.Size(v.Metadata)
	size += vectorSer.Size(v.Embedding)
	return size
}

// TechniqueMappingMUS serializes TechniqueMapping values.
var TechniqueMappingMUS = techniqueMappingMUS{}

type techniqueMappingMUS struct{}

func (s techniqueMappingMUS) Marshal(v TechniqueMapping, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += IDMUS.Marshal(v.IndicatorId, bs[n:])
	n += ord.String.Marshal(v.TechniqueId, bs[n:])
	n += ord.String.Marshal(v.TechniqueName, bs[n:])
	n += ord.String.Marshal(v.TechniqueDescription, bs[n:])
	n += raw.Float64.Marshal(v.Confidence, bs[n:])
	n += timeSer.Marshal(v.CreatedAt, bs[n:])
	return n
}

func (s techniqueMappingMUS) Unmarshal(bs []byte) (v TechniqueMapping, n int, err error) {
	var n1 int
	if v.Id, n1, err = IDMUS.Unmarshal(bs); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.IndicatorId, n1, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.TechniqueId, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.TechniqueName, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.TechniqueDescription, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Confidence, n1, err = raw.Float64.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.CreatedAt, n1, err = timeSer.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	return v, n, nil
}

func (s techniqueMappingMUS) Size(v TechniqueMapping) (size int) {
	size = IDMUS.Size(v.Id)
	size += IDMUS.Size(v.IndicatorId)
	size += ord.String.Size(v.TechniqueId)
	size += ord.String.Size(v.TechniqueName)
	size += ord.String.Size(v.TechniqueDescription)
	size += raw.Float64.Size(v.Confidence)
	size += timeSer.Size(v.CreatedAt)
	return size
}

// AnalysisRecordMUS serializes AnalysisRecord values.
var AnalysisRecordMUS = analysisRecordMUS{}

type analysisRecordMUS struct{}

func (s analysisRecordMUS) Marshal(v AnalysisRecord, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += ord.String.Marshal(v.SessionId, bs[n:])
	n += ord.String.Marshal(v.Scope, bs[n:])
	n += ord.String.Marshal(v.AnalysisType, bs[n:])
	n += ord.String.Marshal(v.InputPayload, bs[n:])
	n += ord.String.Marshal(v.OutputPayload, bs[n:])
	n += raw.Float64.Marshal(v.Confidence, bs[n:])
	n += varint.Int64.Marshal(int64(v.Duration), bs[n:])
	n += timeSer.Marshal(v.CreatedAt, bs[n:])
	n += vectorSer.Marshal(v.Embedding, bs[n:])
	return n
}

func (s analysisRecordMUS) Unmarshal(bs []byte) (v AnalysisRecord, n int, err error) {
	var n1 int
	if v.Id, n1, err = IDMUS.Unmarshal(bs); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.SessionId, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Scope, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.AnalysisType, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.InputPayload, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.OutputPayload, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Confidence, n1, err = raw.Float64.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	var dur int64
	if dur, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	v.Duration = time.Duration(dur)
	n += n1
	if v.CreatedAt, n1, err = timeSer.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Embedding, n1, err = vectorSer.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	return v, n, nil
}

func (s analysisRecordMUS) Size(v AnalysisRecord) (size int) {
	size = IDMUS.Size(v.Id)
	size += ord.String.Size(v.SessionId)
	size += ord.String.Size(v.Scope)
	size += ord.String.Size(v.AnalysisType)
	size += ord.String.Size(v.InputPayload)
	size += ord.String.Size(v.OutputPayload)
	size += raw.Float64.Size(v.Confidence)
	size += varint.Int64.Size(int64(v.Duration))
	size += timeSer.Size(v.CreatedAt)
	size += vectorSer.Size(v.Embedding)
	return size
}

// KnowledgePatternMUS serializes KnowledgePattern values.
var KnowledgePatternMUS = knowledgePatternMUS{}

type knowledgePatternMUS struct{}

func (s knowledgePatternMUS) Marshal(v KnowledgePattern, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += ord.String.Marshal(v.PatternType, bs[n:])
	n += ord.String.Marshal(v.PatternText, bs[n:])
	n += ord.String.Marshal(v.PatternRules, bs[n:])
	n += raw.Float64.Marshal(v.EffectivenessScore, bs[n:])
	n += varint.Int64.Marshal(v.UsageCount, bs[n:])
	n += timeSer.Marshal(v.CreatedAt, bs[n:])
	n += timeSer.Marshal(v.UpdatedAt, bs[n:])
	return n
}

func (s knowledgePatternMUS) Unmarshal(bs []byte) (v KnowledgePattern, n int, err error) {
	var n1 int
	if v.Id, n1, err = IDMUS.Unmarshal(bs); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.PatternType, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.PatternText, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.PatternRules, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.EffectivenessScore, n1, err = raw.Float64.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.UsageCount, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.CreatedAt, n1, err = timeSer.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.UpdatedAt, n1, err = timeSer.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	return v, n, nil
}

func (s knowledgePatternMUS) Size(v KnowledgePattern) (size int) {
	size = IDMUS.Size(v.Id)
	size += ord.String.Size(v.PatternType)
	size += ord.String.Size(v.PatternText)
	size += ord.String.Size(v.PatternRules)
	size += raw.Float64.Size(v.EffectivenessScore)
	size += varint.Int64.Size(v.UsageCount)
	size += timeSer.Size(v.CreatedAt)
	size += timeSer.Size(v.UpdatedAt)
	return size
}

// FeedDescriptorMUS serializes FeedDescriptor values.
var FeedDescriptorMUS = feedDescriptorMUS{}

type feedDescriptorMUS struct{}

func (s feedDescriptorMUS) Marshal(v FeedDescriptor, bs []byte) (n int) {
	n = ord.String.Marshal(v.Name, bs)
	n += ord.String.Marshal(v.Endpoint, bs[n:])
	n += varint.Int.Marshal(int(v.Encoding), bs[n:])
	n += varint.Int64.Marshal(int64(v.PollInterval), bs[n:])
	n += timeSer.Marshal(v.LastUpdated, bs[n:])
	n += ord.Bool.Marshal(v.Active, bs[n:])
	n += stringMapSer.Marshal(v.AuthHeaders, bs[n:])
	return n
}

func (s feedDescriptorMUS) Unmarshal(bs []byte) (v FeedDescriptor, n int, err error) {
	var n1 int
	if v.Name, n1, err = ord.String.Unmarshal(bs); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Endpoint, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	var enc int
	if enc, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	v.Encoding = FeedEncoding(enc)
	n += n1
	var interval int64
	if interval, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	v.PollInterval = time.Duration(interval)
	n += n1
	if v.LastUpdated, n1, err = timeSer.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Active, n1, err = ord.Bool.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.AuthHeaders, n1, err = stringMapSer.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	return v, n, nil
}

func (s feedDescriptorMUS) Size(v FeedDescriptor) (size int) {
	size = ord.String.Size(v.Name)
	size += ord.String.Size(v.Endpoint)
	size += varint.Int.Size(int(v.Encoding))
	size += varint.Int64.Size(int64(v.PollInterval))
	size += timeSer.Size(v.LastUpdated)
	size += ord.Bool.Size(v.Active)
	size += stringMapSer.Size(v.AuthHeaders)
	return size
}
