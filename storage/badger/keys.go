package badger

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/corvusec/threatbase/core"
)

// Key prefixes for the four logical tables plus the feed descriptor table.
const (
	indicatorPrefix     = "indrec"
	indicatorSeenPrefix = "indrecs" // LastSeen index
	mappingPrefix       = "ttprec"
	mappingIndPrefix    = "ttpreci" // by-indicator index
	mappingDatePrefix   = "ttprecd" // CreatedAt index
	mappingIDSeq        = "ttprecseq"
	analysisPrefix      = "anarec"
	analysisDatePrefix  = "anarecd" // CreatedAt index
	analysisIDSeq       = "anarecseq"
	patternPrefix       = "patrec"
	patternTypePrefix   = "patrect" // by-type index
	feedPrefix          = "feedrec"
)

// makeIndicatorKey generates a key for an indicator record by ID.
func makeIndicatorKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", indicatorPrefix, id))
}

// makeTimeIndexKey generates a composite key for a time-ordered index.
// Format: prefix:timestamp:id, written BigEndian so lexicographic sort
// matches chronological order.
func makeTimeIndexKey(prefix string, timestamp time.Time, id core.ID) []byte {
	prefixBytes := []byte(prefix + ":")
	buf := make([]byte, len(prefixBytes)+16) // 8 bytes timestamp + 8 bytes ID
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(timestamp.UnixMicro()))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makePartialTimeIndexKey generates a partial key for time range seeks.
func makePartialTimeIndexKey(prefix string, timestamp time.Time) []byte {
	prefixBytes := []byte(prefix + ":")
	buf := make([]byte, len(prefixBytes)+8)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(timestamp.UnixMicro()))
	return buf
}

// makeMappingKey generates a key for a technique mapping by ID.
func makeMappingKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", mappingPrefix, id))
}

// makeMappingIndicatorKey generates a composite key for the by-indicator
// index. Format: prefix:indicatorID:mappingID.
func makeMappingIndicatorKey(indicatorID, mappingID core.ID) []byte {
	prefixBytes := []byte(mappingIndPrefix + ":")
	buf := make([]byte, len(prefixBytes)+16)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(indicatorID))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(mappingID))
	return buf
}

// makePartialMappingIndicatorKey generates a partial key for by-indicator
// queries.
func makePartialMappingIndicatorKey(indicatorID core.ID) []byte {
	prefixBytes := []byte(mappingIndPrefix + ":")
	buf := make([]byte, len(prefixBytes)+8)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(indicatorID))
	return buf
}

// makeAnalysisKey generates a key for an analysis record by ID.
func makeAnalysisKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", analysisPrefix, id))
}

// makePatternKey generates a key for a knowledge pattern by ID.
func makePatternKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", patternPrefix, id))
}

// makePatternTypeKey generates a composite key for the by-type index.
// Format: prefix:type:id.
func makePatternTypeKey(patternType string, id core.ID) []byte {
	prefixBytes := []byte(patternTypePrefix + ":" + patternType + ":")
	buf := make([]byte, len(prefixBytes)+8)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeFeedKey generates a key for a feed descriptor by name.
func makeFeedKey(name string) []byte {
	return []byte(feedPrefix + ":" + name)
}
