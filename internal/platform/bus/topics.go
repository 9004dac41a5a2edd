package bus

import (
	"fmt"
	"strings"

	"github.com/tollhub/pipeline/internal/model"
)

// Topic names from spec.md §4.2/§6. NATS subjects encode the partition key
// as trailing tokens so that a single durable pull consumer sees one
// subject-token's messages strictly in publish order, the JetStream
// equivalent of a partitioned log's per-partition FIFO guarantee.
const (
	TopicRaw              = "toll.events.raw"
	TopicNormalized       = "toll.events.normalized"
	TopicMatched          = "toll.events.matched"
	TopicRated            = "toll.events.rated"
	TopicDisputed         = "toll.events.disputed"
	TopicStatementsGenerate = "statements.generate"
	TopicStatementsClosed   = "statements.closed"
	TopicConnectorHealth    = "connector.health"
	TopicDeadLetter         = "dead-letter-queue"
	TopicVehicleUpdated     = "vehicle.updated"

	// SubjectAllRaw / SubjectAllNormalized / SubjectAllMatched are wildcard
	// filters a durable consumer binds to in order to receive every
	// partition of a topic (JetStream fans competing consumers across
	// subject tokens automatically, the way a consumer group rebalances
	// across Kafka partitions).
	SubjectAllRaw        = TopicRaw + ".>"
	SubjectAllNormalized = TopicNormalized + ".>"
	SubjectAllMatched    = TopicMatched + ".>"
	SubjectAllRated      = TopicRated + ".>"
)

// canonToken strips characters NATS treats as subject-token separators so a
// plate or agency ID can be safely embedded in a subject.
func canonToken(s string) string {
	s = strings.ReplaceAll(s, ".", "_")
	s = strings.ReplaceAll(s, " ", "_")
	if s == "" {
		return "_"
	}
	return s
}

// RawSubject returns the raw-topic subject partitioned by agency_id.
func RawSubject(agencyID model.AgencyID) string {
	return fmt.Sprintf("%s.%s", TopicRaw, canonToken(string(agencyID)))
}

// NormalizedSubject returns the normalized-topic subject partitioned by
// (agency_id, plate, plate_state) so that all events for one vehicle are
// processed by the Matcher in arrival order.
func NormalizedSubject(agencyID model.AgencyID, plate, plateState string) string {
	return fmt.Sprintf("%s.%s.%s.%s", TopicNormalized, canonToken(string(agencyID)), canonToken(plate), canonToken(plateState))
}

// MatchedSubject returns the matched-topic subject partitioned by user_id.
func MatchedSubject(userID string) string {
	return fmt.Sprintf("%s.%s", TopicMatched, canonToken(userID))
}

// RatedSubject returns the rated-topic subject partitioned by user_id, so a
// single Persister replica owns one user's posting order.
func RatedSubject(userID string) string {
	return fmt.Sprintf("%s.%s", TopicRated, canonToken(userID))
}

// StatementsGenerateSubject / StatementsClosedSubject are partitioned by
// user_id, matching the matched-topic scheme so a single aggregator replica
// owns one user's period-close lifecycle at a time.
func StatementsGenerateSubject(userID string) string {
	return fmt.Sprintf("%s.%s", TopicStatementsGenerate, canonToken(userID))
}

func StatementsClosedSubject(userID string) string {
	return fmt.Sprintf("%s.%s", TopicStatementsClosed, canonToken(userID))
}
