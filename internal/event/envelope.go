package event

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// DomainEvent is the domain-separation prefix for content-addressed event IDs.
// The version suffix enables future algorithm migration.
const DomainEvent = "caseintake/event/v1"

// ErrUnknownKind is returned when encoding an event whose kind has no codec.
var ErrUnknownKind = errors.New("unknown event kind")

// Envelope is the stored form of an event.
type Envelope struct {
	ID      string          `json:"id"`
	CaseID  string          `json:"caseId"`
	Seq     int64           `json:"seq"`
	Kind    Kind            `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// ID computes the content-addressed identifier of an envelope.
// Format: SHA256(domain 0x00 caseID 0x00 seq 0x00 kind 0x00 payload)
func ID(caseID string, seq int64, kind Kind, payload []byte) string {
	h := sha256.New()
	h.Write([]byte(DomainEvent))
	h.Write([]byte{0x00})
	h.Write([]byte(caseID))
	h.Write([]byte{0x00})
	h.Write([]byte(strconv.FormatInt(seq, 10)))
	h.Write([]byte{0x00})
	h.Write([]byte(kind))
	h.Write([]byte{0x00})
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

// Encode wraps ev in an envelope at the given per-case sequence number.
func Encode(seq int64, ev Event) (Envelope, error) {
	var payload []byte
	if u, ok := ev.(Unknown); ok {
		payload = append([]byte(nil), u.Payload...)
	} else {
		if _, known := decoders[ev.Kind()]; !known {
			return Envelope{}, fmt.Errorf("encode %s: %w", ev.Kind(), ErrUnknownKind)
		}
		data, err := MarshalCanonical(ev)
		if err != nil {
			return Envelope{}, fmt.Errorf("encode %s: %w", ev.Kind(), err)
		}
		payload = data
	}

	return Envelope{
		ID:      ID(ev.AggregateID(), seq, ev.Kind(), payload),
		CaseID:  ev.AggregateID(),
		Seq:     seq,
		Kind:    ev.Kind(),
		Payload: payload,
	}, nil
}

// EncodeAll encodes events with consecutive sequence numbers starting after
// lastSeq.
func EncodeAll(lastSeq int64, events []Event) ([]Envelope, error) {
	envs := make([]Envelope, 0, len(events))
	for i, ev := range events {
		env, err := Encode(lastSeq+int64(i)+1, ev)
		if err != nil {
			return nil, err
		}
		envs = append(envs, env)
	}
	return envs, nil
}

// Decode reconstructs the event carried by env. Kinds unknown to this build
// decode to Unknown rather than failing.
func Decode(env Envelope) (Event, error) {
	dec, ok := decoders[env.Kind]
	if !ok {
		return Unknown{
			EventKind: env.Kind,
			CaseID:    env.CaseID,
			Payload:   append(json.RawMessage(nil), env.Payload...),
		}, nil
	}
	ev, err := dec(env.Payload)
	if err != nil {
		return nil, fmt.Errorf("decode %s seq=%d: %w", env.Kind, env.Seq, err)
	}
	return ev, nil
}

// DecodeAll decodes envelopes in order.
func DecodeAll(envs []Envelope) ([]Event, error) {
	events := make([]Event, 0, len(envs))
	for _, env := range envs {
		ev, err := Decode(env)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

var decoders = map[Kind]func([]byte) (Event, error){
	KindCaseReceived:                    decodeAs[CaseReceived],
	KindCaseReceivedWithWarnings:        decodeAs[CaseReceivedWithWarnings],
	KindCaseRejected:                    decodeAs[CaseRejected],
	KindReceivedWithDuplicateDefendants: decodeAs[ReceivedWithDuplicateDefendants],
	KindDefendantsAdded:                 decodeAs[DefendantsAdded],
	KindDefendantsReceivedNotAdded:      decodeAs[DefendantsReceivedNotAdded],
	KindDefendantValidationFailed:       decodeAs[DefendantValidationFailed],
	KindDefendantsParkedForApproval:     decodeAs[DefendantsParkedForApproval],
	KindSummonsRejected:                 decodeAs[SummonsRejected],
	KindCaseValidationCompleted:         decodeAs[CaseValidationCompleted],
	KindCaseResolved:                    decodeAs[CaseResolved],
	KindCaseAccepted:                    decodeAs[CaseAccepted],
	KindCaseAcceptedWithWarnings:        decodeAs[CaseAcceptedWithWarnings],
	KindMaterialPending:                 decodeAs[MaterialPending],
	KindMaterialAdded:                   decodeAs[MaterialAdded],
	KindMaterialAddedWithWarnings:       decodeAs[MaterialAddedWithWarnings],
	KindMaterialRejected:                decodeAs[MaterialRejected],
	KindDocumentReviewRequired:          decodeAs[DocumentReviewRequired],
	KindIDPCMatched:                     decodeAs[IDPCMatched],
	KindCaseDefendantChanged:            decodeAs[CaseDefendantChanged],
	KindCaseAssigned:                    decodeAs[CaseAssigned],
	KindCaseUnassigned:                  decodeAs[CaseUnassigned],
	KindCaseEjected:                     decodeAs[CaseEjected],
	KindCaseFiltered:                    decodeAs[CaseFiltered],
	KindCaseReferredToCourt:             decodeAs[CaseReferredToCourt],
}

func decodeAs[T Event](data []byte) (Event, error) {
	var ev T
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return ev, nil
}
