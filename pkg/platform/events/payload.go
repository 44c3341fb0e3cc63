package events

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/domain"
)

// payload is the JSON structure written to the outbox and published to
// Kafka. Amounts travel as decimal strings, addresses as 0x hex, blobs as
// base64. Field names are part of the consumer contract.
type payload struct {
	ID        string `json:"id"`
	Seq       uint64 `json:"seq"`
	Kind      string `json:"kind"`
	Timestamp string `json:"timestamp"`

	Actor  string `json:"actor,omitempty"`
	From   string `json:"from,omitempty"`
	To     string `json:"to,omitempty"`
	Target string `json:"target,omitempty"`

	Amount string `json:"amount,omitempty"`
	Old    string `json:"old,omitempty"`
	New    string `json:"new,omitempty"`

	Data         string `json:"data,omitempty"`
	OperatorData string `json:"operator_data,omitempty"`

	Role       string `json:"role,omitempty"`
	Expiration string `json:"expiration,omitempty"`
	Allowed    *bool  `json:"allowed,omitempty"`
	Index      *int   `json:"index,omitempty"`

	RequestID string `json:"request_id,omitempty"`
	Device    string `json:"device,omitempty"`
}

// Marshal encodes an event for the outbox / Kafka.
func Marshal(e Event) ([]byte, error) {
	p := payload{
		ID:        e.ID.String(),
		Seq:       e.Seq,
		Kind:      string(e.Kind),
		Timestamp: e.Timestamp.UTC().Format(time.RFC3339Nano),
		RequestID: e.RequestID,
		Device:    e.Device,
	}
	p.Actor = addr(e.Actor)
	p.From = addr(e.From)
	p.To = addr(e.To)
	p.Target = addr(e.Target)
	p.Amount = num(e.Amount)
	p.Old = num(e.Old)
	p.New = num(e.New)
	if len(e.Data) > 0 {
		p.Data = base64.StdEncoding.EncodeToString(e.Data)
	}
	if len(e.OperatorData) > 0 {
		p.OperatorData = base64.StdEncoding.EncodeToString(e.OperatorData)
	}
	if e.Role != domain.RoleNone {
		p.Role = e.Role.String()
	}
	if !e.Expiration.IsZero() {
		p.Expiration = e.Expiration.UTC().Format(time.RFC3339)
	}
	switch e.Kind {
	case KindCallerAllowed:
		allowed := e.Allowed
		p.Allowed = &allowed
	case KindPartialExecution:
		index := e.Index
		p.Index = &index
	}
	return json.Marshal(p)
}

// Unmarshal decodes an outbox / Kafka payload back into an Event. Used by
// consumers and integration tests.
func Unmarshal(raw []byte) (Event, error) {
	var p payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return Event{}, fmt.Errorf("decode event payload: %w", err)
	}

	e := Event{
		Seq:       p.Seq,
		Kind:      Kind(p.Kind),
		RequestID: p.RequestID,
		Device:    p.Device,
	}
	id, err := uuid.Parse(p.ID)
	if err != nil {
		return Event{}, fmt.Errorf("decode event id: %w", err)
	}
	e.ID = id
	if e.Timestamp, err = time.Parse(time.RFC3339Nano, p.Timestamp); err != nil {
		return Event{}, fmt.Errorf("decode event timestamp: %w", err)
	}
	if e.Actor, err = parseAddr(p.Actor); err != nil {
		return Event{}, err
	}
	if e.From, err = parseAddr(p.From); err != nil {
		return Event{}, err
	}
	if e.To, err = parseAddr(p.To); err != nil {
		return Event{}, err
	}
	if e.Target, err = parseAddr(p.Target); err != nil {
		return Event{}, err
	}
	e.Amount = parseNum(p.Amount)
	e.Old = parseNum(p.Old)
	e.New = parseNum(p.New)
	if p.Data != "" {
		if e.Data, err = base64.StdEncoding.DecodeString(p.Data); err != nil {
			return Event{}, fmt.Errorf("decode event data: %w", err)
		}
	}
	if p.OperatorData != "" {
		if e.OperatorData, err = base64.StdEncoding.DecodeString(p.OperatorData); err != nil {
			return Event{}, fmt.Errorf("decode operator data: %w", err)
		}
	}
	switch p.Role {
	case domain.RoleCitizen.String():
		e.Role = domain.RoleCitizen
	case domain.RoleMerchant.String():
		e.Role = domain.RoleMerchant
	}
	if p.Expiration != "" {
		if e.Expiration, err = time.Parse(time.RFC3339, p.Expiration); err != nil {
			return Event{}, fmt.Errorf("decode event expiration: %w", err)
		}
	}
	if p.Allowed != nil {
		e.Allowed = *p.Allowed
	}
	if p.Index != nil {
		e.Index = *p.Index
	}
	return e, nil
}

func addr(a domain.Address) string {
	if a.IsZero() {
		return ""
	}
	return a.String()
}

func parseAddr(s string) (domain.Address, error) {
	if s == "" {
		return domain.ZeroAddress, nil
	}
	return domain.ParseAddress(s)
}

func num(v *big.Int) string {
	if v == nil {
		return ""
	}
	return v.String()
}

func parseNum(s string) *big.Int {
	if s == "" {
		return nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil
	}
	return v
}
