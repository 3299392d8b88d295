package models

import (
	"encoding/json"

	"kycledger/pkg/domain"
	dErrors "kycledger/pkg/domain-errors"
)

// Codec serializes records for store backends that persist bytes (postgres,
// redis). The in-memory backend holds Record values directly and does not
// need it.
type Codec struct{}

// Encode marshals a record to its JSON body. The kind travels separately as
// part of the store key.
func (Codec) Encode(rec Record) ([]byte, error) {
	body, err := json.Marshal(rec)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "encode record")
	}
	return body, nil
}

// Decode unmarshals a JSON body into the concrete record type for the kind.
func (Codec) Decode(kind domain.Kind, body []byte) (Record, error) {
	var (
		rec Record
		err error
	)
	switch kind {
	case domain.KindUser:
		var u User
		err = json.Unmarshal(body, &u)
		rec = u
	case domain.KindManager:
		var m Manager
		err = json.Unmarshal(body, &m)
		rec = m
	case domain.KindDocument:
		var d Document
		err = json.Unmarshal(body, &d)
		rec = d
	case domain.KindSomeAsset:
		var a SomeAsset
		err = json.Unmarshal(body, &a)
		rec = a
	default:
		return nil, dErrors.Newf(dErrors.CodeInternal, "no codec for kind %q", kind)
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "decode record")
	}
	return rec, nil
}
