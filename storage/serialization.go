// Copyright 2025 Poiesic Systems
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
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/docqa/core"
)

// SessionMUS is the MUS serializer for core.Session.
// Timestamps are stored as Unix microseconds.
var SessionMUS = sessionMUS{}

// TurnMUS is the MUS serializer for core.Turn.
var TurnMUS = turnMUS{}

type turnMUS struct{}

func (turnMUS) Marshal(t core.Turn, bs []byte) (n int) {
	n = varint.Int.Marshal(int(t.Role), bs)
	n += ord.String.Marshal(t.Content, bs[n:])
	n += varint.Int64.Marshal(toMicros(t.At), bs[n:])
	return
}

func (turnMUS) Unmarshal(bs []byte) (t core.Turn, n int, err error) {
	role, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return
	}
	t.Role = core.Role(role)
	var n1 int
	t.Content, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	var at int64
	at, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	t.At = fromMicros(at)
	return
}

func (turnMUS) Size(t core.Turn) (size int) {
	size = varint.Int.Size(int(t.Role))
	size += ord.String.Size(t.Content)
	return size + varint.Int64.Size(toMicros(t.At))
}

type sessionMUS struct{}

func (sessionMUS) Marshal(s core.Session, bs []byte) (n int) {
	n = ord.String.Marshal(s.ProjectID, bs)
	n += ord.String.Marshal(s.SessionID, bs[n:])
	n += varint.Int64.Marshal(toMicros(s.CreatedAt), bs[n:])
	n += varint.Int64.Marshal(toMicros(s.UpdatedAt), bs[n:])
	n += varint.Int.Marshal(len(s.History), bs[n:])
	for _, t := range s.History {
		n += TurnMUS.Marshal(t, bs[n:])
	}
	return
}

func (sessionMUS) Unmarshal(bs []byte) (s core.Session, n int, err error) {
	var n1 int
	s.ProjectID, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	s.SessionID, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	var micros int64
	micros, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	s.CreatedAt = fromMicros(micros)
	micros, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	s.UpdatedAt = fromMicros(micros)

	var count int
	count, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	// Every turn takes at least three bytes.
	if count < 0 || count > (len(bs)-n)/3 {
		err = ErrTruncatedData
		return
	}
	s.History = make([]core.Turn, count)
	for i := range s.History {
		s.History[i], n1, err = TurnMUS.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}

func (sessionMUS) Size(s core.Session) (size int) {
	size = ord.String.Size(s.ProjectID)
	size += ord.String.Size(s.SessionID)
	size += varint.Int64.Size(toMicros(s.CreatedAt))
	size += varint.Int64.Size(toMicros(s.UpdatedAt))
	size += varint.Int.Size(len(s.History))
	for _, t := range s.History {
		size += TurnMUS.Size(t)
	}
	return
}

// MarshalSession serializes a Session to bytes.
func MarshalSession(session *core.Session) []byte {
	buf := make([]byte, SessionMUS.Size(*session))
	SessionMUS.Marshal(*session, buf)
	return buf
}

// UnmarshalSession deserializes a Session from bytes.
func UnmarshalSession(data []byte) (*core.Session, error) {
	session, _, err := SessionMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &session, nil
}

func toMicros(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMicro()
}

func fromMicros(us int64) time.Time {
	if us == 0 {
		return time.Time{}
	}
	return time.UnixMicro(us).UTC()
}
