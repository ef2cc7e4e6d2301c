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


// Package storage provides the storage abstraction layer for docqa.
//
// This package defines the ports the question answering pipeline depends on
// and leaves their implementation to sub-packages:
//
//   - ProjectStore: project records (storage/sqlite)
//   - FileStore: the documents attached to each project (storage/fs)
//   - SessionRepository: per-project conversation sessions (storage/badger)
//
// # Constructor Return Type Pattern
//
// Implementation packages return concrete types from their constructors so
// callers can reach store-specific helpers (Root, Path). Consumers accept the
// interfaces defined here.
//
// # Serialization
//
// Session records are stored in the compact MUS binary format via
// MarshalSession/UnmarshalSession.
//
// # Usage
//
//	sessions, err := badger.NewMemorySessionRepository(badger.WithMaxTurns(100))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer sessions.Close()
//
// # Thread Safety
//
// All implementations must be safe for concurrent use from multiple goroutines.
//
// # Context Support
//
// All methods accept context.Context for cancellation and timeout support.
package storage
