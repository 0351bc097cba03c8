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

package ingestion

import "errors"

var (
	// ErrStreamInterrupted is returned when reading the source fails mid-stream.
	ErrStreamInterrupted = errors.New("stream interrupted")

	// ErrReassemblerFinished is returned when a Reassembler is used after Finish.
	ErrReassemblerFinished = errors.New("reassembler already finished")

	// ErrNormalizerRequired is returned when a pipeline is built without a normalizer.
	ErrNormalizerRequired = errors.New("normalizer required")

	// ErrHandlerRequired is returned when Run is called without a record handler.
	ErrHandlerRequired = errors.New("record handler required")
)
