// Copyright 2025 UMH Systems GmbH
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

package backoff_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/schedoscope/scheduler/pkg/backoff"
)

var _ = Describe("Schedule", func() {
	It("doubles the delay for each retry up to the cap", func() {
		Expect(backoff.Schedule(1, 30)).To(Equal(2 * time.Second))
		Expect(backoff.Schedule(2, 30)).To(Equal(4 * time.Second))
		Expect(backoff.Schedule(3, 30)).To(Equal(8 * time.Second))
	})

	It("never exceeds the configured cap", func() {
		Expect(backoff.Schedule(10, 30)).To(Equal(30 * time.Second))
	})

	It("returns zero for a non-positive retry count", func() {
		Expect(backoff.Schedule(0, 30)).To(Equal(time.Duration(0)))
		Expect(backoff.Schedule(-1, 30)).To(Equal(time.Duration(0)))
	})
})
