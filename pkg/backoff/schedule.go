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

package backoff

import (
	"time"

	cenkaltibackoff "github.com/cenkalti/backoff"
)

// Schedule returns the delay a supervisor should wait before re-arming a
// Retrying(retry) state, namely 2^retry seconds, capped at capSeconds. A
// retry of 0 or less means "don't wait" and returns 0.
//
// The sequence is produced by stepping a cenkalti/backoff exponential
// policy retry times rather than computing 2^retry directly, so that the
// cap and the doubling are both expressed through the same library the
// rest of the retry-handling code uses.
func Schedule(retry int, capSeconds int) time.Duration {
	if retry <= 0 {
		return 0
	}

	policy := cenkaltibackoff.NewExponentialBackOff()
	policy.InitialInterval = 2 * time.Second
	policy.Multiplier = 2
	policy.RandomizationFactor = 0
	if capSeconds > 0 {
		policy.MaxInterval = time.Duration(capSeconds) * time.Second
	}
	// NewExponentialBackOff already reset the policy with the library's
	// default InitialInterval; reset again so the first step is 2s.
	policy.Reset()

	var delay time.Duration
	for i := 0; i < retry; i++ {
		delay = policy.NextBackOff()
	}
	if delay < 0 || delay > policy.MaxInterval {
		// policy.Stop (only reachable once MaxElapsedTime is exceeded), or a
		// first step that already exceeds the cap.
		delay = policy.MaxInterval
	}
	return delay
}
