/*
 * Copyright 2022 ByteDance Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package irgraph

import (
    `fmt`
)

// AbandonedError is returned for units that were never started because
// the compilation was cancelled.
type AbandonedError struct {
    Unit  string
    Cause error
}

func (self AbandonedError) Error() string {
    return fmt.Sprintf("irgraph: unit %s abandoned: %v", self.Unit, self.Cause)
}

func (self AbandonedError) Unwrap() error {
    return self.Cause
}

// InvalidProgramError is returned when lowering produced operations that
// violate their operand constraints.
type InvalidProgramError struct {
    Unit   string
    Reason error
}

func (self InvalidProgramError) Error() string {
    return fmt.Sprintf("irgraph: invalid program for unit %s: %v", self.Unit, self.Reason)
}

func (self InvalidProgramError) Unwrap() error {
    return self.Reason
}
