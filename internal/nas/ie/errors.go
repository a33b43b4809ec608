// Copyright 2025 EURECOM
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
//
// Contributors:
//   Giulio CAROTA
//   Thomas DU
//   Adlen KSENTINI

package ie

import "github.com/go-faster/errors"

var (
	ErrBufferTooShort    = errors.New("ie: buffer too short")
	ErrInvalidFieldValue = errors.New("ie: invalid field value")
	ErrUnexpectedIei     = errors.New("ie: unexpected information element identifier")
)

// checkLength fails when fewer than min bytes are available in buf.
func checkLength(buf []byte, min int, field string) error {
	if len(buf) < min {
		return errors.Wrapf(ErrBufferTooShort, "%s: need %d bytes, have %d", field, min, len(buf))
	}
	return nil
}
