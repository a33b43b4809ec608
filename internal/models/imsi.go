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

package models

import (
	"github.com/go-faster/errors"
)

var ErrMalformedImsi = errors.New("malformed imsi")

// ImsiToImsi64 converts an IMSI digit string to its numeric form.
func ImsiToImsi64(digits string) (uint64, error) {
	if len(digits) == 0 || len(digits) > ImsiDigitsMax {
		return 0, errors.Wrapf(ErrMalformedImsi, "%d digits", len(digits))
	}
	var imsi64 uint64
	for i := 0; i < len(digits); i++ {
		d := digits[i]
		if d < '0' || d > '9' {
			return 0, errors.Wrapf(ErrMalformedImsi, "digit %q at %d", d, i)
		}
		imsi64 = imsi64*10 + uint64(d-'0')
	}
	return imsi64, nil
}
