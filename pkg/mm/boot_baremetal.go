// Copyright 2026 The gVisor Authors.
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

//go:build arm64 && baremetal

package mm

import (
	"jerryos.dev/jerry/pkg/physmem"
	"jerryos.dev/jerry/pkg/ring0"
)

// Boot runs Setup on the executing core with RAM addressed in place. It is
// called with the MMU off.
func Boot(info BootInfo) (*Context, error) {
	return Setup(info, physmem.NewDirect(info.RAMBase, info.RAMLen), ring0.Hardware{})
}
