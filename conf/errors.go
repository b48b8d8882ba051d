/*
 * Copyright 2018 The CovenantSQL Authors.
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

package conf

import "github.com/pkg/errors"

// ConfigError kinds. A VT exits with one of these as a diagnostic; recovery
// is by restart, never by retrying the load in-process.
var (
	errConfigNoVTs               = errors.New("conf: cluster config lists no VTs")
	errConfigNoShards            = errors.New("conf: cluster config lists no shards")
	errConfigSelfNotInMembership = errors.New("conf: ThisVTID is not within the configured VT membership")
	errConfigBadTimeout          = errors.New("conf: VTTimeout must be positive")
	errConfigBadBackupIndex      = errors.New("conf: backup_index does not satisfy (backup_index - vt_id) mod (NUM_VTS + NUM_SHARDS) == 0")
)
