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

// Package conf loads the YAML cluster configuration every vector
// timestamper replica needs at startup: VT and shard membership, and the
// handful of compile-time-style cluster constants (NUM_VTS, NUM_SHARDS,
// NUM_THREADS, the timer periods).
package conf

import (
	"io/ioutil"
	"time"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

// VTInfo addresses one peer VT replica.
type VTInfo struct {
	Addr string `yaml:"Addr"`
}

// ShardInfo addresses one storage shard.
type ShardInfo struct {
	Addr string `yaml:"Addr"`
}

// Config holds the cluster-wide view every VT loads identically, plus the
// fields specific to this process.
type Config struct {
	ThisVTID        uint32 `yaml:"ThisVTID"`
	BackupIndex     *int   `yaml:"BackupIndex,omitempty"`
	ListenAddr      string `yaml:"ListenAddr"`
	MetricsAddr     string `yaml:"MetricsAddr,omitempty"`
	MetricsUploadTo string `yaml:"MetricsUploadTo,omitempty"`
	NameMapperAddr  string `yaml:"NameMapperAddr,omitempty"`

	NumThreads     int           `yaml:"NumThreads"`
	VTTimeout      time.Duration `yaml:"VTTimeout"`
	InitialTimeout time.Duration `yaml:"InitialTimeout"`

	VTs    []VTInfo    `yaml:"VTs"`
	Shards []ShardInfo `yaml:"Shards"`
}

// NumVTs returns NUM_VTS: the cluster-wide VT replica count.
func (c *Config) NumVTs() int {
	return len(c.VTs)
}

// NumShards returns NUM_SHARDS: the cluster-wide shard count.
func (c *Config) NumShards() int {
	return len(c.Shards)
}

// GConf is the global config pointer, set once at startup by cmd/vtd.
var GConf *Config

// LoadConfig loads and validates the cluster configuration at configPath.
func LoadConfig(configPath string) (config *Config, err error) {
	configBytes, err := ioutil.ReadFile(configPath)
	if err != nil {
		log.Errorf("read config file failed: %s", err)
		return
	}
	config = &Config{}
	if err = yaml.Unmarshal(configBytes, config); err != nil {
		log.Errorf("unmarshal config file failed: %s", err)
		return
	}
	if err = config.validate(); err != nil {
		log.Errorf("validate config failed: %s", err)
		return nil, err
	}
	return
}

func (c *Config) validate() error {
	if c.NumVTs() == 0 {
		return errConfigNoVTs
	}
	if c.NumShards() == 0 {
		return errConfigNoShards
	}
	if int(c.ThisVTID) >= c.NumVTs() {
		return errConfigSelfNotInMembership
	}
	if c.NumThreads <= 0 {
		c.NumThreads = 1
	}
	if c.VTTimeout <= 0 {
		return errConfigBadTimeout
	}
	if c.BackupIndex != nil {
		modulus := c.NumVTs() + c.NumShards()
		if (*c.BackupIndex-int(c.ThisVTID))%modulus != 0 {
			return errConfigBadBackupIndex
		}
	}
	return nil
}
