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

package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/CovenantSQL/vectortime/chainbus"
	"github.com/CovenantSQL/vectortime/conf"
	"github.com/CovenantSQL/vectortime/metric"
	"github.com/CovenantSQL/vectortime/proto"
	"github.com/CovenantSQL/vectortime/rpc"
	"github.com/CovenantSQL/vectortime/timestamper"
	"github.com/CovenantSQL/vectortime/utils"
	"github.com/CovenantSQL/vectortime/utils/log"
)

const name = `vtd`
const desc = `vtd runs one replica of a vector timestamper cluster`
const defaultTimerPeriod = 100 * time.Millisecond
const metricsUploadPeriod = 30 * time.Second

var configFile string

func init() {
	flag.StringVar(&configFile, "config", "./config.yaml", "Cluster config file path")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "\n%s\n\n", desc)
		fmt.Fprintf(os.Stderr, "Usage: %s [-config path] <vt_id> [backup_index]\n", name)
		flag.PrintDefaults()
	}
}

func main() {
	flag.Parse()
	log.SetLevel(log.InfoLevel)

	args := flag.Args()
	if len(args) < 1 || len(args) > 2 {
		flag.Usage()
		os.Exit(1)
	}

	vtID, err := strconv.Atoi(args[0])
	if err != nil {
		log.Fatalf("invalid vt_id %q: %s", args[0], err)
	}

	var backupIndex *int
	if len(args) == 2 {
		bi, err := strconv.Atoi(args[1])
		if err != nil {
			log.Fatalf("invalid backup_index %q: %s", args[1], err)
		}
		backupIndex = &bi
	}

	cfg, err := conf.LoadConfig(configFile)
	if err != nil {
		log.Fatalf("load config from %s failed: %s", configFile, err)
	}
	cfg.ThisVTID = uint32(vtID)
	cfg.BackupIndex = backupIndex
	if err := validateBackupIndex(cfg); err != nil {
		log.Fatalf("%s", err)
	}
	conf.GConf = cfg

	if err := run(cfg); err != nil {
		log.Fatalf("vtd: %s", err)
	}
	log.Info("vtd: stopped")
}

// validateBackupIndex re-runs the (backup_index - vt_id) mod (NUM_VTS +
// NUM_SHARDS) == 0 check against the ids actually supplied on the command
// line, since conf.LoadConfig only validates whatever ThisVTID/BackupIndex
// happened to already be in the YAML file.
func validateBackupIndex(cfg *conf.Config) error {
	if cfg.BackupIndex == nil {
		return nil
	}
	modulus := cfg.NumVTs() + cfg.NumShards()
	if (*cfg.BackupIndex-int(cfg.ThisVTID))%modulus != 0 {
		return fmt.Errorf("backup_index %d is not congruent to vt_id %d mod %d", *cfg.BackupIndex, cfg.ThisVTID, modulus)
	}
	return nil
}

func run(cfg *conf.Config) error {
	bus := chainbus.New()
	transport := rpc.NewTransport(cfg)
	defer transport.Close()

	var names timestamperNameMapper = unconfiguredNames{}
	if cfg.NameMapperAddr != "" {
		nmc := rpc.NewNameMapperClient(cfg.NameMapperAddr)
		defer nmc.Close()
		names = nmc
	}

	vt, err := timestamper.New(proto.VTID(cfg.ThisVTID), cfg.NumVTs(), cfg.NumShards(), timerPeriod(cfg), timestamper.Deps{
		Shards:  transport,
		Clients: transport,
		Peers:   transport,
		Names:   names,
		Bus:     bus,
	})
	if err != nil {
		return err
	}

	server := rpc.NewServer()
	if err := server.Listen(cfg.ListenAddr); err != nil {
		return err
	}
	if _, err := rpc.NewDispatcherService("Dispatcher", server, vt.Dispatcher, transport.ForwardMigrationToken); err != nil {
		return err
	}
	go server.Serve()
	defer server.Stop()

	if cfg.MetricsAddr != "" || cfg.MetricsUploadTo != "" {
		collector := metric.NewCollector(vt.Dispatcher.Clock(), vt.Dispatcher.Registry(), cfg.NumShards(), bus)
		registry := metric.NewRegistry(collector)

		if cfg.MetricsAddr != "" {
			go func() {
				if err := metric.ServeHTTP(cfg.MetricsAddr, registry); err != nil {
					log.WithError(err).Warn("vtd: metrics server stopped")
				}
			}()
		}

		if cfg.MetricsUploadTo != "" {
			uploadCaller := rpc.NewCaller(cfg.MetricsUploadTo)
			defer uploadCaller.Close()
			client := metric.NewCollectClient(proto.VTID(cfg.ThisVTID), registry, uploadCaller)
			go client.Run(metricsUploadPeriod)
			defer client.Stop()
		}
	}

	collectServer := metric.NewCollectServer()
	if err := server.RegisterName("Metric", collectServer); err != nil {
		return err
	}

	vt.Start()
	log.Infof("vtd: replica %d listening on %s", cfg.ThisVTID, cfg.ListenAddr)

	<-utils.WaitForExit()
	vt.Stop()
	return nil
}

func timerPeriod(cfg *conf.Config) time.Duration {
	if cfg.VTTimeout > 0 {
		return cfg.VTTimeout
	}
	return defaultTimerPeriod
}

// timestamperNameMapper matches timestamper.NameMapper without importing it
// just for the type name.
type timestamperNameMapper interface {
	Resolve(handle uint64) (proto.ShardID, error)
}

// unconfiguredNames rejects every handle when the config sets no NameMapperAddr,
// instead of leaving the Dispatcher holding a nil NameMapper.
type unconfiguredNames struct{}

func (unconfiguredNames) Resolve(uint64) (proto.ShardID, error) {
	return 0, fmt.Errorf("vtd: no name mapper configured")
}
