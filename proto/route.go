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

package proto

// RPC method names registered against the Dispatcher and against shard and
// peer-VT services, following net/rpc's "Service.Method" convention.
const (
	ClientTxInitRoute      = "Dispatcher.ClientTxInit"
	ClientNodeProgReqRoute = "Dispatcher.ClientNodeProgReq"
	TxDoneRoute            = "Dispatcher.TxDone"
	NodeProgReturnRoute    = "Dispatcher.NodeProgReturn"
	VTClockUpdateRoute     = "Dispatcher.VTClockUpdate"
	VTClockUpdateAckRoute  = "Dispatcher.VTClockUpdateAck"
	VTNopAckRoute          = "Dispatcher.VTNopAck"
	LoadedGraphRoute       = "Dispatcher.LoadedGraph"
	MsgCountsRoute         = "Dispatcher.MsgCounts"
	MigrationTokenRoute    = "Dispatcher.MigrationToken"

	ShardTxInitRoute         = "Shard.TxInit"
	ShardNodeProgRoute       = "Shard.NodeProg"
	ShardNopRoute            = "Shard.Nop"
	ShardMigrationTokenRoute = "Shard.MigrationToken"

	ClientTxDoneRoute     = "Client.TxDone"
	ClientTxFailRoute     = "Client.TxFail"
	ClientProgReturnRoute = "Client.ProgReturn"

	NameMapperResolveRoute = "NameMapper.Resolve"

	MetricUploadRoute = "Metric.UploadMetrics"
)
