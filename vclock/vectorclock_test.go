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

package vclock

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestVectorClock(t *testing.T) {
	Convey("Given a 3-entry vector clock owned by vt 1", t, func() {
		clk, err := New(3, 1)
		So(err, ShouldBeNil)

		Convey("TickLocal only ever advances the owner's entry", func() {
			v1 := clk.TickLocal()
			v2 := clk.TickLocal()
			So(v1, ShouldEqual, 1)
			So(v2, ShouldEqual, 2)
			So(clk.At(0), ShouldEqual, 0)
			So(clk.At(2), ShouldEqual, 0)
		})

		Convey("RaiseRemote only raises, never lowers", func() {
			So(clk.RaiseRemote(0, 42), ShouldBeNil)
			So(clk.At(0), ShouldEqual, 42)
			So(clk.RaiseRemote(0, 10), ShouldBeNil)
			So(clk.At(0), ShouldEqual, 42)
			So(clk.RaiseRemote(0, 100), ShouldBeNil)
			So(clk.At(0), ShouldEqual, 100)
		})

		Convey("RaiseRemote rejects the owner's own entry", func() {
			So(clk.RaiseRemote(1, 5), ShouldNotBeNil)
		})

		Convey("Clone is independent of the original", func() {
			clk.TickLocal()
			cloned := clk.Clone()
			clk.TickLocal()
			So(cloned.At(1), ShouldEqual, 1)
			So(clk.At(1), ShouldEqual, 2)
		})

		Convey("Equal compares values, not owners", func() {
			other := FromSnapshot(2, clk.Snapshot())
			So(clk.Equal(other), ShouldBeTrue)
		})

		Convey("Dominates and Concurrent follow causal order", func() {
			a := FromSnapshot(0, []uint64{1, 0, 0})
			b := FromSnapshot(0, []uint64{2, 0, 0})
			c := FromSnapshot(0, []uint64{0, 1, 0})

			So(b.Dominates(a), ShouldBeTrue)
			So(a.Dominates(b), ShouldBeFalse)
			So(a.Concurrent(c), ShouldBeTrue)
			So(a.Dominates(a), ShouldBeFalse)
		})

		Convey("String renders a bracketed list", func() {
			So(clk.String(), ShouldEqual, "[0, 0, 0]")
		})
	})

	Convey("New rejects malformed lengths and owners", t, func() {
		_, err := New(0, 0)
		So(err, ShouldNotBeNil)
		_, err = New(3, 5)
		So(err, ShouldNotBeNil)
	})
}

func TestQTS(t *testing.T) {
	Convey("Given a 2-shard QTS vector", t, func() {
		qts, err := NewQTS(2)
		So(err, ShouldBeNil)

		Convey("Advance strictly increases the targeted shard only", func() {
			v, err := qts.Advance(0)
			So(err, ShouldBeNil)
			So(v, ShouldEqual, 1)
			So(qts.At(1), ShouldEqual, 0)

			v, err = qts.Advance(0)
			So(err, ShouldBeNil)
			So(v, ShouldEqual, 2)
		})

		Convey("Advance rejects an out-of-range shard", func() {
			_, err := qts.Advance(5)
			So(err, ShouldNotBeNil)
		})

		Convey("Clone and Snapshot are independent copies", func() {
			qts.Advance(1)
			snap := qts.Snapshot()
			cloned := qts.Clone()
			qts.Advance(1)
			So(snap[1], ShouldEqual, 1)
			So(cloned.At(1), ShouldEqual, 1)
			So(qts.At(1), ShouldEqual, 2)
		})
	})
}
