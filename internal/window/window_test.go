package window

import (
	"math"
	"reflect"
	"strconv"
	"testing"
)

func TestComputeFirstWindow(t *testing.T) {
	plan := Compute(Request{OffsetMs: 0, LengthMs: 10000, TotalMs: 25000})
	if plan.EndMs != 10000 {
		t.Fatalf("unexpected end: %d", plan.EndMs)
	}
	if plan.Completed {
		t.Fatalf("expected window to be incomplete")
	}
	if plan.NextOffsetMs != 5000 {
		t.Fatalf("unexpected next offset: %d", plan.NextOffsetMs)
	}
	if want := []string{"10"}; !reflect.DeepEqual(plan.Context, want) {
		t.Fatalf("unexpected context: got %v, want %v", plan.Context, want)
	}
}

func TestComputeFinalWindow(t *testing.T) {
	prior := []string{"10", "15"}
	plan := Compute(Request{OffsetMs: 20000, LengthMs: 10000, TotalMs: 25000, Context: prior})
	if plan.EndMs != 25000 {
		t.Fatalf("unexpected end: %d", plan.EndMs)
	}
	if !plan.Completed {
		t.Fatalf("expected window to be completed")
	}
	if plan.NextOffsetMs != 25000 {
		t.Fatalf("unexpected next offset: %d", plan.NextOffsetMs)
	}
	if want := []string{"10", "15", "25"}; !reflect.DeepEqual(plan.Context, want) {
		t.Fatalf("unexpected context: got %v, want %v", plan.Context, want)
	}
	if len(prior) != 2 {
		t.Fatalf("prior context mutated: %v", prior)
	}
}

func TestComputeForcesProgressOnTinyWindows(t *testing.T) {
	plan := Compute(Request{OffsetMs: 7000, LengthMs: 2000, TotalMs: 60000})
	if plan.EndMs != 9000 {
		t.Fatalf("unexpected end: %d", plan.EndMs)
	}
	if plan.NextOffsetMs != 9000 {
		t.Fatalf("expected next offset forced to end, got %d", plan.NextOffsetMs)
	}
}

func TestComputeClampsBackwardsTotal(t *testing.T) {
	plan := Compute(Request{OffsetMs: 30000, LengthMs: 10000, TotalMs: 20000})
	if plan.EndMs != 30000 {
		t.Fatalf("expected end clamped to offset, got %d", plan.EndMs)
	}
	if !plan.Completed || plan.NextOffsetMs != 30000 {
		t.Fatalf("unexpected plan: %+v", plan)
	}
}

func TestComputeSaturatesOffsetPlusLength(t *testing.T) {
	plan := Compute(Request{OffsetMs: math.MaxInt64 - 10, LengthMs: 1000, TotalMs: math.MaxInt64})
	if plan.EndMs != math.MaxInt64 {
		t.Fatalf("expected saturated end, got %d", plan.EndMs)
	}
	if !plan.Completed {
		t.Fatalf("expected completed window")
	}
}

func TestComputeProperties(t *testing.T) {
	t.Parallel()

	totals := []int64{0, 1, 999, 1000, 4999, 5000, 5001, 25000, 61234}
	lengths := []int64{0, 1, 500, 4999, 5000, 5001, 10000, 30000}
	prior := []string{"a", "b"}

	for _, total := range totals {
		for offset := int64(0); offset <= total; offset += max(1, total/7) {
			for _, length := range lengths {
				plan := Compute(Request{OffsetMs: offset, LengthMs: length, TotalMs: total, Context: prior})

				wantEnd := min(offset+length, total)
				if plan.EndMs != wantEnd {
					t.Fatalf("offset=%d length=%d total=%d: end %d, want %d", offset, length, total, plan.EndMs, wantEnd)
				}
				if plan.EndMs < offset {
					t.Fatalf("end %d before offset %d", plan.EndMs, offset)
				}
				if plan.Completed != (plan.EndMs == total) {
					t.Fatalf("offset=%d length=%d total=%d: completed=%v end=%d", offset, length, total, plan.Completed, plan.EndMs)
				}
				if plan.NextOffsetMs < 0 {
					t.Fatalf("negative next offset %d", plan.NextOffsetMs)
				}
				if !plan.Completed {
					forced := plan.NextOffsetMs == plan.EndMs
					if !forced && plan.NextOffsetMs >= plan.EndMs {
						t.Fatalf("next offset %d not before end %d", plan.NextOffsetMs, plan.EndMs)
					}
					if !forced && plan.NextOffsetMs <= offset {
						t.Fatalf("next offset %d does not advance past %d", plan.NextOffsetMs, offset)
					}
				}
				if len(plan.Context) != len(prior)+1 {
					t.Fatalf("unexpected context length %d", len(plan.Context))
				}
				if plan.Context[0] != "a" || plan.Context[1] != "b" {
					t.Fatalf("prior order lost: %v", plan.Context)
				}
				if got, want := plan.Context[2], strconv.FormatInt(plan.EndMs/1000, 10); got != want {
					t.Fatalf("unexpected context token %q, want %q", got, want)
				}
			}
		}
	}
}

func TestPlanResult(t *testing.T) {
	plan := Compute(Request{OffsetMs: 0, LengthMs: 10000, TotalMs: 25000})
	res := plan.Result(Describe(plan.StartMs, plan.EndMs))

	if res.Text != "Window 0s→10s" {
		t.Fatalf("unexpected text: %q", res.Text)
	}
	if len(res.Segments) != 1 {
		t.Fatalf("expected one segment, got %d", len(res.Segments))
	}
	if seg := res.Segments[0]; seg.Start != 0 || seg.End != 10000 || seg.Text != res.Text {
		t.Fatalf("unexpected segment: %+v", seg)
	}
	if res.Completed || res.NextOffsetMs != 5000 {
		t.Fatalf("unexpected continuation: %+v", res)
	}
}
