package workload

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/boundedbuffer/config"
)

func acceptedAll(producers, items int) [][]bool {
	out := make([][]bool, producers)
	for p := range out {
		out[p] = make([]bool, items)
		for s := range out[p] {
			out[p][s] = true
		}
	}
	return out
}

func TestCheckConservation(t *testing.T) {
	tests := []struct {
		name  string
		l     ledger
		kinds map[string]int
	}{
		{
			name: "clean",
			l: ledger{
				accepted:  acceptedAll(2, 2),
				consumed:  [][]Item{{{0, 0}, {1, 0}}, {{0, 1}}},
				remaining: []Item{{1, 1}},
			},
			kinds: map[string]int{},
		},
		{
			name: "lost value",
			l: ledger{
				accepted: acceptedAll(1, 3),
				consumed: [][]Item{{{0, 0}, {0, 2}}},
			},
			kinds: map[string]int{KindLoss: 1},
		},
		{
			name: "duplicated value",
			l: ledger{
				accepted:  acceptedAll(1, 2),
				consumed:  [][]Item{{{0, 0}, {0, 1}}, {{0, 1}}},
				remaining: []Item{{0, 1}},
			},
			kinds: map[string]int{KindDuplication: 1},
		},
		{
			name: "dropped value reappears",
			l: ledger{
				accepted: [][]bool{{true, false}},
				consumed: [][]Item{{{0, 0}, {0, 1}}},
			},
			kinds: map[string]int{KindPhantom: 1},
		},
		{
			name: "value from nowhere",
			l: ledger{
				accepted: acceptedAll(1, 1),
				consumed: [][]Item{{{0, 0}, {3, 0}, {0, 9}}},
			},
			kinds: map[string]int{KindPhantom: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var vs violations
			checkConservation(&tt.l, &vs)

			got := make(map[string]int)
			for _, v := range vs.list() {
				got[v.Kind] = v.Count
			}
			assert.Equal(t, tt.kinds, got)
		})
	}
}

func TestCheckOrder(t *testing.T) {
	t.Run("interleaved producers in order", func(t *testing.T) {
		l := ledger{
			consumed: [][]Item{
				{{0, 0}, {1, 0}, {0, 2}, {1, 1}},
				{{0, 1}, {1, 2}},
			},
			remaining: []Item{{0, 3}, {1, 3}},
		}
		var vs violations
		checkOrder(&l, 2, &vs)
		assert.Empty(t, vs.list())
	})

	t.Run("reordered within one consumer", func(t *testing.T) {
		l := ledger{
			consumed: [][]Item{{{0, 1}, {0, 0}, {0, 2}}},
		}
		var vs violations
		checkOrder(&l, 1, &vs)

		list := vs.list()
		require.Len(t, list, 1)
		assert.Equal(t, KindOrder, list[0].Kind)
		assert.Equal(t, 1, list[0].Count)
		assert.Contains(t, list[0].Details[0], "producer 0 seq 0 after 1")
	})

	t.Run("remaining buffer out of order", func(t *testing.T) {
		l := ledger{remaining: []Item{{0, 5}, {0, 4}}}
		var vs violations
		checkOrder(&l, 1, &vs)
		assert.Len(t, vs.list(), 1)
	})
}

func TestCheckExpectations(t *testing.T) {
	two := 2
	exp := config.ExpectConfig{
		MinElapsed: config.Duration(100 * time.Millisecond),
		MaxElapsed: config.Duration(200 * time.Millisecond),
		FinalLen:   &two,
	}

	var ok violations
	checkExpectations(exp, 150*time.Millisecond, 2, &ok)
	assert.Empty(t, ok.list())

	var bad violations
	checkExpectations(exp, 50*time.Millisecond, 0, &bad)
	list := bad.list()
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].Count)

	var slow violations
	checkExpectations(exp, time.Second, 2, &slow)
	require.Len(t, slow.list(), 1)
	assert.Contains(t, slow.list()[0].Details[0], "above")
}

func TestViolations_KeepsFewExamples(t *testing.T) {
	var vs violations
	for i := 0; i < 20; i++ {
		vs.add(KindLoss, "value %d", i)
	}
	vs.add(KindOrder, "late")

	want := []Violation{
		{
			Kind:    KindLoss,
			Count:   20,
			Details: []string{"value 0", "value 1", "value 2", "value 3", "value 4"},
		},
		{Kind: KindOrder, Count: 1, Details: []string{"late"}},
	}
	if diff := cmp.Diff(want, vs.list()); diff != "" {
		t.Errorf("violations mismatch (-want +got):\n%s", diff)
	}
	require.Len(t, want[0].Details, maxViolationNote)
}
