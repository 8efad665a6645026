package window

import (
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"testing"
)

// TestNew_NormalizesSize rounds even sizes up and clamps non-positive sizes.
func TestNew_NormalizesSize(t *testing.T) {
	require.Equal(t, 5, New(5).Size())
	require.Equal(t, 5, New(4).Size())
	require.Equal(t, 1, New(0).Size())
	require.Equal(t, 1, New(-3).Size())
}

// TestIndices_Scenarios covers the middle of the feed and both clipped edges.
func TestIndices_Scenarios(t *testing.T) {
	w := New(5)

	cases := []struct {
		name          string
		center, total int
		want          []int
	}{
		{name: "middle", center: 10, total: 100, want: []int{8, 9, 10, 11, 12}},
		{name: "lower edge", center: 1, total: 100, want: []int{0, 1, 2, 3}},
		{name: "upper edge", center: 99, total: 100, want: []int{97, 98, 99}},
		{name: "first", center: 0, total: 100, want: []int{0, 1, 2}},
		{name: "short feed", center: 1, total: 2, want: []int{0, 1}},
		{name: "empty feed", center: 0, total: 0, want: []int{}},
		{name: "center past end", center: 200, total: 100, want: []int{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if diff := cmp.Diff(tc.want, w.Indices(tc.center, tc.total)); diff != "" {
				t.Fatalf("Indices(%d, %d) mismatch (-want +got):\n%s", tc.center, tc.total, diff)
			}
		})
	}
}

// TestIndices_Properties checks size, contiguity and range for many inputs.
func TestIndices_Properties(t *testing.T) {
	for _, size := range []int{1, 3, 5, 7, 9} {
		w := New(size)
		for total := 0; total <= 30; total++ {
			for center := -2; center <= total+2; center++ {
				idx := w.Indices(center, total)

				require.LessOrEqual(t, len(idx), w.Size())
				for i, v := range idx {
					require.GreaterOrEqual(t, v, 0)
					require.Less(t, v, total)
					if i > 0 {
						require.Equal(t, idx[i-1]+1, v, "window must be contiguous")
					}
				}
			}
		}
	}
}

// TestShouldKeepLoaded_MatchesIndices keeps both query forms consistent.
func TestShouldKeepLoaded_MatchesIndices(t *testing.T) {
	w := New(5)
	for total := 0; total <= 20; total++ {
		for center := 0; center < total; center++ {
			member := make(map[int]bool)
			for _, i := range w.Indices(center, total) {
				member[i] = true
			}
			for i := 0; i < total; i++ {
				require.Equal(t, member[i], w.ShouldKeepLoaded(i, center, total), "i=%d c=%d n=%d", i, center, total)
			}
		}
	}
}
