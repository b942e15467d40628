package cov

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservablesEnabled(t *testing.T) {
	cases := []struct {
		name string
		obs  Observables
		want map[Combination]bool
	}{
		{
			name: "shear only",
			obs:  Observables{Shear: true},
			want: map[Combination]bool{MMMM: true},
		},
		{
			name: "clustering only",
			obs:  Observables{Clustering: true},
			want: map[Combination]bool{GGGG: true},
		},
		{
			name: "ggl only",
			obs:  Observables{GGL: true},
			want: map[Combination]bool{GMGM: true},
		},
		{
			name: "all without cross terms",
			obs:  Observables{Clustering: true, GGL: true, Shear: true},
			want: map[Combination]bool{GGGG: true, GMGM: true, MMMM: true},
		},
		{
			name: "all with cross terms",
			obs:  Observables{Clustering: true, GGL: true, Shear: true, CrossTerms: true},
			want: map[Combination]bool{
				GGGG: true, GGGM: true, GGMM: true,
				GMGM: true, MMGM: true, MMMM: true,
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for _, c := range Combinations {
				assert.Equal(t, tc.want[c], tc.obs.Enabled(c), c.String())
			}
		})
	}
}

func TestSurveyArea(t *testing.T) {
	s := SurveyParams{AreaClust: 100, AreaGGL: 400, AreaLens: 900}

	assert.Equal(t, 100.0, s.Area(GGGG))
	assert.Equal(t, 400.0, s.Area(GMGM))
	assert.Equal(t, 900.0, s.Area(MMMM))

	// Mixed pairs use the larger overlapping footprint.
	assert.Equal(t, 400.0, s.Area(GGGM))
	assert.Equal(t, 900.0, s.Area(GGMM))
	assert.Equal(t, 900.0, s.Area(MMGM))
}

func TestDimsShapes(t *testing.T) {
	d := Dims{Modes: 3, Sample: 2, TomoClust: 4, TomoLens: 5}

	require.Equal(t, [4]int{4, 4, 4, 4}, d.TomoShape(GGGG))
	require.Equal(t, [4]int{4, 4, 4, 5}, d.TomoShape(GGGM))
	require.Equal(t, [4]int{4, 4, 5, 5}, d.TomoShape(GGMM))
	require.Equal(t, [4]int{4, 5, 4, 5}, d.TomoShape(GMGM))
	require.Equal(t, [4]int{5, 5, 4, 5}, d.TomoShape(MMGM))
	require.Equal(t, [4]int{5, 5, 5, 5}, d.TomoShape(MMMM))

	assert.Equal(t, 2*2*4*4*4*4, d.FlatLen(GGGG))
	assert.Equal(t, 2*2*5*5*5*5, d.FlatLen(MMMM))

	z := d.Zero8(GMGM)
	assert.Equal(t, 3, z.Modes())
	assert.Equal(t, d.FlatLen(GMGM), z.FlatLen())
}
