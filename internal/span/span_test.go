package span

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetClaimFirstWins(t *testing.T) {
	var s Set
	assert.True(t, s.Claim(Span{10, 20}))
	assert.False(t, s.Claim(Span{15, 40}), "overlapping longer span must lose")
	assert.False(t, s.Claim(Span{12, 14}), "contained span must lose")
	assert.True(t, s.Claim(Span{20, 25}), "adjacent span is not an overlap")
	assert.True(t, s.Claim(Span{0, 10}))
	assert.False(t, s.Claim(Span{5, 5}), "empty span")

	assert.Equal(t, []Span{{0, 10}, {10, 20}, {20, 25}}, s.Spans())
	assert.Equal(t, 3, s.Len())
}

func TestSetOverlaps(t *testing.T) {
	var s Set
	s.Claim(Span{100, 200})
	s.Claim(Span{300, 400})

	tests := []struct {
		in   Span
		want bool
	}{
		{Span{0, 100}, false},
		{Span{0, 101}, true},
		{Span{199, 300}, true},
		{Span{200, 300}, false},
		{Span{350, 360}, true},
		{Span{400, 500}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, s.Overlaps(tt.in), "%v", tt.in)
	}
}

func TestUnion(t *testing.T) {
	got := Union([]Span{{30, 40}, {0, 10}, {5, 15}, {15, 20}, {50, 50}})
	assert.Equal(t, []Span{{0, 20}, {30, 40}}, got)
	assert.Nil(t, Union(nil))
}

func TestCoveredAndGaps(t *testing.T) {
	spans := []Span{{10, 20}, {15, 30}, {50, 60}}
	assert.Equal(t, 30, Covered(spans))
	assert.Equal(t, []Span{{0, 10}, {30, 50}, {60, 100}}, Gaps(spans, 100))
	assert.Equal(t, []Span{{0, 5}}, Gaps(nil, 5))
	assert.Empty(t, Gaps([]Span{{0, 5}}, 5))
}
