package ptdevice

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func maskOf(pixels...[2]int) *PixelMask {
	m := NewPixelMask()
	for _, px := range pixels {
		m.Add(px[0], px[1])
	}
	return m
}

func samePixels(t *testing.T, a, b *PixelMask) bool {
	if a.Len() != b.Len() {
		return false
	}
	for px := range a.Pixels {
		if !b.Contains(px.Col, px.Row) {
			return false
		}
	}
	return true
}

func TestPixelMaskMergeIsCommutative(t *testing.T) {
	a := maskOf([2]int{1, 1}, [2]int{2, 2})
	b := maskOf([2]int{2, 2}, [2]int{3, 3})

	ab := a.Merge(b)
	ba := b.Merge(a)
	assert.True(t, samePixels(t, ab, ba), "merge must be commutative")
}

func TestPixelMaskMergeIsIdempotent(t *testing.T) {
	a := maskOf([2]int{1, 1}, [2]int{2, 2})
	once := a.Merge(a)
	twice := once.Merge(a)
	assert.True(t, samePixels(t, once, twice), "merging a mask with itself repeatedly changes nothing")
}

func TestPixelMaskMergeWithNilIsIdentity(t *testing.T) {
	a := maskOf([2]int{1, 1})
	merged := a.Merge(nil)
	assert.True(t, samePixels(t, a, merged))
}

func TestDeviceMaskMergeUnionsPerSensor(t *testing.T) {
	d1 := DeviceMask{0: maskOf([2]int{1, 1})}
	d2 := DeviceMask{0: maskOf([2]int{2, 2}), 1: maskOf([2]int{3, 3})}

	merged := d1.Merge(d2)
	assert.Equal(t, 2, merged[0].Len())
	assert.True(t, merged[0].Contains(1, 1))
	assert.True(t, merged[0].Contains(2, 2))
	assert.True(t, merged[1].Contains(3, 3))
}
