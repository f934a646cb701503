// Copyright 2024 mutiny project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRangeBareNumber(t *testing.T) {
	min, max, err := parseRange("5")
	require.NoError(t, err)
	assert.Equal(t, 5, min)
	assert.Equal(t, 5, max)
}

func TestParseRangeBounded(t *testing.T) {
	min, max, err := parseRange("0-7")
	require.NoError(t, err)
	assert.Equal(t, 0, min)
	assert.Equal(t, 7, max)
}

func TestParseRangeUnboundedUpper(t *testing.T) {
	min, max, err := parseRange("3-")
	require.NoError(t, err)
	assert.Equal(t, 3, min)
	assert.Equal(t, -1, max)
}

func TestParseRangeEmptyMeansUnbounded(t *testing.T) {
	min, max, err := parseRange("")
	require.NoError(t, err)
	assert.Equal(t, 0, min)
	assert.Equal(t, -1, max)
}

func TestParseRangeRejectsInvertedBounds(t *testing.T) {
	_, _, err := parseRange("7-3")
	assert.Error(t, err)
}

func TestParseRangeRejectsGarbage(t *testing.T) {
	_, _, err := parseRange("abc")
	assert.Error(t, err)
}

func TestParseLoopMixedCommaAndRange(t *testing.T) {
	seeds, err := parseLoop("0,2-4")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, 3, 4}, seeds)
}

func TestParseLoopEmptyIsNil(t *testing.T) {
	seeds, err := parseLoop("")
	require.NoError(t, err)
	assert.Nil(t, seeds)
}

func TestParseLoopRejectsInvertedRange(t *testing.T) {
	_, err := parseLoop("4-2")
	assert.Error(t, err)
}
