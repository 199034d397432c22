package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHumanSize(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0 Bytes"},
		{1, "1 Bytes"},
		{500, "500 Bytes"},
		{1023, "1023 Bytes"},
		{1024, "1 KB"},
		{1536, "1.5 KB"},
		{1048576, "1 MB"},
		{1073741824, "1 GB"},
		{1650, "1.61 KB"},
	}

	for _, c := range cases {
		assert.Equal(t, c.want, HumanSize(c.in), "input %d", c.in)
	}
}

func TestHumanSizeClampsToLargestUnit(t *testing.T) {
	// 5 TB still reports in GB, the largest unit available
	assert.Equal(t, "5120 GB", HumanSize(5<<40))
}
