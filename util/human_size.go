package util

import (
	"math"
	"strconv"
)

var sizeUnits = []string{"Bytes", "KB", "MB", "GB"}

// HumanSize formats a byte count into a base-1024 string with at most
// two decimal places, e.g. 1536 -> "1.5 KB". The result is derived once
// at upload time and stored with the record
func HumanSize(b int64) string {
	if b <= 0 {
		return "0 Bytes"
	}

	i := int(math.Floor(math.Log(float64(b)) / math.Log(1024)))
	if i >= len(sizeUnits) {
		i = len(sizeUnits) - 1
	}

	v := float64(b) / math.Pow(1024, float64(i))
	v = math.Round(v*100) / 100

	return strconv.FormatFloat(v, 'f', -1, 64) + " " + sizeUnits[i]
}
