package vehicle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitHeadTrailer(t *testing.T) {
	tests := []struct {
		in          string
		wantHead    string
		wantTrailer string
	}{
		{in: "82-0994SN / 68-4049BK", wantHead: "82-0994SN", wantTrailer: "68-4049BK"},
		{in: "82-0994SN/68-4049BK", wantHead: "82-0994SN", wantTrailer: "68-4049BK"},
		{in: "  70-1234  ", wantHead: "70-1234"},
		{in: "70-1234 /", wantHead: "70-1234 /"},
		{in: "/ 68-4049BK", wantHead: "/ 68-4049BK"},
		{in: "", wantHead: ""},
		{in: "กข 1234 สงขลา / 68-4049", wantHead: "กข 1234 สงขลา", wantTrailer: "68-4049"},
	}

	for _, tt := range tests {
		head, trailer := SplitHeadTrailer(tt.in)
		assert.Equal(t, tt.wantHead, head, "head of %q", tt.in)
		assert.Equal(t, tt.wantTrailer, trailer, "trailer of %q", tt.in)
	}
}

func TestRemarks(t *testing.T) {
	assert.Equal(t, "รถพ่วง: 68-4049BK", Remarks("", "68-4049BK"))
	assert.Equal(t, "ส่งด่วน\nรถพ่วง: 68-4049BK", Remarks(" ส่งด่วน ", "68-4049BK"))
	assert.Equal(t, "ส่งด่วน", Remarks("ส่งด่วน", ""))
	assert.Equal(t, "", Remarks("", ""))
}
