package ordinal

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

const buddhistEraOffset = 543

// CertificateNumberPattern matches "<prefix><seq>/<BE year>" and captures seq.
var CertificateNumberPattern = regexp.MustCompile(`^\D*(\d+)/\d{4}$`)

// BuddhistYear converts the Gregorian year of t to the Thai Buddhist era.
func BuddhistYear(t time.Time) int {
	return t.Year() + buddhistEraOffset
}

// YearSuffix is the tail shared by every certificate number issued in beYear.
func YearSuffix(beYear int) string {
	return "/" + strconv.Itoa(beYear)
}

// CertificateNumber formats e.g. CPO0007/2568.
func CertificateNumber(prefix string, seq int64, beYear int) string {
	return fmt.Sprintf("%s%04d/%d", prefix, seq, beYear)
}

// LotCode formats e.g. CPO6806-0007 for June 2568.
func LotCode(prefix string, seq int64, t time.Time) string {
	return fmt.Sprintf("%s%02d%02d-%04d", prefix, BuddhistYear(t)%100, int(t.Month()), seq)
}
