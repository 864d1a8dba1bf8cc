package object

import (
	"strconv"
	"strings"
)

func trimSpace(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f'
	})
}

func parseFloatStrict(s string) (float64, error) {
	if s == "Infinity" || s == "+Infinity" {
		return strconv.ParseFloat("+Inf", 64)
	}
	if s == "-Infinity" {
		return strconv.ParseFloat("-Inf", 64)
	}
	return strconv.ParseFloat(s, 64)
}

func formatInt(i int32) string {
	return strconv.FormatInt(int64(i), 10)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
