package domain

import "fmt"

// FormatMinor renders an amount in minor units as "<major>.<minor> $".
func FormatMinor(amount int64) string {
	sign := ""
	abs := uint64(amount)
	if amount < 0 {
		sign = "-"
		abs = uint64(-(amount + 1)) + 1
	}
	return fmt.Sprintf("%s%d.%02d $", sign, abs/100, abs%100)
}
