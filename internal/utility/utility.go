package utility

import (
	"fmt"
	"math/rand"
)

// RandomColorHex returns a random #rrggbb color, avoiding near-black and
// near-white so it stays readable on both board themes.
func RandomColorHex() string {
	r := 4 + rand.Intn(248)
	g := 4 + rand.Intn(248)
	b := 4 + rand.Intn(248)
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}
