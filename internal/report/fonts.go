package report

// Font size tokens, largest to smallest. Print output steps each token down
// one slot so printed layouts are denser than on-screen previews.
var fontTokenOrder = []string{"3xl", "2xl", "xl", "lg", "base", "sm", "xs"}

// FontTokenPx maps a size token to its on-screen pixel size.
var FontTokenPx = map[string]float64{
	"3xl":  30,
	"2xl":  24,
	"xl":   20,
	"lg":   18,
	"base": 16,
	"sm":   14,
	"xs":   12,
}

// PrintFontToken returns the token one step smaller, with the smallest token
// as the floor. Unknown tokens pass through unchanged.
func PrintFontToken(token string) string {
	for i, t := range fontTokenOrder {
		if t != token {
			continue
		}
		if i == len(fontTokenOrder)-1 {
			return t
		}
		return fontTokenOrder[i+1]
	}
	return token
}

// PrintFontPx is the pixel size of a token after the print step-down.
func PrintFontPx(token string) float64 {
	if px, ok := FontTokenPx[PrintFontToken(token)]; ok {
		return px
	}
	return FontTokenPx["base"]
}
