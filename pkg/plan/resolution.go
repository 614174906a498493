package plan

import "sort"

// Dimensions is a target frame size in pixels.
type Dimensions struct {
	Width  int
	Height int
}

// resolutionTable maps the quality tokens offered in the chat menu to target
// frame sizes.
var resolutionTable = map[string]Dimensions{
	"144p":  {256, 144},
	"240p":  {426, 240},
	"360p":  {640, 360},
	"480p":  {854, 480},
	"720p":  {1280, 720},
	"1080p": {1920, 1080},
	"2160p": {3840, 2160},
}

// DefaultResolution is used when a request carries an unknown token.
const DefaultResolution = "720p"

// ResolutionDims returns the pixel dimensions for a quality token. Unknown
// tokens fall back to the 720p dimensions.
func ResolutionDims(token string) Dimensions {
	if d, ok := resolutionTable[token]; ok {
		return d
	}
	return resolutionTable[DefaultResolution]
}

// KnownResolutions lists the supported quality tokens, lowest first.
func KnownResolutions() []string {
	out := make([]string, 0, len(resolutionTable))
	for token := range resolutionTable {
		out = append(out, token)
	}
	sort.Slice(out, func(i, j int) bool {
		return resolutionTable[out[i]].Height < resolutionTable[out[j]].Height
	})
	return out
}
