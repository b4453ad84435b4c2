package hls

import "github.com/grabkit/companion/internal/model"

// VideoQuality converts a Variant into the shared model.VideoQuality,
// applying the label rule shared with the DASH parser.
func (v Variant) VideoQuality() model.VideoQuality {
	width, height := 0, 0
	if v.Resolution != nil {
		width, height = v.Resolution.Width, v.Resolution.Height
	}
	return model.NewVideoQuality(width, height, v.BandwidthBPS, v.FrameRate)
}
