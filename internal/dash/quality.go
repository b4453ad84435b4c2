package dash

import "github.com/grabkit/companion/internal/model"

// VideoQuality converts a Representation into the shared model.VideoQuality,
// applying the same label rule the HLS parser uses.
func (r Representation) VideoQuality() model.VideoQuality {
	return model.NewVideoQuality(r.Width, r.Height, r.BandwidthBPS, r.FrameRate)
}

// AudioTrack converts an audio Representation into a model.AudioTrack.
func (r Representation) AudioTrack(language string) model.AudioTrack {
	return model.NewAudioTrack(language, r.BandwidthBPS)
}
