package nativemsg

import (
	"encoding/json"
	"fmt"

	"github.com/grabkit/companion/internal/apperr"
	"github.com/grabkit/companion/internal/model"
)

// envelope reads just enough of a frame to discriminate its variant.
type envelope struct {
	Type model.MessageType `json:"type"`
}

// Decode unmarshals a raw frame body into its concrete model.Message
// variant, selected by the frame's "type" field.
func Decode(raw []byte) (model.Message, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrTransportMalformed, err)
	}

	var msg model.Message
	switch env.Type {
	case model.MessageTypePing:
		var m model.PingMessage
		msg = &m
	case model.MessageTypePong:
		var m model.PongMessage
		msg = &m
	case model.MessageTypeStreamDetected:
		var m model.StreamDetectedMessage
		msg = &m
	case model.MessageTypeDownloadRequest:
		var m model.DownloadRequestMessage
		msg = &m
	case model.MessageTypeDownloadProg:
		var m model.DownloadProgressMessage
		msg = &m
	case model.MessageTypeDownloadDone:
		var m model.DownloadCompleteMessage
		msg = &m
	case model.MessageTypeDownloadError:
		var m model.DownloadErrorMessage
		msg = &m
	case model.MessageTypeDownloadCancel:
		var m model.DownloadCancelMessage
		msg = &m
	case model.MessageTypeGetDownloads:
		var m model.GetDownloadsMessage
		msg = &m
	case model.MessageTypeDownloadsList:
		var m model.DownloadsListMessage
		msg = &m
	case model.MessageTypeAppStatus:
		var m model.AppStatusMessage
		msg = &m
	default:
		return nil, fmt.Errorf("%w: unknown message type %q", apperr.ErrTransportMalformed, env.Type)
	}

	if err := json.Unmarshal(raw, msg); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrTransportMalformed, err)
	}
	return msg, nil
}
